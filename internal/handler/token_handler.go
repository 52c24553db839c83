package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/repository"
	"fieldpulse/surveyhub/internal/service"
	"fieldpulse/surveyhub/pkg/response"
)

type TokenHandler struct {
	tokenService service.TokenService
}

func NewTokenHandler(tokenService service.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: tokenService}
}

type GenerateTokensRequest struct {
	Count int `json:"count" binding:"required,min=1,max=10000"`
}

type ExtendExpiryRequest struct {
	TokenIDs []uuid.UUID `json:"token_ids" binding:"required,min=1"`
	Until    time.Time   `json:"until" binding:"required"`
}

// Generate bulk-creates access tokens for a survey.
func (h *TokenHandler) Generate(c *gin.Context) {
	surveyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req GenerateTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	tokens, err := h.tokenService.Generate(c.Request.Context(), surveyID, req.Count, usernameFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"tokens": tokens, "count": len(tokens)})
}

func (h *TokenHandler) List(c *gin.Context) {
	surveyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	filter := repository.TokenFilter{
		Status:  model.TokenStatus(c.Query("status")),
		BatchID: c.Query("batch_id"),
	}
	filter.Page, filter.PageSize = paginationParams(c)

	tokens, total, err := h.tokenService.ListBySurvey(c.Request.Context(), surveyID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"tokens":    tokens,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

// Summary returns per-status counts for a survey's tokens.
func (h *TokenHandler) Summary(c *gin.Context) {
	surveyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.tokenService.Summary(c.Request.Context(), surveyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, summary)
}

// ExtendExpiry pushes the expiry horizon for a batch of tokens. Status
// fields are never touched here.
func (h *TokenHandler) ExtendExpiry(c *gin.Context) {
	var req ExtendExpiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !req.Until.After(time.Now()) {
		response.BadRequest(c, "until must be in the future")
		return
	}

	updated, err := h.tokenService.ExtendExpiry(c.Request.Context(), req.TokenIDs, req.Until)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}
