package handler

import (
	"github.com/gin-gonic/gin"

	"fieldpulse/surveyhub/internal/service"
	"fieldpulse/surveyhub/pkg/response"
)

// PublicHandler serves the unauthenticated respondent-facing endpoints.
// Tokens arrive as opaque path parameters; no session state is kept.
type PublicHandler struct {
	screeningService service.ScreeningService
}

func NewPublicHandler(screeningService service.ScreeningService) *PublicHandler {
	return &PublicHandler{screeningService: screeningService}
}

type Layer1SubmitRequest struct {
	Answers map[string]any `json:"answers" binding:"required"`
	Phone   string         `json:"phone"`
}

type Layer2SubmitRequest struct {
	Answers map[string]any `json:"answers" binding:"required"`
}

// Entry resolves a token to the survey payload the respondent sees.
func (h *PublicHandler) Entry(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "missing token")
		return
	}

	payload, err := h.screeningService.SurveyForToken(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, payload)
}

// SubmitLayer1 evaluates screening answers and reports pass or fail.
func (h *PublicHandler) SubmitLayer1(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "missing token")
		return
	}

	var req Layer1SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.screeningService.EvaluateLayer1(c.Request.Context(), token, req.Answers, req.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// SubmitLayer2 finalizes a passed token from the in-app flow.
func (h *PublicHandler) SubmitLayer2(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "missing token")
		return
	}

	var req Layer2SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.screeningService.SubmitLayer2(c.Request.Context(), token, req.Answers); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"submitted": true})
}
