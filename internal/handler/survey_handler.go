package handler

import (
	"github.com/gin-gonic/gin"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/service"
	"fieldpulse/surveyhub/pkg/response"
)

type SurveyHandler struct {
	surveyService    service.SurveyService
	analyticsService service.AnalyticsService
}

func NewSurveyHandler(surveyService service.SurveyService, analyticsService service.AnalyticsService) *SurveyHandler {
	return &SurveyHandler{
		surveyService:    surveyService,
		analyticsService: analyticsService,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *SurveyHandler) Create(c *gin.Context) {
	var req service.CreateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	survey, err := h.surveyService.Create(c.Request.Context(), req, usernameFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, survey)
}

func (h *SurveyHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	survey, err := h.surveyService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, survey)
}

func (h *SurveyHandler) List(c *gin.Context) {
	surveys, err := h.surveyService.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, surveys)
}

// Update applies a partial field set. Outside draft only {status} is
// accepted, and the form id never changes after creation.
func (h *SurveyHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	survey, err := h.surveyService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, survey)
}

func (h *SurveyHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	survey, err := h.surveyService.UpdateStatus(c.Request.Context(), id, model.SurveyStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, survey)
}

func (h *SurveyHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.surveyService.SoftDelete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

// Stats returns the token funnel for one survey.
func (h *SurveyHandler) Stats(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.analyticsService.Funnel(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}
