package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"fieldpulse/surveyhub/internal/service"
	"fieldpulse/surveyhub/pkg/response"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	stats, err := h.analyticsService.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *AnalyticsHandler) Trends(c *gin.Context) {
	surveyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}

	trends, err := h.analyticsService.Trends(c.Request.Context(), surveyID, days)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, trends)
}

// Orphans summarizes the orphan ledger grouped by reason.
func (h *AnalyticsHandler) Orphans(c *gin.Context) {
	summary, err := h.analyticsService.OrphanSummary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, summary)
}

// OrphanDetails lists recent ledger entries for one reason.
func (h *AnalyticsHandler) OrphanDetails(c *gin.Context) {
	reason := c.Param("reason")
	if reason == "" {
		response.BadRequest(c, "missing reason")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	entries, err := h.analyticsService.OrphanDetails(c.Request.Context(), reason, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, entries)
}
