package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldpulse/surveyhub/internal/service"
	"fieldpulse/surveyhub/pkg/response"
)

// WebhookHandler receives external form completion events. Events that
// cannot be matched to a legal token transition are rejected after the
// orphan ledger write.
type WebhookHandler struct {
	webhookService service.WebhookService
	logger         *zap.Logger
}

func NewWebhookHandler(webhookService service.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService, logger: logger}
}

func (h *WebhookHandler) GoogleForm(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	if err := h.webhookService.FinalizeFromForm(c.Request.Context(), payload); err != nil {
		h.logger.Warn("form event rejected", zap.Error(err))
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"received": true})
}
