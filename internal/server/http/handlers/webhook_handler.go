package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
)

// WebhookHandler receives Bot API updates.
type WebhookHandler struct {
	dispatcher UpdateDispatcher
	logger     *slog.Logger
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(dispatcher UpdateDispatcher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, logger: logger}
}

// Handle handles POST /telegram/webhook. Telegram retries on non-2xx, so a
// processed update always answers 200 regardless of dispatch outcome.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Warn("malformed webhook update", slog.String("error", err.Error()))
		c.Status(http.StatusBadRequest)
		return
	}

	h.dispatcher.HandleUpdate(c.Request.Context(), update)
	c.Status(http.StatusOK)
}
