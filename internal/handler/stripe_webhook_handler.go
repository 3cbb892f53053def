package handler

import (
	"errors"
	"io"
	"net/http"

	"studynest/internal/service"
	"studynest/pkg/logger"
	"studynest/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody caps the payload read from the processor. Invoices with many
// expanded lines run well past 64 KiB.
const maxWebhookBody = 1 << 20

type StripeWebhookHandler struct {
	processor  payment.Processor
	reconciler *service.Reconciler
}

func NewStripeWebhookHandler(processor payment.Processor, reconciler *service.Reconciler) *StripeWebhookHandler {
	return &StripeWebhookHandler{processor: processor, reconciler: reconciler}
}

// Handle verifies the Stripe-Signature header against the raw body and applies the event.
// Only storage failures answer 5xx, so Stripe redelivers exactly those.
func (h *StripeWebhookHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		log.Error("webhook payload too large",
			zap.Int64("limit", tooLarge.Limit), zap.Int64("content_length", c.Request.ContentLength))
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	ev, err := h.processor.ParseEvent(body, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, payment.ErrInvalidSignature) {
		log.Warn("webhook signature rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}
	if err != nil {
		log.Warn("webhook payload rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if _, err := h.reconciler.HandleEvent(c.Request.Context(), ev); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
