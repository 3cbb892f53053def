package handler

import (
	"errors"
	"net/http"
	"strings"

	"studynest/internal/auth"
	"studynest/internal/middleware"
	"studynest/internal/repository"
	"studynest/internal/service"
	"studynest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RentPaymentHandler struct {
	checkout       *service.CheckoutService
	payments       *repository.RentPaymentRepository
	baseURL        string
	allowedOrigins []string
}

// NewRentPaymentHandler builds the handler. Redirect URLs use the request Origin only
// when it is listed in allowedOrigins, and baseURL otherwise.
func NewRentPaymentHandler(checkout *service.CheckoutService, payments *repository.RentPaymentRepository, baseURL string, allowedOrigins []string) *RentPaymentHandler {
	return &RentPaymentHandler{checkout: checkout, payments: payments, baseURL: baseURL, allowedOrigins: allowedOrigins}
}

// CreateCheckout opens a monthly rent checkout. Every failure is reported as 500
// with {error, details}; the front end shows error and lets the user retry.
func (h *RentPaymentHandler) CreateCheckout(c *gin.Context) {
	var req struct {
		PropertyID string `json:"propertyId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.FromGin(c).Warn("rent checkout body unreadable", zap.Error(err))
	}

	token, _ := auth.BearerToken(c.GetHeader("Authorization"))
	url, err := h.checkout.CreateRentCheckout(c.Request.Context(), service.CheckoutInput{
		PropertyID: strings.TrimSpace(req.PropertyID),
		Token:      token,
		Origin:     h.origin(c),
	})
	if err != nil {
		logger.FromGin(c).Warn("rent checkout failed", zap.String("property_id", req.PropertyID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"details": "Check server logs for more information",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *RentPaymentHandler) origin(c *gin.Context) string {
	return redirectOrigin(c.GetHeader("Origin"), h.baseURL, h.allowedOrigins)
}

// redirectOrigin returns origin when it exactly matches an allowed entry. A "*"
// entry does not vouch for redirects.
func redirectOrigin(origin, baseURL string, allowed []string) string {
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		return baseURL
	}
	for _, a := range allowed {
		if a != "*" && strings.TrimRight(a, "/") == origin {
			return origin
		}
	}
	return baseURL
}

// Portal returns a billing portal link for the caller's existing subscriptions.
func (h *RentPaymentHandler) Portal(c *gin.Context) {
	url, err := h.checkout.PortalURL(c.Request.Context(), middleware.CurrentUser(c), h.origin(c)+"/")
	if errors.Is(err, service.ErrNoCustomer) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("billing portal session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open billing portal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Verify reports whether the caller's checkout session completed and was paid.
func (h *RentPaymentHandler) Verify(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId required"})
		return
	}
	res, err := h.checkout.VerifyCheckout(c.Request.Context(), middleware.CurrentUser(c), req.SessionID)
	if errors.Is(err, service.ErrSessionNotOwned) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("verify checkout session", zap.String("session_id", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify checkout session"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// History lists the caller's rent payments with their property, newest first.
func (h *RentPaymentHandler) History(c *gin.Context) {
	list, err := h.payments.ListByTenant(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		logger.FromGin(c).Error("list rent payments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rent_payments": list})
}
