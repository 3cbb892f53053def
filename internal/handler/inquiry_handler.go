package handler

import (
	"errors"
	"net/http"

	"studynest/internal/middleware"
	"studynest/internal/repository"
	"studynest/internal/service"
	"studynest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InquiryHandler struct {
	svc      *service.InquiryService
	profiles *repository.ProfileRepository
}

func NewInquiryHandler(svc *service.InquiryService, profiles *repository.ProfileRepository) *InquiryHandler {
	return &InquiryHandler{svc: svc, profiles: profiles}
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

// Create opens an inquiry about the property in the path. Student only.
func (h *InquiryHandler) Create(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}
	inq, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, inq)
}

// ListMine returns sent inquiries for students and received ones for owners.
func (h *InquiryHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	profile, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	limit, offset := pageParams(c, 20, 100)
	list, err := h.svc.ListForRole(c.Request.Context(), userID, profile.Role, limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": list})
}

func (h *InquiryHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
		return
	}
	inq, err := h.svc.SetStatus(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inq)
}

func (h *InquiryHandler) Messages(c *gin.Context) {
	limit, offset := pageParams(c, 100, 500)
	list, err := h.svc.Messages(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (h *InquiryHandler) Reply(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}
	msg, err := h.svc.Reply(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *InquiryHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInquiryNotFound), errors.Is(err, service.ErrPropertyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrOwnPropertyInquiry):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInquiryClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.FromGin(c).Error("inquiry request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
