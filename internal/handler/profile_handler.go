package handler

import (
	"net/http"
	"strings"

	"studynest/internal/domain"
	"studynest/internal/middleware"
	"studynest/internal/models"
	"studynest/internal/repository"
	"studynest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	repo *repository.ProfileRepository
}

func NewProfileHandler(repo *repository.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{repo: repo}
}

// Create sets up the caller's profile and fixes their role.
func (h *ProfileHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role required"})
		return
	}
	if !domain.IsValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be student or property_owner"})
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		logger.FromGin(c).Error("load profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "profile already exists"})
		return
	}
	p := &models.Profile{
		ID:       userID,
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     req.Role,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		logger.FromGin(c).Error("create profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create profile failed"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.repo.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update changes name and phone. The role is fixed at creation.
func (h *ProfileHandler) Update(c *gin.Context) {
	var req struct {
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if req.FullName != nil {
		p.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if err := h.repo.Update(c.Request.Context(), p); err != nil {
		logger.FromGin(c).Error("update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, p)
}
