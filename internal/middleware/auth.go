package middleware

import (
	"net/http"

	"studynest/internal/auth"
	"studynest/internal/repository"
	"studynest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
)

// AuthRequired validates the bearer token and sets user_id and email in context.
func AuthRequired(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token, ok := auth.BearerToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := verifier.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxEmail, claims.Email)
		logger.SetGin(c, logger.FromGin(c).With(zap.String("user_id", claims.Subject)))
		c.Next()
	}
}

// RequireRole loads the caller's profile and checks its role. Must run after AuthRequired.
func RequireRole(profiles *repository.ProfileRepository, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		profile, err := profiles.GetByID(c.Request.Context(), userID)
		if err != nil {
			logger.FromGin(c).Error("load profile for role check", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
			return
		}
		if profile == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "profile required"})
			return
		}
		for _, a := range allowed {
			if profile.Role == a {
				c.Set(ctxRole, profile.Role)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// GetUserID returns the authenticated user ID from context (must be used after AuthRequired).
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// CurrentUser returns the authenticated caller, or nil outside AuthRequired.
func CurrentUser(c *gin.Context) *auth.User {
	id := GetUserID(c)
	if id == "" {
		return nil
	}
	return &auth.User{ID: id, Email: GetEmail(c)}
}
