package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFields identifies who triggered a maintenance run in the logs.
func actorFields(c *gin.Context) (userID string, role models.UserRole) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "anonymous", ""
	}
	return claims.UserID, claims.Role
}
