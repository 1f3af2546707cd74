package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officehours-api/internal/middleware"
	"github.com/noah-isme/officehours-api/internal/models"
	appErrors "github.com/noah-isme/officehours-api/pkg/errors"
	"github.com/noah-isme/officehours-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// requireClaims writes UNAUTHORIZED and returns nil when the request carries no session.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}

func invalidPayload(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
