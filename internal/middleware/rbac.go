package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/internal/service"
	appErrors "github.com/noah-isme/officehours-api/pkg/errors"
	"github.com/noah-isme/officehours-api/pkg/response"
)

// RequireRoles applies the access gate at route entry. A missing session is
// UNAUTHORIZED and a session of another role is FORBIDDEN; both carry the login redirect.
func RequireRoles(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		decision := service.Gate(claims, role)
		if decision.Allowed() {
			c.Next()
			return
		}

		SetMeta(c, "redirect_to", decision.RedirectTo)
		if claims == nil {
			abortWithMeta(c, appErrors.ErrUnauthorized)
			return
		}
		abortWithMeta(c, appErrors.Clone(appErrors.ErrForbidden, "this area requires the "+string(role)+" role"))
	}
}

func abortWithMeta(c *gin.Context, err *appErrors.Error) {
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(err.Status, response.Envelope{Error: err, Meta: ExtractMeta(c)})
}
