package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/internal/service"
	appErrors "github.com/noah-isme/officehours-api/pkg/errors"
	"github.com/noah-isme/officehours-api/pkg/response"
)

// SessionHandler tells clients whether they may enter a role's area.
type SessionHandler struct{}

// NewSessionHandler creates a session handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Gate godoc
// @Summary Check area access
// @Description Returns allow, or redirect to /login when there is no session or the role differs
// @Tags Session
// @Produce json
// @Param role query string true "student or professor"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /session/gate [get]
func (h *SessionHandler) Gate(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	if !role.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "role must be student or professor"))
		return
	}

	response.JSON(c, http.StatusOK, service.Gate(claimsFromContext(c), role), nil)
}
