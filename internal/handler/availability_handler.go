package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officehours-api/internal/middleware"
	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/pkg/response"
)

type availabilityService interface {
	ListOwn(ctx context.Context, professorID string, visibleOnly bool) ([]models.WindowView, error)
	Create(ctx context.Context, professorID string, req models.CreateWindowRequest) (*models.WindowView, error)
	Delete(ctx context.Context, professorID, windowID string) error
	BrowseProfessors(ctx context.Context) ([]models.ProfessorAvailability, error)
}

// AvailabilityHandler exposes professor windows and the student-facing directory.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// List godoc
// @Summary List own availability windows
// @Tags Professor
// @Produce json
// @Param visible query bool false "Only bookable windows"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /professor/windows [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	visible, _ := strconv.ParseBool(c.DefaultQuery("visible", "false"))
	windows, err := h.service.ListOwn(c.Request.Context(), claims.UserID, visible)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, windows, gin.H{"count": len(windows)})
}

// Create godoc
// @Summary Publish an availability window
// @Tags Professor
// @Accept json
// @Produce json
// @Param payload body models.CreateWindowRequest true "Window"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /professor/windows [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req models.CreateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid window payload"))
		return
	}

	window, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetAuditResource(c, window.ID)
	response.Created(c, window)
}

// Delete godoc
// @Summary Remove an availability window
// @Tags Professor
// @Param id path string true "Window ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /professor/windows/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Professors godoc
// @Summary Browse professors with bookable windows
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/professors [get]
func (h *AvailabilityHandler) Professors(c *gin.Context) {
	professors, err := h.service.BrowseProfessors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, professors, nil)
}
