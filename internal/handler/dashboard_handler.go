package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officehours-api/internal/middleware"
	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/pkg/response"
)

type dashboardService interface {
	Professor(ctx context.Context, professorID string) (*models.ProfessorDashboard, uint64, error)
	Student(ctx context.Context, studentID string) (*models.StudentDashboard, uint64, error)
}

// DashboardHandler serves the aggregated dashboards.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the dashboard handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Professor godoc
// @Summary Professor dashboard
// @Description Windows plus pending and approved requests. meta.sequence orders refreshes per caller.
// @Tags Professor
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /professor/dashboard [get]
func (h *DashboardHandler) Professor(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	dashboard, sequence, err := h.service.Professor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetMeta(c, "sequence", sequence)
	response.JSON(c, http.StatusOK, dashboard, middleware.ExtractMeta(c))
}

// Student godoc
// @Summary Student dashboard
// @Description Bookable professors plus the student's requests. meta.sequence orders refreshes per caller.
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	dashboard, sequence, err := h.service.Student(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetMeta(c, "sequence", sequence)
	response.JSON(c, http.StatusOK, dashboard, middleware.ExtractMeta(c))
}
