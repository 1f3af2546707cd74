package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officehours-api/internal/middleware"
	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/internal/service"
	"github.com/noah-isme/officehours-api/pkg/response"
)

type appointmentService interface {
	ListForProfessor(ctx context.Context, professorID string) (models.RequestPartition, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.RequestDetail, error)
	Book(ctx context.Context, studentID string, req models.BookRequest) (*models.AppointmentRequest, error)
	Approve(ctx context.Context, professorID, requestID string) (models.RequestPartition, error)
	Cancel(ctx context.Context, professorID, requestID string) (models.RequestPartition, error)
}

type scheduleExporter interface {
	Approved(ctx context.Context, professorID, format string) (*service.ExportFile, error)
}

// AppointmentHandler manages appointment requests for both roles.
type AppointmentHandler struct {
	service  appointmentService
	exporter scheduleExporter
}

// NewAppointmentHandler constructs an appointment handler.
func NewAppointmentHandler(svc appointmentService, exporter scheduleExporter) *AppointmentHandler {
	return &AppointmentHandler{service: svc, exporter: exporter}
}

// ProfessorRequests godoc
// @Summary List incoming requests
// @Description Pending and approved requests for the signed-in professor
// @Tags Professor
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /professor/requests [get]
func (h *AppointmentHandler) ProfessorRequests(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	partition, err := h.service.ListForProfessor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, partition, nil)
}

// Approve godoc
// @Summary Approve a pending request
// @Tags Professor
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /professor/requests/{id}/approve [post]
func (h *AppointmentHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Cancel godoc
// @Summary Cancel a pending request
// @Description Cancelling frees the window for booking again
// @Tags Professor
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /professor/requests/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *AppointmentHandler) transition(c *gin.Context, apply func(context.Context, string, string) (models.RequestPartition, error)) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	partition, err := apply(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, partition, nil)
}

// Export godoc
// @Summary Export approved appointments
// @Tags Professor
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /professor/requests/export [get]
func (h *AppointmentHandler) Export(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	file, err := h.exporter.Approved(c.Request.Context(), claims.UserID, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.File(c, file.Filename, file.ContentType, file.Body)
}

// StudentRequests godoc
// @Summary List own requests
// @Description Every request of the signed-in student with its current status
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/requests [get]
func (h *AppointmentHandler) StudentRequests(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	requests, err := h.service.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, gin.H{"count": len(requests)})
}

// Book godoc
// @Summary Book an availability window
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body models.BookRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/bookings [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req models.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid booking payload"))
		return
	}

	request, err := h.service.Book(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetAuditResource(c, request.ID)
	response.Created(c, request)
}
