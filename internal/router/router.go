package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/officehours-api/internal/handler"
	"github.com/noah-isme/officehours-api/internal/middleware"
	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/internal/service"
)

// Handlers groups every HTTP handler mounted by Setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Session      *handler.SessionHandler
	Availability *handler.AvailabilityHandler
	Appointment  *handler.AppointmentHandler
	Dashboard    *handler.DashboardHandler
	Metrics      *handler.MetricsHandler
	Hub          *handler.Hub
}

// Deps carries the cross-cutting collaborators used by the route middleware.
type Deps struct {
	Tokens      middleware.TokenValidator
	Audit       middleware.AuditRecorder
	AuthLimiter *middleware.RateLimiter
	Metrics     *service.MetricsService
	Logger      *zap.Logger
}

// Setup mounts the API under prefix plus the unversioned operational endpoints.
func Setup(r *gin.Engine, prefix string, h Handlers, d Deps) {
	r.Use(middleware.Metrics(d.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	{
		limited := auth.Group("", middleware.RateLimit(d.AuthLimiter))
		limited.POST("/register", h.Auth.Register)
		limited.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)

		private := auth.Group("", middleware.JWT(d.Tokens))
		private.POST("/logout", h.Auth.Logout)
		private.GET("/me", h.Auth.Me)
	}

	api.GET("/session/gate", middleware.OptionalJWT(d.Tokens), h.Session.Gate)

	if h.Hub != nil {
		api.GET("/ws", middleware.WebsocketJWT(d.Tokens), h.Hub.Serve)
	}

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(d.Audit, d.Logger, action, resource)
	}

	professor := api.Group("/professor", middleware.OptionalJWT(d.Tokens), middleware.RequireRoles(models.RoleProfessor))
	{
		professor.GET("/dashboard", h.Dashboard.Professor)
		professor.GET("/windows", h.Availability.List)
		professor.POST("/windows", audit(models.AuditActionWindowCreate, "availability_window"), h.Availability.Create)
		professor.DELETE("/windows/:id", audit(models.AuditActionWindowDelete, "availability_window"), h.Availability.Delete)
		professor.GET("/requests", h.Appointment.ProfessorRequests)
		professor.GET("/requests/export", h.Appointment.Export)
		professor.POST("/requests/:id/approve", audit(models.AuditActionRequestApprove, "appointment_request"), h.Appointment.Approve)
		professor.POST("/requests/:id/cancel", audit(models.AuditActionRequestCancel, "appointment_request"), h.Appointment.Cancel)
	}

	student := api.Group("/student", middleware.OptionalJWT(d.Tokens), middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/dashboard", h.Dashboard.Student)
		student.GET("/professors", h.Availability.Professors)
		student.GET("/requests", h.Appointment.StudentRequests)
		student.POST("/bookings", audit(models.AuditActionBook, "appointment_request"), h.Appointment.Book)
	}
}
