package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/internal/repository"
	appErrors "github.com/noah-isme/officehours-api/pkg/errors"
)

type appointmentRepository interface {
	ListByProfessor(ctx context.Context, professorID string) ([]models.RequestDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.RequestDetail, error)
	Book(ctx context.Context, req *models.AppointmentRequest, now time.Time) error
	Transition(ctx context.Context, id, professorID string, status models.RequestStatus, now time.Time) (*models.AppointmentRequest, error)
}

// AppointmentServiceParams groups constructor dependencies.
type AppointmentServiceParams struct {
	Repo        appointmentRepository
	Validator   *validator.Validate
	Cache       *CacheService
	Invalidator *Invalidator
	Metrics     *MetricsService
	Logger      *zap.Logger
	Now         func() time.Time
}

// AppointmentService handles booking and the professor's decisions on requests.
type AppointmentService struct {
	repo        appointmentRepository
	validator   *validator.Validate
	cache       *CacheService
	invalidator *Invalidator
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewAppointmentService constructs the service.
func NewAppointmentService(p AppointmentServiceParams) *AppointmentService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &AppointmentService{
		repo:        p.Repo,
		validator:   p.Validator,
		cache:       p.Cache,
		invalidator: p.Invalidator,
		metrics:     p.Metrics,
		logger:      p.Logger,
		now:         p.Now,
	}
}

// ListForProfessor returns the professor's requests split into pending and approved.
func (s *AppointmentService) ListForProfessor(ctx context.Context, professorID string) (models.RequestPartition, error) {
	rows, err := s.professorRequests(ctx, professorID)
	if err != nil {
		return models.RequestPartition{}, err
	}
	return models.Partition(rows), nil
}

// ListApproved returns the professor's approved requests, newest first.
func (s *AppointmentService) ListApproved(ctx context.Context, professorID string) ([]models.RequestDetail, error) {
	partition, err := s.ListForProfessor(ctx, professorID)
	if err != nil {
		return nil, err
	}
	return partition.Approved, nil
}

// ListForStudent returns every request of the student with its status verbatim, newest first.
func (s *AppointmentService) ListForStudent(ctx context.Context, studentID string) ([]models.RequestDetail, error) {
	rows, err := cachedList(ctx, s.cache, StudentRequestsKey(studentID), func(ctx context.Context) ([]models.RequestDetail, error) {
		return s.repo.ListByStudent(ctx, studentID)
	})
	if err != nil {
		s.logger.Error("list student requests", zap.String("student_id", studentID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load requests")
	}
	return rows, nil
}

// Book reserves a window for the student. Only one booking per window can succeed.
func (s *AppointmentService) Book(ctx context.Context, studentID string, req models.BookRequest) (*models.AppointmentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "professor_id and window_id must be valid identifiers")
	}

	appointment := &models.AppointmentRequest{
		WindowID:    req.WindowID,
		StudentID:   studentID,
		ProfessorID: req.ProfessorID,
	}
	if err := s.repo.Book(ctx, appointment, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrWindowUnavailable) {
			s.metrics.RecordBookingAttempt(BookingOutcomeConflict)
			return nil, appErrors.Clone(appErrors.ErrConflict, "window is no longer available")
		}
		s.metrics.RecordBookingAttempt(BookingOutcomeError)
		s.logger.Error("book window", zap.String("window_id", req.WindowID), zap.String("student_id", studentID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to book window")
	}
	s.metrics.RecordBookingAttempt(BookingOutcomeBooked)

	keys := append(windowKeys(req.ProfessorID), requestKeys(req.ProfessorID, studentID)...)
	s.invalidator.Apply(ctx, []string{req.ProfessorID, studentID}, keys...)
	return appointment, nil
}

// Approve confirms a pending request and returns the refreshed partition.
func (s *AppointmentService) Approve(ctx context.Context, professorID, requestID string) (models.RequestPartition, error) {
	return s.transition(ctx, professorID, requestID, models.TransitionApprove)
}

// Cancel declines a pending request, releases its window and returns the refreshed partition.
func (s *AppointmentService) Cancel(ctx context.Context, professorID, requestID string) (models.RequestPartition, error) {
	return s.transition(ctx, professorID, requestID, models.TransitionCancel)
}

func (s *AppointmentService) transition(ctx context.Context, professorID, requestID string, t models.Transition) (models.RequestPartition, error) {
	if err := s.validator.Var(requestID, "required,uuid"); err != nil {
		return models.RequestPartition{}, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}

	target := t.Target()
	updated, err := s.repo.Transition(ctx, requestID, professorID, target, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.RequestPartition{}, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		case errors.Is(err, repository.ErrNotPending):
			return models.RequestPartition{}, appErrors.Clone(appErrors.ErrConflict, "request is no longer pending")
		default:
			s.logger.Error("transition request", zap.String("request_id", requestID), zap.String("to", string(target)), zap.Error(err))
			return models.RequestPartition{}, appErrors.Internal(err, "failed to update request")
		}
	}
	s.metrics.RecordTransition(string(target))

	keys := requestKeys(professorID, updated.StudentID)
	if target == models.StatusCancelled {
		keys = append(keys, windowKeys(professorID)...)
	}
	s.invalidator.Apply(ctx, []string{professorID, updated.StudentID}, keys...)

	return s.ListForProfessor(ctx, professorID)
}

func (s *AppointmentService) professorRequests(ctx context.Context, professorID string) ([]models.RequestDetail, error) {
	rows, err := cachedList(ctx, s.cache, ProfessorRequestsKey(professorID), func(ctx context.Context) ([]models.RequestDetail, error) {
		return s.repo.ListByProfessor(ctx, professorID)
	})
	if err != nil {
		s.logger.Error("list professor requests", zap.String("professor_id", professorID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load requests")
	}
	return rows, nil
}
