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
	"github.com/noah-isme/officehours-api/pkg/timewindow"
)

type availabilityRepository interface {
	ListByProfessor(ctx context.Context, professorID string) ([]models.AvailabilityWindow, error)
	ListByProfessors(ctx context.Context, professorIDs []string) ([]models.AvailabilityWindow, error)
	Create(ctx context.Context, window *models.AvailabilityWindow) error
	Delete(ctx context.Context, id, professorID string) ([]string, error)
}

type professorDirectory interface {
	ListProfessors(ctx context.Context) ([]models.ProfessorAvailability, error)
}

// AvailabilityServiceParams groups constructor dependencies.
type AvailabilityServiceParams struct {
	Repo        availabilityRepository
	Directory   professorDirectory
	Validator   *validator.Validate
	Cache       *CacheService
	Invalidator *Invalidator
	Logger      *zap.Logger
	Location    *time.Location
	Now         func() time.Time
}

// AvailabilityService manages professor windows and the student browse list.
type AvailabilityService struct {
	repo        availabilityRepository
	directory   professorDirectory
	validator   *validator.Validate
	cache       *CacheService
	invalidator *Invalidator
	logger      *zap.Logger
	loc         *time.Location
	now         func() time.Time
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(p AvailabilityServiceParams) *AvailabilityService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Location == nil {
		p.Location = time.Local
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &AvailabilityService{
		repo:        p.Repo,
		directory:   p.Directory,
		validator:   p.Validator,
		cache:       p.Cache,
		invalidator: p.Invalidator,
		logger:      p.Logger,
		loc:         p.Location,
		now:         p.Now,
	}
}

// ListOwn returns the professor's windows by start time, each flagged with its eligibility.
// visibleOnly drops booked and expired windows.
func (s *AvailabilityService) ListOwn(ctx context.Context, professorID string, visibleOnly bool) ([]models.WindowView, error) {
	windows, err := s.windows(ctx, professorID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]models.WindowView, 0, len(windows))
	for _, w := range windows {
		eligible := w.Eligible(now)
		if visibleOnly && !eligible {
			continue
		}
		views = append(views, models.WindowView{AvailabilityWindow: w, Eligible: eligible})
	}
	return views, nil
}

// Create publishes a window built from a date and two times of day.
func (s *AvailabilityService) Create(ctx context.Context, professorID string, req models.CreateWindowRequest) (*models.WindowView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date, start_time and end_time are required")
	}

	loc := s.loc
	if req.Timezone != "" {
		tz, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown timezone")
		}
		loc = tz
	}

	start, err := timewindow.Compose(req.Date, req.StartTime, loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	end, err := timewindow.Compose(req.Date, req.EndTime, loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	now := s.now()
	if timewindow.IsExpired(start, now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot create availability in the past")
	}
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}

	window := &models.AvailabilityWindow{ProfessorID: professorID, StartTime: start.UTC(), EndTime: end.UTC()}
	if err := s.repo.Create(ctx, window); err != nil {
		s.logger.Error("create window", zap.String("professor_id", professorID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create availability")
	}

	s.invalidator.Apply(ctx, []string{professorID}, windowKeys(professorID)...)
	return &models.WindowView{AvailabilityWindow: *window, Eligible: window.Eligible(now)}, nil
}

// Delete retires an unbooked window of the professor. Requests that referenced it are kept.
func (s *AvailabilityService) Delete(ctx context.Context, professorID, windowID string) error {
	if err := s.validator.Var(windowID, "required,uuid"); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "availability not found")
	}

	students, err := s.repo.Delete(ctx, windowID, professorID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "availability not found")
		case errors.Is(err, repository.ErrWindowBooked):
			return appErrors.Clone(appErrors.ErrConflict, "availability has an active request")
		default:
			s.logger.Error("delete window", zap.String("window_id", windowID), zap.Error(err))
			return appErrors.Internal(err, "failed to delete availability")
		}
	}

	keys := append(windowKeys(professorID), ProfessorRequestsKey(professorID))
	for _, student := range students {
		keys = append(keys, StudentRequestsKey(student))
	}
	s.invalidator.Apply(ctx, append([]string{professorID}, students...), keys...)
	return nil
}

// BrowseProfessors lists every professor with the windows a student may book now.
// Professors without an eligible window are kept with an empty list.
func (s *AvailabilityService) BrowseProfessors(ctx context.Context) ([]models.ProfessorAvailability, error) {
	professors, err := cachedList(ctx, s.cache, ProfessorsKey, s.loadProfessors)
	if err != nil {
		s.logger.Error("browse professors", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load professors")
	}

	now := s.now()
	out := make([]models.ProfessorAvailability, len(professors))
	for i, p := range professors {
		out[i] = models.ProfessorAvailability{ID: p.ID, FullName: p.FullName, Windows: models.FilterEligible(p.Windows, now)}
	}
	return out, nil
}

func (s *AvailabilityService) windows(ctx context.Context, professorID string) ([]models.AvailabilityWindow, error) {
	windows, err := cachedList(ctx, s.cache, WindowsKey(professorID), func(ctx context.Context) ([]models.AvailabilityWindow, error) {
		return s.repo.ListByProfessor(ctx, professorID)
	})
	if err != nil {
		s.logger.Error("list windows", zap.String("professor_id", professorID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load availability")
	}
	return windows, nil
}

func (s *AvailabilityService) loadProfessors(ctx context.Context) ([]models.ProfessorAvailability, error) {
	professors, err := s.directory.ListProfessors(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(professors))
	for i, p := range professors {
		ids[i] = p.ID
	}
	windows, err := s.repo.ListByProfessors(ctx, ids)
	if err != nil {
		return nil, err
	}

	byProfessor := make(map[string][]models.AvailabilityWindow, len(professors))
	for _, w := range windows {
		byProfessor[w.ProfessorID] = append(byProfessor[w.ProfessorID], w)
	}
	for i := range professors {
		professors[i].Windows = byProfessor[professors[i].ID]
		if professors[i].Windows == nil {
			professors[i].Windows = []models.AvailabilityWindow{}
		}
	}
	return professors, nil
}
