package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/pkg/fence"
)

type windowLister interface {
	ListOwn(ctx context.Context, professorID string, visibleOnly bool) ([]models.WindowView, error)
	BrowseProfessors(ctx context.Context) ([]models.ProfessorAvailability, error)
}

type requestLister interface {
	ListForProfessor(ctx context.Context, professorID string) (models.RequestPartition, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.RequestDetail, error)
}

// DashboardService composes the per-role dashboards. Every refresh is stamped with a
// per-account sequence so clients can drop responses that arrive out of order.
type DashboardService struct {
	windows  windowLister
	requests requestLister
	seq      *fence.Sequencer
	logger   *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(windows windowLister, requests requestLister, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{windows: windows, requests: requests, seq: fence.NewSequencer(), logger: logger}
}

// Professor refreshes the professor dashboard. Any failed child aborts the whole refresh.
func (s *DashboardService) Professor(ctx context.Context, professorID string) (*models.ProfessorDashboard, uint64, error) {
	sequence := s.seq.Next(professorID)
	var dash models.ProfessorDashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		windows, err := s.windows.ListOwn(gctx, professorID, false)
		dash.Windows = windows
		return err
	})
	g.Go(func() error {
		partition, err := s.requests.ListForProfessor(gctx, professorID)
		dash.Requests = partition
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("professor dashboard refresh aborted", zap.String("professor_id", professorID), zap.Uint64("sequence", sequence), zap.Error(err))
		return nil, sequence, err
	}
	return &dash, sequence, nil
}

// Student refreshes the student dashboard. Any failed child aborts the whole refresh.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*models.StudentDashboard, uint64, error) {
	sequence := s.seq.Next(studentID)
	var dash models.StudentDashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		professors, err := s.windows.BrowseProfessors(gctx)
		dash.Professors = professors
		return err
	})
	g.Go(func() error {
		requests, err := s.requests.ListForStudent(gctx, studentID)
		dash.Requests = requests
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("student dashboard refresh aborted", zap.String("student_id", studentID), zap.Uint64("sequence", sequence), zap.Error(err))
		return nil, sequence, err
	}
	return &dash, sequence, nil
}
