package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/officehours-api/internal/models"
	appErrors "github.com/noah-isme/officehours-api/pkg/errors"
	"github.com/noah-isme/officehours-api/pkg/export"
)

type approvedLister interface {
	ListApproved(ctx context.Context, professorID string) ([]models.RequestDetail, error)
}

// ExportFile is a rendered document ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders a professor's approved appointments as CSV or PDF.
type ExportService struct {
	requests approvedLister
	title    string
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs the service. Instants are printed in loc.
func NewExportService(requests approvedLister, title string, loc *time.Location, logger *zap.Logger) *ExportService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{requests: requests, title: title, loc: loc, logger: logger, now: time.Now}
}

// Approved renders the approved appointments of professorID in the requested format.
func (s *ExportService) Approved(ctx context.Context, professorID, format string) (*ExportFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	renderer, err := export.For(f)
	if err != nil {
		return nil, appErrors.Internal(err, "no renderer for format")
	}

	rows, err := s.requests.ListApproved(ctx, professorID)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   s.title,
		Headers: []string{"Student", "Date", "Start", "End", "Status"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		start := r.StartTime.In(s.loc)
		table.Rows = append(table.Rows, []string{
			r.CounterpartName,
			start.Format("2006-01-02"),
			start.Format("15:04"),
			r.EndTime.In(s.loc).Format("15:04"),
			string(r.Status),
		})
	}

	body, err := renderer.Render(table)
	if err != nil {
		s.logger.Error("render export", zap.String("professor_id", professorID), zap.String("format", string(f)), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("appointments-%s.%s", s.now().In(s.loc).Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
