package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/officehours-api/internal/models"
)

const windowColumns = `id, professor_id, start_time, end_time, is_booked, created_at, updated_at`

// AvailabilityRepository persists professor availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByProfessor returns every window of the professor, earliest start first.
func (r *AvailabilityRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.AvailabilityWindow, error) {
	query := `SELECT ` + windowColumns + ` FROM availability_windows WHERE professor_id = $1 AND deleted_at IS NULL ORDER BY start_time ASC`
	windows := []models.AvailabilityWindow{}
	if err := r.db.SelectContext(ctx, &windows, query, professorID); err != nil {
		return nil, fmt.Errorf("list windows by professor: %w", err)
	}
	return windows, nil
}

// ListByProfessors returns the windows of several professors in one round trip, earliest start first.
func (r *AvailabilityRepository) ListByProfessors(ctx context.Context, professorIDs []string) ([]models.AvailabilityWindow, error) {
	windows := []models.AvailabilityWindow{}
	if len(professorIDs) == 0 {
		return windows, nil
	}
	query := `SELECT ` + windowColumns + ` FROM availability_windows WHERE professor_id = ANY($1) AND deleted_at IS NULL ORDER BY start_time ASC`
	if err := r.db.SelectContext(ctx, &windows, query, pq.Array(professorIDs)); err != nil {
		return nil, fmt.Errorf("list windows by professors: %w", err)
	}
	return windows, nil
}

// Create inserts a new unbooked window.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	window.CreatedAt = now
	window.UpdatedAt = now
	window.IsBooked = false

	const query = `INSERT INTO availability_windows (id, professor_id, start_time, end_time, is_booked, created_at, updated_at) VALUES (:id, :professor_id, :start_time, :end_time, :is_booked, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	return nil
}

// Delete retires an unbooked window owned by professorID. The row is kept with deleted_at set
// so requests that referenced it stay readable. It returns the students holding such requests.
// Unknown, foreign or already deleted windows yield sql.ErrNoRows; booked windows yield ErrWindowBooked.
func (r *AvailabilityRepository) Delete(ctx context.Context, id, professorID string) (students []string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete window tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var booked bool
	const lockQuery = `SELECT is_booked FROM availability_windows WHERE id = $1 AND professor_id = $2 AND deleted_at IS NULL FOR UPDATE`
	if err = tx.GetContext(ctx, &booked, lockQuery, id, professorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock window: %w", err)
	}
	if booked {
		return nil, ErrWindowBooked
	}

	students = []string{}
	if err = tx.SelectContext(ctx, &students, `SELECT DISTINCT student_id FROM appointment_requests WHERE window_id = $1`, id); err != nil {
		return nil, fmt.Errorf("list window students: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE availability_windows SET deleted_at = $2, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("delete window: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete window: %w", err)
	}
	return students, nil
}
