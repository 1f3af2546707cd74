package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/officehours-api/internal/models"
)

const requestColumns = `id, window_id, student_id, professor_id, status, created_at, updated_at`

const detailSelect = `SELECT r.id, r.window_id, r.student_id, r.professor_id, r.status, r.created_at, r.updated_at,
       a.full_name AS counterpart_name, w.start_time, w.end_time
FROM appointment_requests r
JOIN availability_windows w ON w.id = r.window_id`

// AppointmentRepository persists appointment requests and the booking transitions.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// ListByProfessor returns the professor's requests joined with student names, newest first.
func (r *AppointmentRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.RequestDetail, error) {
	query := detailSelect + `
JOIN accounts a ON a.id = r.student_id
WHERE r.professor_id = $1
ORDER BY r.created_at DESC`
	rows := []models.RequestDetail{}
	if err := r.db.SelectContext(ctx, &rows, query, professorID); err != nil {
		return nil, fmt.Errorf("list requests by professor: %w", err)
	}
	return rows, nil
}

// ListByStudent returns the student's requests joined with professor names, newest first.
func (r *AppointmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.RequestDetail, error) {
	query := detailSelect + `
JOIN accounts a ON a.id = r.professor_id
WHERE r.student_id = $1
ORDER BY r.created_at DESC`
	rows := []models.RequestDetail{}
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list requests by student: %w", err)
	}
	return rows, nil
}

// Book claims the window and inserts a pending request in one transaction.
// A window that is missing, deleted, foreign to the professor, expired at now or already claimed yields ErrWindowUnavailable.
func (r *AppointmentRepository) Book(ctx context.Context, req *models.AppointmentRequest, now time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const claim = `UPDATE availability_windows SET is_booked = TRUE, updated_at = $4
WHERE id = $1 AND professor_id = $2 AND is_booked = FALSE AND deleted_at IS NULL AND start_time > $3`
	res, err := tx.ExecContext(ctx, claim, req.WindowID, req.ProfessorID, now, now)
	if err != nil {
		return fmt.Errorf("claim window: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim window rows: %w", err)
	}
	if affected == 0 {
		return ErrWindowUnavailable
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.StatusPending
	req.CreatedAt = now
	req.UpdatedAt = now

	const insert = `INSERT INTO appointment_requests (id, window_id, student_id, professor_id, status, created_at, updated_at) VALUES (:id, :window_id, :student_id, :professor_id, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, req); err != nil {
		if isUniqueViolation(err) {
			return ErrWindowUnavailable
		}
		return fmt.Errorf("insert request: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// Transition moves a pending request owned by professorID to status.
// Cancelling releases the window in the same transaction.
// Unknown or foreign requests yield sql.ErrNoRows; non-pending ones yield ErrNotPending.
func (r *AppointmentRepository) Transition(ctx context.Context, id, professorID string, status models.RequestStatus, now time.Time) (_ *models.AppointmentRequest, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `UPDATE appointment_requests SET status = $3, updated_at = $4
WHERE id = $1 AND professor_id = $2 AND status = $5
RETURNING ` + requestColumns
	var updated models.AppointmentRequest
	err = tx.GetContext(ctx, &updated, query, id, professorID, status, now, models.StatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		var current models.RequestStatus
		lookupErr := tx.GetContext(ctx, &current, `SELECT status FROM appointment_requests WHERE id = $1 AND professor_id = $2`, id, professorID)
		switch {
		case errors.Is(lookupErr, sql.ErrNoRows):
			return nil, sql.ErrNoRows
		case lookupErr != nil:
			return nil, fmt.Errorf("lookup request: %w", lookupErr)
		default:
			return nil, ErrNotPending
		}
	}
	if err != nil {
		return nil, fmt.Errorf("update request status: %w", err)
	}

	if status == models.StatusCancelled {
		if _, err = tx.ExecContext(ctx, `UPDATE availability_windows SET is_booked = FALSE, updated_at = $2 WHERE id = $1`, updated.WindowID, now); err != nil {
			return nil, fmt.Errorf("release window: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return &updated, nil
}
