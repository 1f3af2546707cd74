package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced to services. Missing rows are reported as sql.ErrNoRows.
var (
	ErrDuplicate         = errors.New("duplicate record")
	ErrWindowUnavailable = errors.New("window is no longer available")
	ErrWindowBooked      = errors.New("window is booked")
	ErrNotPending        = errors.New("request is not pending")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
