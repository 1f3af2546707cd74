package models

import (
	"time"

	"github.com/noah-isme/officehours-api/pkg/timewindow"
)

// AvailabilityWindow is a bookable interval published by a professor.
type AvailabilityWindow struct {
	ID          string    `db:"id" json:"id"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	IsBooked    bool      `db:"is_booked" json:"is_booked"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Eligible reports whether the window is open for booking at now.
func (w AvailabilityWindow) Eligible(now time.Time) bool {
	return !w.IsBooked && !timewindow.IsExpired(w.StartTime, now)
}

// WindowView is a window annotated with its eligibility at response time.
type WindowView struct {
	AvailabilityWindow
	Eligible bool `json:"eligible"`
}

// FilterEligible keeps the windows that can still be booked at now, preserving order.
func FilterEligible(windows []AvailabilityWindow, now time.Time) []AvailabilityWindow {
	out := make([]AvailabilityWindow, 0, len(windows))
	for _, w := range windows {
		if w.Eligible(now) {
			out = append(out, w)
		}
	}
	return out
}

// CreateWindowRequest describes a new window as a calendar date plus two times of day.
type CreateWindowRequest struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Timezone  string `json:"timezone,omitempty"`
}

// ProfessorAvailability lists a professor with the windows a student may book.
type ProfessorAvailability struct {
	ID       string               `db:"id" json:"id"`
	FullName string               `db:"full_name" json:"full_name"`
	Windows  []AvailabilityWindow `db:"-" json:"windows"`
}
