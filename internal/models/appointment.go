package models

import "time"

// RequestStatus is the lifecycle state of an appointment request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusCancelled RequestStatus = "cancelled"
)

// AppointmentRequest is a student's reservation of a window.
type AppointmentRequest struct {
	ID          string        `db:"id" json:"id"`
	WindowID    string        `db:"window_id" json:"window_id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	ProfessorID string        `db:"professor_id" json:"professor_id"`
	Status      RequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// RequestDetail is a request joined with the counterpart's name and the window instants.
// CounterpartName is the student for professor listings and the professor for student listings.
type RequestDetail struct {
	AppointmentRequest
	CounterpartName string    `db:"counterpart_name" json:"counterpart_name"`
	StartTime       time.Time `db:"start_time" json:"start_time"`
	EndTime         time.Time `db:"end_time" json:"end_time"`
}

// RequestPartition splits a professor's requests by status. Cancelled rows appear in neither list.
type RequestPartition struct {
	Pending  []RequestDetail `json:"pending"`
	Approved []RequestDetail `json:"approved"`
}

// Partition splits rows by status equality, preserving order.
func Partition(rows []RequestDetail) RequestPartition {
	p := RequestPartition{Pending: []RequestDetail{}, Approved: []RequestDetail{}}
	for _, r := range rows {
		switch r.Status {
		case StatusPending:
			p.Pending = append(p.Pending, r)
		case StatusApproved:
			p.Approved = append(p.Approved, r)
		}
	}
	return p
}

// BookRequest reserves a window of a professor.
type BookRequest struct {
	ProfessorID string `json:"professor_id" validate:"required,uuid"`
	WindowID    string `json:"window_id" validate:"required,uuid"`
}

// Transition is a professor decision on a pending request.
type Transition string

const (
	TransitionApprove Transition = "approve"
	TransitionCancel  Transition = "cancel"
)

// Target returns the status a transition moves a pending request to.
func (t Transition) Target() RequestStatus {
	if t == TransitionApprove {
		return StatusApproved
	}
	return StatusCancelled
}
