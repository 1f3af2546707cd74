package models

// ProfessorDashboard aggregates what a professor sees after every refresh.
type ProfessorDashboard struct {
	Windows  []WindowView     `json:"windows"`
	Requests RequestPartition `json:"requests"`
}

// StudentDashboard aggregates the student's browse list and own requests.
type StudentDashboard struct {
	Professors []ProfessorAvailability `json:"professors"`
	Requests   []RequestDetail         `json:"requests"`
}
