package models

// LoginPath is where clients are sent when the gate denies access.
const LoginPath = "/login"

// GateOutcome is the verdict of the access gate.
type GateOutcome string

const (
	GateAllow    GateOutcome = "allow"
	GateRedirect GateOutcome = "redirect"
)

// GateDecision tells a client whether to render a role's area or go to the login page.
type GateDecision struct {
	Outcome    GateOutcome `json:"outcome"`
	RedirectTo string      `json:"redirect_to,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Allowed reports whether the decision lets the caller through.
func (d GateDecision) Allowed() bool {
	return d.Outcome == GateAllow
}
