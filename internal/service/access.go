package service

import "github.com/noah-isme/officehours-api/internal/models"

// Gate decides whether a session may enter the area of the required role.
// No session, or a session of another role, is sent to the login page.
func Gate(claims *models.JWTClaims, required models.UserRole) models.GateDecision {
	switch {
	case claims == nil || claims.UserID == "":
		return models.GateDecision{Outcome: models.GateRedirect, RedirectTo: models.LoginPath, Reason: "no session"}
	case claims.Role != required:
		return models.GateDecision{Outcome: models.GateRedirect, RedirectTo: models.LoginPath, Reason: "role mismatch"}
	default:
		return models.GateDecision{Outcome: models.GateAllow}
	}
}
