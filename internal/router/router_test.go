package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officehours-api/internal/handler"
	"github.com/noah-isme/officehours-api/internal/middleware"
	"github.com/noah-isme/officehours-api/internal/models"
	appErrors "github.com/noah-isme/officehours-api/pkg/errors"
)

type tokenTable map[string]*models.JWTClaims

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Setup(r, "/api/v1", Handlers{
		Auth:         handler.NewAuthHandler(nil),
		Session:      handler.NewSessionHandler(),
		Availability: handler.NewAvailabilityHandler(nil),
		Appointment:  handler.NewAppointmentHandler(nil, nil),
		Dashboard:    handler.NewDashboardHandler(nil),
		Metrics:      handler.NewMetricsHandler(nil, nil),
	}, Deps{
		Tokens: tokenTable{
			"prof":    {UserID: "p1", Role: models.RoleProfessor},
			"student": {UserID: "s1", Role: models.RoleStudent},
		},
		AuthLimiter: middleware.NewRateLimiter(0.001, 1),
	})
	return r
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRoleAreasAreGated(t *testing.T) {
	r := newEngine()
	cases := []struct {
		method string
		path   string
		token  string
		status int
	}{
		{http.MethodGet, "/api/v1/professor/windows", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/professor/dashboard", "student", http.StatusForbidden},
		{http.MethodPost, "/api/v1/professor/requests/r1/approve", "student", http.StatusForbidden},
		{http.MethodGet, "/api/v1/student/professors", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/student/bookings", "prof", http.StatusForbidden},
		{http.MethodGet, "/api/v1/auth/me", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := serve(r, tc.method, tc.path, tc.token)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestSessionGateIsPublic(t *testing.T) {
	rec := serve(newEngine(), http.MethodGet, "/api/v1/session/gate?role=student", "prof")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data models.GateDecision `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, models.GateRedirect, env.Data.Outcome)
	assert.Equal(t, models.LoginPath, env.Data.RedirectTo)
}

func TestLoginIsRateLimited(t *testing.T) {
	r := newEngine()
	first := serve(r, http.MethodPost, "/api/v1/auth/login", "")
	second := serve(r, http.MethodPost, "/api/v1/auth/login", "")

	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	r := newEngine()
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, "/metrics", "").Code)
}
