package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officehours-api/internal/middleware"
	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/internal/service"
)

type responseEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func newContext(method, target string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewReader(raw)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

var (
	professorClaims = &models.JWTClaims{UserID: "prof-1", Role: models.RoleProfessor, FullName: "Dr. Ada"}
	studentClaims   = &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent, FullName: "Sam"}
)

type fakeAuthService struct {
	registered models.RegisterRequest
	loggedOut  string
	response   *models.LoginResponse
	err        error
}

func (f *fakeAuthService) Register(_ context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	f.registered = req
	return f.response, f.err
}

func (f *fakeAuthService) Login(context.Context, models.LoginRequest) (*models.LoginResponse, error) {
	return f.response, f.err
}

func (f *fakeAuthService) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.LoginResponse, error) {
	return f.response, f.err
}

func (f *fakeAuthService) Logout(_ context.Context, userID string, _ models.RefreshTokenRequest) error {
	f.loggedOut = userID
	return f.err
}

func (f *fakeAuthService) Me(_ context.Context, userID string) (*models.UserInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.UserInfo{ID: userID, FullName: "Dr. Ada", Role: models.RoleProfessor}, nil
}

type fakeAvailabilityService struct {
	windows    []models.WindowView
	visible    bool
	created    models.CreateWindowRequest
	deletedID  string
	professors []models.ProfessorAvailability
	err        error
}

func (f *fakeAvailabilityService) ListOwn(_ context.Context, _ string, visibleOnly bool) ([]models.WindowView, error) {
	f.visible = visibleOnly
	return f.windows, f.err
}

func (f *fakeAvailabilityService) Create(_ context.Context, professorID string, req models.CreateWindowRequest) (*models.WindowView, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.WindowView{AvailabilityWindow: models.AvailabilityWindow{ID: "w-new", ProfessorID: professorID}, Eligible: true}, nil
}

func (f *fakeAvailabilityService) Delete(_ context.Context, _ string, windowID string) error {
	f.deletedID = windowID
	return f.err
}

func (f *fakeAvailabilityService) BrowseProfessors(context.Context) ([]models.ProfessorAvailability, error) {
	return f.professors, f.err
}

type fakeAppointmentService struct {
	partition  models.RequestPartition
	student    []models.RequestDetail
	booked     models.BookRequest
	transition string
	err        error
}

func (f *fakeAppointmentService) ListForProfessor(context.Context, string) (models.RequestPartition, error) {
	return f.partition, f.err
}

func (f *fakeAppointmentService) ListForStudent(context.Context, string) ([]models.RequestDetail, error) {
	return f.student, f.err
}

func (f *fakeAppointmentService) Book(_ context.Context, studentID string, req models.BookRequest) (*models.AppointmentRequest, error) {
	f.booked = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.AppointmentRequest{ID: "r-new", StudentID: studentID, ProfessorID: req.ProfessorID, WindowID: req.WindowID, Status: models.StatusPending}, nil
}

func (f *fakeAppointmentService) Approve(_ context.Context, _ string, requestID string) (models.RequestPartition, error) {
	f.transition = "approve:" + requestID
	return f.partition, f.err
}

func (f *fakeAppointmentService) Cancel(_ context.Context, _ string, requestID string) (models.RequestPartition, error) {
	f.transition = "cancel:" + requestID
	return f.partition, f.err
}

type fakeExporter struct {
	format string
	err    error
}

func (f *fakeExporter) Approved(_ context.Context, _ string, format string) (*service.ExportFile, error) {
	f.format = format
	if f.err != nil {
		return nil, f.err
	}
	return &service.ExportFile{Filename: "appointments-20990101.csv", ContentType: "text/csv", Body: []byte("Student,Date\n")}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }
