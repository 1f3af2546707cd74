package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officehours-api/internal/models"
	appErrors "github.com/noah-isme/officehours-api/pkg/errors"
)

func TestProfessorDashboardAggregates(t *testing.T) {
	f := newBookingFixture(t, true)
	prof := f.store.addAccount(models.RoleProfessor, "Ada")
	student := f.store.addAccount(models.RoleStudent, "Sam")
	w := f.createWindow(t, prof, "2026-03-11", "09:00", "10:00")
	f.createWindow(t, prof, "2026-03-12", "09:00", "10:00")
	_, err := f.appointments.Book(context.Background(), student, models.BookRequest{ProfessorID: prof, WindowID: w.ID})
	require.NoError(t, err)

	svc := NewDashboardService(f.availability, f.appointments, nil)
	dash, seq, err := svc.Professor(context.Background(), prof)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
	assert.Len(t, dash.Windows, 2)
	assert.False(t, dash.Windows[0].Eligible)
	assert.True(t, dash.Windows[1].Eligible)
	assert.Len(t, dash.Requests.Pending, 1)
	assert.Empty(t, dash.Requests.Approved)
}

func TestStudentDashboardAggregates(t *testing.T) {
	f := newBookingFixture(t, false)
	prof := f.store.addAccount(models.RoleProfessor, "Ada")
	student := f.store.addAccount(models.RoleStudent, "Sam")
	f.createWindow(t, prof, "2026-03-11", "09:00", "10:00")

	svc := NewDashboardService(f.availability, f.appointments, nil)
	dash, _, err := svc.Student(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, dash.Professors, 1)
	assert.Len(t, dash.Professors[0].Windows, 1)
	assert.Empty(t, dash.Requests)
}

func TestDashboardSequenceIsPerAccountAndMonotonic(t *testing.T) {
	f := newBookingFixture(t, false)
	svc := NewDashboardService(f.availability, f.appointments, nil)

	_, first, err := svc.Student(context.Background(), "s1")
	require.NoError(t, err)
	_, second, err := svc.Student(context.Background(), "s1")
	require.NoError(t, err)
	_, other, err := svc.Student(context.Background(), "s2")
	require.NoError(t, err)

	assert.Less(t, first, second)
	assert.Equal(t, uint64(1), other)
}

func TestDashboardRefreshAbortsOnChildFailure(t *testing.T) {
	f := newBookingFixture(t, false)
	f.store.failAll = errBackend
	svc := NewDashboardService(f.availability, f.appointments, nil)

	dash, seq, err := svc.Professor(context.Background(), "p1")
	assert.Nil(t, dash)
	assert.Equal(t, uint64(1), seq)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
