package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/internal/repository"
	appErrors "github.com/noah-isme/officehours-api/pkg/errors"
)

// memStore is an in-memory stand-in for the availability, directory and appointment repositories.
// It enforces the same claim rules as the SQL implementation.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]models.User
	windows  map[string]models.AvailabilityWindow
	deleted  map[string]bool
	requests map[string]models.AppointmentRequest
	order    int

	calls   int
	failAll error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]models.User{},
		windows:  map[string]models.AvailabilityWindow{},
		deleted:  map[string]bool{},
		requests: map[string]models.AppointmentRequest{},
	}
}

func (m *memStore) addAccount(role models.UserRole, name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.accounts[id] = models.User{ID: id, FullName: name, Role: role}
	return id
}

func (m *memStore) enter() error {
	m.calls++
	return m.failAll
}

func (m *memStore) ListByProfessor(ctx context.Context, professorID string) ([]models.AvailabilityWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	out := []models.AvailabilityWindow{}
	for _, w := range m.windows {
		if w.ProfessorID == professorID && !m.deleted[w.ID] {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) ListByProfessors(ctx context.Context, professorIDs []string) ([]models.AvailabilityWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, id := range professorIDs {
		wanted[id] = true
	}
	out := []models.AvailabilityWindow{}
	for _, w := range m.windows {
		if wanted[w.ProfessorID] && !m.deleted[w.ID] {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	window.ID = uuid.NewString()
	window.IsBooked = false
	m.windows[window.ID] = *window
	return nil
}

func (m *memStore) Delete(ctx context.Context, id, professorID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	w, ok := m.windows[id]
	if !ok || w.ProfessorID != professorID || m.deleted[id] {
		return nil, sql.ErrNoRows
	}
	if w.IsBooked {
		return nil, repository.ErrWindowBooked
	}
	seen := map[string]bool{}
	students := []string{}
	for _, r := range m.requests {
		if r.WindowID == id && !seen[r.StudentID] {
			seen[r.StudentID] = true
			students = append(students, r.StudentID)
		}
	}
	m.deleted[id] = true
	return students, nil
}

func (m *memStore) ListProfessors(ctx context.Context) ([]models.ProfessorAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	out := []models.ProfessorAvailability{}
	for _, a := range m.accounts {
		if a.Role == models.RoleProfessor {
			out = append(out, models.ProfessorAvailability{ID: a.ID, FullName: a.FullName})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (m *memStore) listRequests(match func(models.AppointmentRequest) bool, counterpart func(models.AppointmentRequest) string) []models.RequestDetail {
	out := []models.RequestDetail{}
	for _, r := range m.requests {
		if !match(r) {
			continue
		}
		w := m.windows[r.WindowID]
		out = append(out, models.RequestDetail{
			AppointmentRequest: r,
			CounterpartName:    m.accounts[counterpart(r)].FullName,
			StartTime:          w.StartTime,
			EndTime:            w.EndTime,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) ListByStudent(ctx context.Context, studentID string) ([]models.RequestDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	return m.listRequests(
		func(r models.AppointmentRequest) bool { return r.StudentID == studentID },
		func(r models.AppointmentRequest) string { return r.ProfessorID },
	), nil
}

func (m *memStore) Book(ctx context.Context, req *models.AppointmentRequest, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	w, ok := m.windows[req.WindowID]
	if !ok || m.deleted[w.ID] || w.ProfessorID != req.ProfessorID || w.IsBooked || !w.StartTime.After(now) {
		return repository.ErrWindowUnavailable
	}
	w.IsBooked = true
	m.windows[w.ID] = w

	m.order++
	req.ID = uuid.NewString()
	req.Status = models.StatusPending
	req.CreatedAt = now.Add(time.Duration(m.order) * time.Millisecond)
	req.UpdatedAt = req.CreatedAt
	m.requests[req.ID] = *req
	return nil
}

func (m *memStore) Transition(ctx context.Context, id, professorID string, status models.RequestStatus, now time.Time) (*models.AppointmentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	r, ok := m.requests[id]
	if !ok || r.ProfessorID != professorID {
		return nil, sql.ErrNoRows
	}
	if r.Status != models.StatusPending {
		return nil, repository.ErrNotPending
	}
	r.Status = status
	r.UpdatedAt = now
	m.requests[id] = r
	if status == models.StatusCancelled {
		w := m.windows[r.WindowID]
		w.IsBooked = false
		m.windows[w.ID] = w
	}
	return &r, nil
}

// professorRequestStore exposes the professor listing under the interface method name.
type professorRequestStore struct{ *memStore }

func (p professorRequestStore) ListByProfessor(ctx context.Context, professorID string) ([]models.RequestDetail, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(); err != nil {
		return nil, err
	}
	return p.listRequests(
		func(r models.AppointmentRequest) bool { return r.ProfessorID == professorID },
		func(r models.AppointmentRequest) string { return r.StudentID },
	), nil
}

// directoryAuthRepo also lists registered accounts in the memStore directory.
type directoryAuthRepo struct {
	*mockAuthRepo
	store *memStore
}

func (d directoryAuthRepo) Create(ctx context.Context, user *models.User) error {
	if err := d.mockAuthRepo.Create(ctx, user); err != nil {
		return err
	}
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.accounts[user.ID] = *user
	return nil
}

// memCache is an in-memory CacheRepository.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// recordingNotifier captures Notify calls.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

type notification struct {
	accounts []string
	keys     []string
}

func (n *recordingNotifier) Notify(accounts []string, keys []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{accounts: accounts, keys: keys})
}

var errBackend = errors.New("backend unavailable")
