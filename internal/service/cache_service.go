package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/officehours-api/pkg/errors"
	"github.com/noah-isme/officehours-api/pkg/fence"
)

// Cache keys for the booking lists.
const (
	ProfessorsKey         = "booking:professors"
	windowsKeyPrefix      = "booking:windows:"
	professorRequestsKey  = "booking:requests:professor:"
	studentRequestsKeyPfx = "booking:requests:student:"
)

// WindowsKey caches the windows of one professor.
func WindowsKey(professorID string) string { return windowsKeyPrefix + professorID }

// ProfessorRequestsKey caches the requests addressed to one professor.
func ProfessorRequestsKey(professorID string) string { return professorRequestsKey + professorID }

// StudentRequestsKey caches the requests made by one student.
func StudentRequestsKey(studentID string) string { return studentRequestsKeyPfx + studentID }

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CacheService fronts the list reads with Redis. Fills are fenced per key:
// a fill whose read began before the latest invalidation of its key is dropped.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
	seq     *fence.Sequencer
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled, seq: fence.NewSequencer()}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Ticket starts a read of key. Pass it to Fill once the rows are loaded.
func (s *CacheService) Ticket(key string) uint64 {
	if !s.Enabled() {
		return 0
	}
	return s.seq.Next(key)
}

// Get decodes the cached value into dest and reports whether the cache was hit.
// Backend failures are logged and reported as a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// Fill stores value under key unless the key was invalidated after ticket was issued.
// It reports whether the value was kept.
func (s *CacheService) Fill(ctx context.Context, key string, ticket uint64, value interface{}) bool {
	if !s.Enabled() {
		return false
	}
	if !s.seq.IsLatest(key, ticket) {
		s.metrics.RecordStaleFill()
		return false
	}

	start := time.Now()
	err := s.repo.Set(ctx, key, value, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return false
	}

	// An invalidation may have advanced the key while the write was in flight.
	if !s.seq.IsLatest(key, ticket) {
		s.metrics.RecordStaleFill()
		if err := s.repo.Delete(ctx, key); err != nil {
			s.logger.Warn("cache stale fill cleanup failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// Invalidate fences and removes keys. Outstanding tickets for them become stale first.
func (s *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if !s.Enabled() || len(keys) == 0 {
		return nil
	}
	s.seq.Advance(keys...)
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// cachedList reads key through the cache, loading and filling on a miss.
func cachedList[T any](ctx context.Context, cache *CacheService, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	var rows []T
	if cache.Get(ctx, key, &rows) {
		return rows, nil
	}
	ticket := cache.Ticket(key)
	rows, err := load(ctx)
	if err != nil {
		return nil, err
	}
	cache.Fill(ctx, key, ticket, rows)
	return rows, nil
}
