package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/officehours-api/internal/models"
	"github.com/noah-isme/officehours-api/pkg/jobs"
)

const jobTypeInvalidate = "invalidate"

// Broadcaster delivers an encoded event to the open connections of accounts.
// A nil accounts slice addresses every connection.
type Broadcaster interface {
	Deliver(accounts []string, payload []byte) error
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// RealtimeService pushes invalidation events to connected clients through a background queue.
type RealtimeService struct {
	queue   jobQueue
	logger  *zap.Logger
	metrics *MetricsService
	now     func() time.Time
}

// NewRealtimeService builds the notifier. Attach a queue whose handler is Handler(broadcaster).
func NewRealtimeService(logger *zap.Logger, metrics *MetricsService) *RealtimeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeService{logger: logger, metrics: metrics, now: time.Now}
}

// Attach sets the queue events are published on.
func (s *RealtimeService) Attach(queue jobQueue) {
	s.queue = queue
}

// Handler returns the queue handler that hands events to broadcaster.
func (s *RealtimeService) Handler(broadcaster Broadcaster) jobs.Handler {
	return func(_ context.Context, job jobs.Job) error {
		event, ok := job.Payload.(models.InvalidationEvent)
		if !ok {
			s.logger.Error("unexpected realtime payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
			return nil
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode invalidation event: %w", err)
		}
		if err := broadcaster.Deliver(event.Accounts, payload); err != nil {
			s.metrics.RecordRealtimeEvent("failed")
			return err
		}
		s.metrics.RecordRealtimeEvent("delivered")
		return nil
	}
}

// Notify tells accounts that keys changed. Keys shared by every student
// are broadcast separately so per-account keys never reach other accounts.
func (s *RealtimeService) Notify(accounts []string, keys []string) {
	if s == nil || s.queue == nil || len(keys) == 0 {
		return
	}

	var private, shared []string
	for _, key := range keys {
		if key == ProfessorsKey {
			shared = append(shared, key)
			continue
		}
		private = append(private, key)
	}

	at := s.now().UTC()
	if len(private) > 0 && len(accounts) > 0 {
		s.enqueue(models.InvalidationEvent{Type: models.EventTypeInvalidate, Keys: private, At: at, Accounts: accounts})
	}
	if len(shared) > 0 {
		s.enqueue(models.InvalidationEvent{Type: models.EventTypeInvalidate, Keys: shared, At: at})
	}
}

func (s *RealtimeService) enqueue(event models.InvalidationEvent) {
	job := jobs.Job{ID: uuid.NewString(), Type: jobTypeInvalidate, Payload: event}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordRealtimeEvent("dropped")
		s.logger.Warn("realtime event dropped", zap.Strings("keys", event.Keys), zap.Error(err))
	}
}
