package service

import (
	"context"

	"go.uber.org/zap"
)

// ChangeNotifier is told which cache keys changed for which accounts.
type ChangeNotifier interface {
	Notify(accounts []string, keys []string)
}

// Invalidator applies the post-mutation step shared by every write: drop the
// affected cache keys, then tell connected clients to refetch.
type Invalidator struct {
	cache    *CacheService
	notifier ChangeNotifier
	logger   *zap.Logger
}

// NewInvalidator constructs an Invalidator. Both collaborators are optional.
func NewInvalidator(cache *CacheService, notifier ChangeNotifier, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{cache: cache, notifier: notifier, logger: logger}
}

// Apply invalidates keys and notifies accounts. Failures are logged, never returned:
// the mutation has already committed.
func (i *Invalidator) Apply(ctx context.Context, accounts []string, keys ...string) {
	if i == nil {
		return
	}
	if err := i.cache.Invalidate(ctx, keys...); err != nil {
		i.logger.Warn("invalidate after mutation failed", zap.Strings("keys", keys), zap.Error(err))
	}
	if i.notifier != nil {
		i.notifier.Notify(accounts, keys)
	}
}

func windowKeys(professorID string) []string {
	return []string{WindowsKey(professorID), ProfessorsKey}
}

func requestKeys(professorID, studentID string) []string {
	return []string{ProfessorRequestsKey(professorID), StudentRequestsKey(studentID)}
}
