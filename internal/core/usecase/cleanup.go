package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/healthbot/knowledge-core/internal/core/domain"
	"github.com/healthbot/knowledge-core/internal/core/ports"
)

// CleanupUseCase tears down session state on explicit logout and on the
// periodic expiry sweep.
type CleanupUseCase struct {
	sessions    ports.SessionStore
	tasks       ports.TaskStore
	collections ports.CollectionStore
	ttl         time.Duration
}

func NewCleanupUseCase(
	sessions ports.SessionStore,
	tasks ports.TaskStore,
	collections ports.CollectionStore,
	ttl time.Duration,
) *CleanupUseCase {
	return &CleanupUseCase{
		sessions:    sessions,
		tasks:       tasks,
		collections: collections,
		ttl:         ttl,
	}
}

// DestroySession removes the session's collection files, metadata and
// task record. Destroying a session that never existed is not an error.
func (uc *CleanupUseCase) DestroySession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "destroy session", errors.New("empty session id"))
	}

	if err := uc.collections.RemoveSession(ctx, sessionID); err != nil {
		return fmt.Errorf("remove collection: %w", err)
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("delete session metadata: %w", err)
	}
	if err := uc.tasks.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// CleanupExpired destroys every session whose batch completed more than
// the TTL before now. One broken session does not stop the sweep; the
// count of destroyed sessions is returned alongside any errors.
func (uc *CleanupUseCase) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := uc.sessions.ListExpired(ctx, now.Add(-uc.ttl))
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}

	destroyed := 0
	var errs []error
	for _, meta := range expired {
		if err := uc.DestroySession(ctx, meta.SessionID); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", meta.SessionID, err))
			continue
		}
		destroyed++
	}
	return destroyed, errors.Join(errs...)
}
