package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/healthbot/knowledge-core/internal/core/domain"
)

func newCleanupFixture(ttl time.Duration) (*CleanupUseCase, *sessionStoreFake, *taskStoreFake, *collectionStoreFake) {
	sessions := newSessionStoreFake()
	tasks := newTaskStoreFake()
	store := newCollectionStoreFake()
	return NewCleanupUseCase(sessions, tasks, store, ttl), sessions, tasks, store
}

func TestDestroySessionRemovesAllState(t *testing.T) {
	uc, sessions, tasks, store := newCleanupFixture(24 * time.Hour)
	sessions.saved["sess-1"] = domain.SessionMeta{SessionID: "sess-1"}
	tasks.tasks["sess-1"] = domain.IngestTask{SessionID: "sess-1", Status: domain.StatusCompleted}

	if err := uc.DestroySession(context.Background(), "sess-1"); err != nil {
		t.Fatalf("DestroySession: %v", err)
	}
	if len(store.removed) != 1 || store.removed[0] != "sess-1" {
		t.Fatalf("removed collections = %v", store.removed)
	}
	if _, ok := sessions.saved["sess-1"]; ok {
		t.Fatal("session metadata survived destroy")
	}
	if _, ok := tasks.tasks["sess-1"]; ok {
		t.Fatal("task survived destroy")
	}
}

func TestDestroySessionUnknownIsNoError(t *testing.T) {
	uc, _, _, _ := newCleanupFixture(24 * time.Hour)

	if err := uc.DestroySession(context.Background(), "never-seen"); err != nil {
		t.Fatalf("DestroySession on unknown session: %v", err)
	}
}

func TestDestroySessionRequiresID(t *testing.T) {
	uc, _, _, _ := newCleanupFixture(24 * time.Hour)

	if err := uc.DestroySession(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCleanupExpiredDestroysEachExpiredSession(t *testing.T) {
	uc, sessions, _, store := newCleanupFixture(24 * time.Hour)
	sessions.expired = []domain.SessionMeta{
		{SessionID: "old-1"},
		{SessionID: "old-2"},
	}
	sessions.saved["old-1"] = domain.SessionMeta{SessionID: "old-1"}
	sessions.saved["old-2"] = domain.SessionMeta{SessionID: "old-2"}

	destroyed, err := uc.CleanupExpired(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if destroyed != 2 {
		t.Fatalf("destroyed = %d, want 2", destroyed)
	}
	if len(store.removed) != 2 {
		t.Fatalf("removed collections = %v", store.removed)
	}
}

func TestCleanupExpiredContinuesPastFailures(t *testing.T) {
	uc, sessions, _, store := newCleanupFixture(24 * time.Hour)
	sessions.expired = []domain.SessionMeta{
		{SessionID: "broken"},
		{SessionID: "fine"},
	}
	store.removeErr = errors.New("permission denied")

	destroyed, err := uc.CleanupExpired(context.Background(), time.Now().UTC())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if destroyed != 0 {
		t.Fatalf("destroyed = %d, want 0", destroyed)
	}

	store.removeErr = nil
	destroyed, err = uc.CleanupExpired(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if destroyed != 2 {
		t.Fatalf("retry destroyed = %d, want 2", destroyed)
	}
}

func TestCleanupExpiredListFailure(t *testing.T) {
	uc, sessions, _, _ := newCleanupFixture(24 * time.Hour)
	sessions.listErr = errors.New("db down")

	if _, err := uc.CleanupExpired(context.Background(), time.Now().UTC()); err == nil {
		t.Fatal("expected list error")
	}
}
