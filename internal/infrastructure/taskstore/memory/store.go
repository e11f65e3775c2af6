package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/healthbot/knowledge-core/internal/core/domain"
)

// Store is a mutex-guarded in-memory task store. Tasks live for the
// process lifetime only; durable state belongs to the session store.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]domain.IngestTask
}

func New() *Store {
	return &Store{tasks: make(map[string]domain.IngestTask)}
}

func (s *Store) Get(_ context.Context, sessionID string) (*domain.IngestTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[sessionID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	copyTask := task
	return &copyTask, nil
}

func (s *Store) Put(_ context.Context, task domain.IngestTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.SessionID] = task
	return nil
}

func (s *Store) PutIfTerminalOrAbsent(_ context.Context, task domain.IngestTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tasks[task.SessionID]; ok && !existing.Status.Terminal() {
		return domain.WrapError(domain.ErrBatchInProgress, "store task",
			fmt.Errorf("session %s has a %s batch", task.SessionID, existing.Status))
	}
	s.tasks[task.SessionID] = task
	return nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, sessionID)
	return nil
}
