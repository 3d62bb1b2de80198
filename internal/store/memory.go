package store

import (
	"context"
	"sync"

	"github.com/me/schedsim/pkg/model"
)

// MemoryStore keeps the process list in memory. Contents are lost on exit.
type MemoryStore struct {
	mu        sync.RWMutex
	processes []model.Process
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AppendProcess(_ context.Context, p model.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processes = append(s.processes, p)
	return nil
}

func (s *MemoryStore) ListProcesses(_ context.Context) ([]model.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CopyProcesses(s.processes), nil
}

func (s *MemoryStore) ClearProcesses(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processes = nil
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Migrate(_ context.Context) error { return nil }
