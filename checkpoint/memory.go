package checkpoint

import (
	"context"
	"fmt"
	"sync"
)

// ErrNotFound is returned by Load when no checkpoint exists for the
// thread id.
var ErrNotFound = fmt.Errorf("checkpoint not found")

// MemoryStore keeps the latest checkpoint per thread id in memory. It
// is the default store: resumability within one process, no
// cross-process durability.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*Checkpoint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checkpoints: make(map[string]*Checkpoint),
	}
}

// Save stores cp as the latest checkpoint for its thread id.
func (s *MemoryStore) Save(_ context.Context, cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[cp.ThreadID] = cp
	return nil
}

// Load returns the latest checkpoint for threadID.
func (s *MemoryStore) Load(_ context.Context, threadID string) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[threadID]
	if !ok {
		return nil, fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}
	return cp, nil
}

// Delete removes the checkpoint for threadID.
func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, threadID)
	return nil
}

// Len returns the number of threads with a stored checkpoint.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.checkpoints)
}
