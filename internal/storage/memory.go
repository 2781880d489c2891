package storage

import (
	"context"
	"sync"

	"notify_printer/internal/model"
)

// Memory is an in-process SeenStore. State is lost on restart.
type Memory struct {
	mu   sync.Mutex
	seen map[model.Key]struct{}
}

// NewMemory creates an empty in-memory seen store.
func NewMemory() *Memory {
	return &Memory{seen: make(map[model.Key]struct{})}
}

// IsSeen reports whether the key has been marked.
func (m *Memory) IsSeen(_ context.Context, key model.Key) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[key]
	return ok, nil
}

// MarkSeen records the key. Marking an already-seen key is a no-op.
func (m *Memory) MarkSeen(_ context.Context, key model.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[key] = struct{}{}
	return nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
