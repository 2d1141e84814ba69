package cache

import (
	"context"
	"sync"

	"epages-rest-layer/internal/ports"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]ports.Snapshot
}

var _ ports.SnapshotStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]ports.Snapshot)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*ports.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	snap.Payload = append([]byte(nil), snap.Payload...)
	return &snap, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, snap ports.Snapshot) error {
	snap.Payload = append([]byte(nil), snap.Payload...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = snap
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len returns the number of stored snapshots.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
