package progress

import (
	"context"
	"sync"
)

// SnapshotStore keeps per-student copies of serialized records on the
// server, so the teacher view works when a student's device is offline.
// Snapshots are opaque validated JSON; the device record stays the source
// of truth and the newest upload simply wins.
type SnapshotStore interface {
	// Get returns the stored snapshot for a student, if any.
	Get(ctx context.Context, userID string) ([]byte, bool, error)
	// Put stores or replaces a student's snapshot.
	Put(ctx context.Context, userID string, data []byte) error
	// All returns every stored snapshot keyed by student id.
	All(ctx context.Context) (map[string][]byte, error)
}

// MemorySnapshotStore is an in-memory SnapshotStore implementation.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewMemorySnapshotStore creates an empty in-memory snapshot store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snapshots: make(map[string][]byte)}
}

func (s *MemorySnapshotStore) Get(_ context.Context, userID string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.snapshots[userID]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (s *MemorySnapshotStore) Put(_ context.Context, userID string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = stored
	return nil
}

func (s *MemorySnapshotStore) All(_ context.Context) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(s.snapshots))
	for k, v := range s.snapshots {
		c := make([]byte, len(v))
		copy(c, v)
		out[k] = c
	}
	return out, nil
}
