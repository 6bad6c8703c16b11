package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Store persists the shared ranking, keyed by username.
type Store interface {
	// Upsert records a profile's latest aggregate, replacing any previous
	// one for the same username.
	Upsert(ctx context.Context, s Summary) error
	// Top returns the ranking, points descending, point ties broken by
	// earliest first arrival.
	Top(ctx context.Context, n int) ([]Entry, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]row
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory ranking store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[string]row),
		now:  time.Now,
	}
}

func (s *MemoryStore) Upsert(_ context.Context, sum Summary) error {
	if sum.Username == "" {
		return fmt.Errorf("username is required")
	}
	if sum.Points < 0 {
		return fmt.Errorf("points must be non-negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[sum.Username]
	if !ok {
		r.FirstSeen = s.now()
	}
	r.Username = sum.Username
	r.Points = sum.Points
	r.LessonsCompleted = sum.LessonsCompleted
	s.rows[sum.Username] = r
	return nil
}

func (s *MemoryStore) Top(_ context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTopN
	}

	s.mu.RLock()
	rows := make([]row, 0, len(s.rows))
	for _, r := range s.rows {
		rows = append(rows, r)
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].FirstSeen.Before(rows[j].FirstSeen)
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = r.Entry
	}
	return out, nil
}
