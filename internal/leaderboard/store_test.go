package leaderboard

import (
	"context"
	"testing"
)

func TestMemoryStore_TopOrdersByPoints(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Upsert(ctx, Summary{Username: "An", Points: 250, LessonsCompleted: 2})
	store.Upsert(ctx, Summary{Username: "Châu", Points: 700, LessonsCompleted: 6})
	store.Upsert(ctx, Summary{Username: "Dũng", Points: 430, LessonsCompleted: 4})

	got, err := store.Top(ctx, 10)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	want := []string{"Châu", "Dũng", "An"}
	if len(got) != len(want) {
		t.Fatalf("Top() = %d entries, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Username != name {
			t.Errorf("Top()[%d] = %s, want %s", i, got[i].Username, name)
		}
	}
}

func TestMemoryStore_TiesBreakByArrival(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Upsert(ctx, Summary{Username: "first", Points: 100})
	store.Upsert(ctx, Summary{Username: "second", Points: 100})

	got, err := store.Top(ctx, 10)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if got[0].Username != "first" || got[1].Username != "second" {
		t.Errorf("tie order = [%s %s], want earliest arrival first", got[0].Username, got[1].Username)
	}

	// Updating points must not reset the arrival order.
	store.Upsert(ctx, Summary{Username: "first", Points: 100, LessonsCompleted: 1})
	got, _ = store.Top(ctx, 10)
	if got[0].Username != "first" {
		t.Errorf("tie order after update = %s, want first", got[0].Username)
	}
}

func TestMemoryStore_UpsertReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Upsert(ctx, Summary{Username: "An", Points: 100, LessonsCompleted: 1})
	store.Upsert(ctx, Summary{Username: "An", Points: 330, LessonsCompleted: 3})

	got, _ := store.Top(ctx, 10)
	if len(got) != 1 {
		t.Fatalf("Top() = %d entries, want 1", len(got))
	}
	if got[0].Points != 330 || got[0].LessonsCompleted != 3 {
		t.Errorf("Top()[0] = %+v, want latest aggregate", got[0])
	}
}

func TestMemoryStore_TopLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		store.Upsert(ctx, Summary{Username: string(rune('a' + i)), Points: i * 10})
	}

	got, _ := store.Top(ctx, 10)
	if len(got) != 10 {
		t.Errorf("Top(10) = %d entries, want 10", len(got))
	}

	// n <= 0 falls back to the default.
	got, _ = store.Top(ctx, 0)
	if len(got) != DefaultTopN {
		t.Errorf("Top(0) = %d entries, want %d", len(got), DefaultTopN)
	}
}

func TestMemoryStore_UpsertValidates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, Summary{Points: 10}); err == nil {
		t.Error("Upsert() accepted empty username")
	}
	if err := store.Upsert(ctx, Summary{Username: "An", Points: -1}); err == nil {
		t.Error("Upsert() accepted negative points")
	}
}

// fakeCache is a TopCache double recording hits and invalidations.
type fakeCache struct {
	entries     map[int][]Entry
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[int][]Entry{}}
}

func (c *fakeCache) Get(_ context.Context, n int) ([]Entry, bool) {
	e, ok := c.entries[n]
	return e, ok
}

func (c *fakeCache) Set(_ context.Context, n int, entries []Entry) {
	c.entries[n] = entries
}

func (c *fakeCache) Invalidate(_ context.Context) {
	c.entries = map[int][]Entry{}
	c.invalidated++
}

func TestCachedStore_FillsAndServesFromCache(t *testing.T) {
	inner := NewMemoryStore()
	cache := newFakeCache()
	store := NewCachedStore(inner, cache)
	ctx := context.Background()

	store.Upsert(ctx, Summary{Username: "An", Points: 100, LessonsCompleted: 1})

	first, err := store.Top(ctx, 10)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Top() = %d entries, want 1", len(first))
	}
	if _, ok := cache.entries[10]; !ok {
		t.Error("Top() miss did not fill the cache")
	}

	// Mutate the inner store behind the cache's back; the cached view wins
	// until invalidation.
	inner.Upsert(ctx, Summary{Username: "Châu", Points: 500})
	second, _ := store.Top(ctx, 10)
	if len(second) != 1 {
		t.Errorf("Top() = %d entries, want cached 1", len(second))
	}
}

func TestCachedStore_UpsertInvalidates(t *testing.T) {
	cache := newFakeCache()
	store := NewCachedStore(NewMemoryStore(), cache)
	ctx := context.Background()

	store.Upsert(ctx, Summary{Username: "An", Points: 100})
	store.Top(ctx, 10)
	store.Upsert(ctx, Summary{Username: "Châu", Points: 500})

	if cache.invalidated != 2 {
		t.Errorf("invalidations = %d, want one per upsert", cache.invalidated)
	}
	got, _ := store.Top(ctx, 10)
	if len(got) != 2 || got[0].Username != "Châu" {
		t.Errorf("Top() after invalidation = %+v, want fresh ranking", got)
	}
}
