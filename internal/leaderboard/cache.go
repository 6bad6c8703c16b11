package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how stale a cached ranking can get.
const DefaultCacheTTL = 30 * time.Second

// TopCache caches serialized top-N rankings.
type TopCache interface {
	Get(ctx context.Context, n int) ([]Entry, bool)
	Set(ctx context.Context, n int, entries []Entry)
	Invalidate(ctx context.Context)
}

// RedisTopCache is a TopCache backed by Redis. Cache misses and
// errors are equivalent: the caller falls through to the store.
type RedisTopCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTopCache creates a Redis-backed ranking cache.
func NewRedisTopCache(client *redis.Client, ttl time.Duration) *RedisTopCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisTopCache{client: client, ttl: ttl}
}

func cacheKey(n int) string {
	return fmt.Sprintf("leaderboard:top:%d", n)
}

func (c *RedisTopCache) Get(ctx context.Context, n int) ([]Entry, bool) {
	data, err := c.client.Get(ctx, cacheKey(n)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("leaderboard cache read failed", "error", err)
		}
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("leaderboard cache entry unreadable", "error", err)
		return nil, false
	}
	return entries, true
}

func (c *RedisTopCache) Set(ctx context.Context, n int, entries []Entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(n), data, c.ttl).Err(); err != nil {
		slog.Warn("leaderboard cache write failed", "error", err)
	}
}

func (c *RedisTopCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, "leaderboard:top:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			slog.Warn("leaderboard cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		slog.Warn("leaderboard cache scan failed", "error", err)
	}
}

// CachedStore wraps a Store with a TopCache. Upserts invalidate, reads fill.
type CachedStore struct {
	inner Store
	cache TopCache
}

// NewCachedStore wraps inner with cache.
func NewCachedStore(inner Store, cache TopCache) *CachedStore {
	return &CachedStore{inner: inner, cache: cache}
}

func (s *CachedStore) Upsert(ctx context.Context, sum Summary) error {
	if err := s.inner.Upsert(ctx, sum); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *CachedStore) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	if entries, ok := s.cache.Get(ctx, n); ok {
		return entries, nil
	}
	entries, err := s.inner.Top(ctx, n)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, n, entries)
	return entries, nil
}
