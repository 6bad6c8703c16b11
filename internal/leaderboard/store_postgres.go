package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed ranking store and ensures its
// table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS leaderboard (
			username          TEXT PRIMARY KEY,
			points            INT NOT NULL CHECK (points >= 0),
			lessons_completed INT NOT NULL DEFAULT 0,
			first_seen        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return nil, fmt.Errorf("ensure leaderboard table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, sum Summary) error {
	if sum.Username == "" {
		return fmt.Errorf("username is required")
	}
	if sum.Points < 0 {
		return fmt.Errorf("points must be non-negative")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leaderboard (username, points, lessons_completed)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO UPDATE
		 SET points = EXCLUDED.points,
		     lessons_completed = EXCLUDED.lessons_completed,
		     updated_at = NOW()`,
		sum.Username,
		sum.Points,
		sum.LessonsCompleted,
	)
	if err != nil {
		return fmt.Errorf("upsert leaderboard row: %w", err)
	}
	return nil
}

func (s *PostgresStore) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTopN
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT username, points, lessons_completed
		 FROM leaderboard
		 ORDER BY points DESC, first_seen ASC
		 LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Username, &e.Points, &e.LessonsCompleted); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}
	return entries, nil
}
