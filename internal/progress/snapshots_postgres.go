package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const snapshotTimeout = 5 * time.Second

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS progress_snapshots (
	user_id    TEXT PRIMARY KEY,
	record     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSnapshotStore keeps snapshots in Postgres.
type PostgresSnapshotStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSnapshotStore prepares the snapshots table and returns a store
// over it.
func NewPostgresSnapshotStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresSnapshotStore, error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	if _, err := pool.Exec(ctx, createSnapshotsTable); err != nil {
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}
	return &PostgresSnapshotStore{pool: pool}, nil
}

func (s *PostgresSnapshotStore) Get(ctx context.Context, userID string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM progress_snapshots WHERE user_id = $1`, userID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading snapshot for %s: %w", userID, err)
	}
	return data, true, nil
}

func (s *PostgresSnapshotStore) Put(ctx context.Context, userID string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO progress_snapshots (user_id, record, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET record = EXCLUDED.record, updated_at = now()`,
		userID, data)
	if err != nil {
		return fmt.Errorf("storing snapshot for %s: %w", userID, err)
	}
	return nil
}

func (s *PostgresSnapshotStore) All(ctx context.Context) (map[string][]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT user_id, record FROM progress_snapshots`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var userID string
		var data []byte
		if err := rows.Scan(&userID, &data); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		out[userID] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshots: %w", err)
	}
	return out, nil
}
