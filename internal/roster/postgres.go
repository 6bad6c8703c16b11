package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const createStudentsTable = `
CREATE TABLE IF NOT EXISTS students (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	full_name     TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'student',
	class_id      TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps the directory in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore prepares the students table and returns a store over it.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := pool.Exec(ctx, createStudentsTable); err != nil {
		return nil, fmt.Errorf("creating students table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) ListByClass(ctx context.Context, classID string) ([]Student, error) {
	if classID == "" {
		classID = DefaultClassID
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, username, full_name, role, class_id FROM students
		 WHERE class_id = $1 AND role = 'student'`, classID)
	if err != nil {
		return nil, fmt.Errorf("listing class %s: %w", classID, err)
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.Username, &st.FullName, &st.Role, &st.ClassID); err != nil {
			return nil, fmt.Errorf("scanning student: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading students: %w", err)
	}

	// Collation-correct ordering is done here rather than in SQL, so the
	// database locale does not have to be Vietnamese.
	sortByGivenName(out)
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM students`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting students: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) insert(ctx context.Context, a account) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO students (id, username, full_name, role, class_id, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Username, a.FullName, a.Role, a.ClassID, a.PasswordHash)
	if err != nil {
		return fmt.Errorf("inserting student %s: %w", a.ID, err)
	}
	return nil
}
