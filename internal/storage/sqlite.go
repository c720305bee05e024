package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"apiprobe/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS probe_runs (
	id             TEXT PRIMARY KEY,
	base_url       TEXT NOT NULL,
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME NOT NULL,
	duration_ms    INTEGER NOT NULL,
	outcome        TEXT NOT NULL,
	failed_step    TEXT NOT NULL DEFAULT '',
	status_code    INTEGER NOT NULL DEFAULT 0,
	location_count INTEGER NOT NULL DEFAULT 0,
	error          TEXT NOT NULL DEFAULT ''
)`

const sqliteInsert = `
INSERT OR IGNORE INTO probe_runs
	(id, base_url, started_at, finished_at, duration_ms, outcome, failed_step, status_code, location_count, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteRecorder keeps run history in a local file when no Postgres is set up.
type SQLiteRecorder struct {
	db *sql.DB
}

func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &SQLiteRecorder{db: db}, nil
}

func (s *SQLiteRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create probe_runs: %w", err)
	}
	return nil
}

func (s *SQLiteRecorder) Record(ctx context.Context, r *models.RunReport) error {
	if _, err := s.db.ExecContext(ctx, sqliteInsert, runRow(r)...); err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// Outcomes counts recorded runs per outcome.
func (s *SQLiteRecorder) Outcomes(ctx context.Context) (map[models.Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM probe_runs GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	counts := map[models.Outcome]int{}
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[models.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteRecorder) Close() error {
	return s.db.Close()
}
