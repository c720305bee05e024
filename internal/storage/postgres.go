package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"apiprobe/internal/models"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS probe_runs (
	id             TEXT PRIMARY KEY,
	base_url       TEXT NOT NULL,
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL,
	duration_ms    BIGINT NOT NULL,
	outcome        TEXT NOT NULL,
	failed_step    TEXT NOT NULL DEFAULT '',
	status_code    INTEGER NOT NULL DEFAULT 0,
	location_count INTEGER NOT NULL DEFAULT 0,
	error          TEXT NOT NULL DEFAULT ''
)`

const pgInsert = `
INSERT INTO probe_runs
	(id, base_url, started_at, finished_at, duration_ms, outcome, failed_step, status_code, location_count, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING`

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PostgresRecorder struct {
	db    execer
	close func()
}

func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresRecorder{db: pool, close: pool.Close}, nil
}

func (p *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("create probe_runs: %w", err)
	}
	return nil
}

func (p *PostgresRecorder) Record(ctx context.Context, r *models.RunReport) error {
	if _, err := p.db.Exec(ctx, pgInsert, runRow(r)...); err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

func (p *PostgresRecorder) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
