// Package storage keeps probe results: full reports in object storage and a
// one-row-per-run history in Postgres or SQLite.
package storage

import (
	"context"

	"apiprobe/internal/models"
)

// Recorder appends finished runs to the run history.
type Recorder interface {
	EnsureSchema(ctx context.Context) error
	Record(ctx context.Context, r *models.RunReport) error
	Close() error
}

// runRow flattens a report into probe_runs column order.
func runRow(r *models.RunReport) []any {
	return []any{
		r.ID,
		r.BaseURL,
		r.StartedAt.UTC(),
		r.FinishedAt.UTC(),
		r.Duration().Milliseconds(),
		string(r.Outcome),
		string(r.FailedStep),
		r.StatusCode,
		r.LocationCount,
		r.Error,
	}
}
