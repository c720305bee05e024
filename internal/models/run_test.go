package models

import (
	"testing"
	"time"
)

func TestNewRunEvent(t *testing.T) {
	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	r := &RunReport{
		ID:            "run-1",
		StartedAt:     start,
		FinishedAt:    start.Add(2 * time.Second),
		Outcome:       OutcomePassed,
		LocationCount: 3,
	}

	cases := []struct {
		name         string
		bucket, key  string
		wantArchived bool
	}{
		{"archived", "probe-reports", "reports/2025/05/01/run-1.json", true},
		{"not archived", "", "", false},
		{"bucket without key", "probe-reports", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewRunEvent(r, tc.bucket, tc.key)
			if e.RunID != "run-1" || e.Outcome != OutcomePassed || e.LocationCount != 3 || !e.FinishedAt.Equal(r.FinishedAt) {
				t.Errorf("unexpected event %+v", e)
			}
			if got := e.Archived(); got != tc.wantArchived {
				t.Errorf("Archived() = %v; want %v", got, tc.wantArchived)
			}
		})
	}

	if !r.Passed() {
		t.Error("Passed() = false for a passed run")
	}
	if got := r.Duration(); got != 2*time.Second {
		t.Errorf("Duration() = %v; want 2s", got)
	}
}
