package models

import (
	"encoding/json"
	"time"
)

// Outcome is the terminal state of one probe run.
type Outcome string

const (
	OutcomePassed      Outcome = "passed"
	OutcomeLoginFailed Outcome = "login_failed"
	OutcomeFetchFailed Outcome = "fetch_failed"
	OutcomeErrored     Outcome = "errored"
)

// Step names the call that a run stopped at.
type Step string

const (
	StepLogin Step = "login"
	StepFetch Step = "fetch"
)

// RunReport describes one Login -> Fetch sequence against the backend.
type RunReport struct {
	ID         string    `json:"id"`
	BaseURL    string    `json:"base_url"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    Outcome   `json:"outcome"`

	// Set when the run stopped early.
	FailedStep Step   `json:"failed_step,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
	Error      string `json:"error,omitempty"`

	Message       json.RawMessage `json:"message,omitempty"`
	LocationCount int             `json:"location_count"`
	FirstLocation json.RawMessage `json:"first_location,omitempty"`
}

func (r *RunReport) Passed() bool {
	return r.Outcome == OutcomePassed
}

func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunEvent is the compact message published for every finished run. Bucket
// and Key point at the archived RunReport when archiving is enabled.
type RunEvent struct {
	RunID         string    `json:"run_id"`
	Outcome       Outcome   `json:"outcome"`
	FinishedAt    time.Time `json:"finished_at"`
	StatusCode    int       `json:"status_code,omitempty"`
	LocationCount int       `json:"location_count"`
	Bucket        string    `json:"bucket,omitempty"`
	Key           string    `json:"key,omitempty"`
}

func NewRunEvent(r *RunReport, bucket, key string) RunEvent {
	return RunEvent{
		RunID:         r.ID,
		Outcome:       r.Outcome,
		FinishedAt:    r.FinishedAt,
		StatusCode:    r.StatusCode,
		LocationCount: r.LocationCount,
		Bucket:        bucket,
		Key:           key,
	}
}

// Archived reports whether the event references a stored report.
func (e RunEvent) Archived() bool {
	return e.Bucket != "" && e.Key != ""
}
