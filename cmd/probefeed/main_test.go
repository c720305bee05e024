package main

import (
	"testing"
	"time"

	"apiprobe/internal/models"
)

func TestSummary(t *testing.T) {
	start := time.Date(2025, 4, 5, 6, 7, 8, 0, time.UTC)
	base := func(o models.Outcome) *models.RunReport {
		return &models.RunReport{
			BaseURL:    "http://localhost:8000",
			StartedAt:  start,
			FinishedAt: start.Add(250 * time.Millisecond),
			Outcome:    o,
		}
	}

	passed := base(models.OutcomePassed)
	passed.LocationCount = 4

	loginFailed := base(models.OutcomeLoginFailed)
	loginFailed.FailedStep = models.StepLogin
	loginFailed.StatusCode = 401

	errored := base(models.OutcomeErrored)
	errored.FailedStep = models.StepFetch
	errored.Error = "fetch request: EOF"

	cases := []struct {
		name string
		r    *models.RunReport
		want string
	}{
		{"passed", passed, "2025-04-05T06:07:08Z  passed       250ms  http://localhost:8000  locations=4"},
		{"login failed", loginFailed, "2025-04-05T06:07:08Z  login_failed 250ms  http://localhost:8000  step=login status=401"},
		{"errored", errored, `2025-04-05T06:07:08Z  errored      250ms  http://localhost:8000  step=fetch error="fetch request: EOF"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := summary(tc.r); got != tc.want {
				t.Errorf("summary() =\n%q\nwant\n%q", got, tc.want)
			}
		})
	}
}
