// Package probe runs the Login -> Fetch check against the backend and reports
// each step on the console.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"apiprobe/internal/backend"
	"apiprobe/internal/models"
)

// API is the part of backend.Client the runner needs.
type API interface {
	BaseURL() string
	Login(ctx context.Context, creds backend.Credentials) (*backend.LoginResponse, error)
	Locations(ctx context.Context, token string) (*backend.LocationsEnvelope, error)
}

type Runner struct {
	api   API
	creds backend.Credentials
	log   zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewRunner(api API, creds backend.Credentials, logger zerolog.Logger) *Runner {
	return &Runner{
		api:   api,
		creds: creds,
		log:   logger,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Run performs one login followed by one locations fetch. It never returns an
// error: every failure is logged and recorded on the returned report.
func (r *Runner) Run(ctx context.Context) (report *models.RunReport) {
	report = &models.RunReport{
		ID:        r.newID(),
		BaseURL:   r.api.BaseURL(),
		StartedAt: r.now(),
	}

	step := models.StepLogin
	defer func() {
		if p := recover(); p != nil {
			r.testFailed(report, step, fmt.Errorf("panic: %v", p))
		}
		report.FinishedAt = r.now()
	}()

	r.log.Info().Str("base_url", report.BaseURL).Msg("Testing backend API...")

	loginResp, err := r.api.Login(ctx, r.creds)
	if err != nil {
		r.stepFailed(report, step, err)
		return report
	}
	r.loginSucceeded(loginResp)

	step = models.StepFetch
	env, err := r.api.Locations(ctx, loginResp.Access)
	if err != nil {
		r.stepFailed(report, step, err)
		return report
	}
	r.locationsReceived(report, env)

	report.Outcome = models.OutcomePassed
	return report
}

// stepFailed separates an HTTP-level rejection from every other failure.
func (r *Runner) stepFailed(report *models.RunReport, step models.Step, err error) {
	se, ok := backend.AsStatusError(err)
	if !ok {
		r.testFailed(report, step, err)
		return
	}

	report.FailedStep = step
	report.StatusCode = se.StatusCode
	report.Body = se.Body
	if step == models.StepLogin {
		report.Outcome = models.OutcomeLoginFailed
	} else {
		report.Outcome = models.OutcomeFetchFailed
	}
	r.statusFailed(se)
}

func (r *Runner) testFailed(report *models.RunReport, step models.Step, err error) {
	report.Outcome = models.OutcomeErrored
	report.FailedStep = step
	report.Error = err.Error()
	r.log.Error().Err(err).Str("step", string(step)).Msg("Test failed")
}

// Loop emits one report per run. With every <= 0 it runs once; otherwise it
// starts a fresh run on each tick until ctx is done. A finished run is always
// delivered, so callers must drain the channel until it is closed.
func (r *Runner) Loop(ctx context.Context, every time.Duration) <-chan *models.RunReport {
	out := make(chan *models.RunReport)

	go func() {
		defer close(out)

		var tick <-chan time.Time
		if every > 0 {
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			out <- r.Run(ctx)

			if tick == nil || ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		}
	}()

	return out
}
