package probe

import (
	"bytes"
	"encoding/json"

	"github.com/rs/zerolog"

	"apiprobe/internal/backend"
	"apiprobe/internal/models"
)

func (r *Runner) loginSucceeded(resp *backend.LoginResponse) {
	ev := r.log.Info()
	ev = rawField(ev, "response", resp.Raw)

	info := backend.DescribeToken(resp.Access)
	ev = ev.Bool("jwt", info.JWT)
	if info.JWT {
		if info.Subject != "" {
			ev = ev.Str("subject", info.Subject)
		}
		if !info.ExpiresAt.IsZero() {
			ev = ev.Time("expires_at", info.ExpiresAt)
		}
	}
	ev.Msg("Login successful")
}

func (r *Runner) locationsReceived(report *models.RunReport, env *backend.LocationsEnvelope) {
	report.Message = env.Message
	report.LocationCount = env.LocationCount()
	report.FirstLocation = env.FirstLocation()

	rawField(r.log.Info(), "response", env.Raw).Msg("Locations API Response")
	r.log.Info().Msg("Response structure:")
	rawField(r.log.Info(), "message", env.Message).Msg("- message")
	rawField(r.log.Info(), "data", env.Data).Msg("- data")
	r.log.Info().Int("count", report.LocationCount).Msg("- locations count")

	if report.LocationCount > 0 {
		rawField(r.log.Info(), "location", report.FirstLocation).Msg("First location sample")
	}
}

func (r *Runner) statusFailed(se *backend.StatusError) {
	msg := "Login failed"
	if se.Step == models.StepFetch {
		msg = "Locations API failed"
	}
	r.log.Error().Int("status", se.StatusCode).Str("body", se.Body).Msg(msg)
}

// rawField attaches raw JSON as-is. Absent values are marked so the line
// still shows the key.
func rawField(ev *zerolog.Event, key string, raw json.RawMessage) *zerolog.Event {
	if len(raw) == 0 {
		return ev.Str(key, "undefined")
	}
	return ev.RawJSON(key, bytes.TrimSpace(raw))
}
