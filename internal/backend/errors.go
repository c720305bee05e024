package backend

import (
	"errors"
	"fmt"

	"apiprobe/internal/models"
)

// ErrNoToken is returned when a successful login response carries no access
// token. The locations request is not sent in that case rather than being
// sent as "Bearer undefined".
var ErrNoToken = errors.New("login response has no access token")

// StatusError is an HTTP-level failure: the backend answered with a non-2xx
// status. Body holds the raw response text.
type StatusError struct {
	Step       models.Step
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Step, e.StatusCode, e.Body)
}

// AsStatusError unwraps err to a *StatusError if it is one.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
