package coffee

import (
	"errors"
	"net/http"
)

// ErrServiceRefused matches any *RefusedError via errors.Is.
var ErrServiceRefused = errors.New("service refused")

// RefusedError is returned when the machine declines to brew at all.
// Status is the HTTP status the API layer answers with.
type RefusedError struct {
	Status  int
	Message string
}

func (e *RefusedError) Error() string { return e.Message }

func (e *RefusedError) Is(target error) bool { return target == ErrServiceRefused }

// errTeapot keeps the 503 status paired with the teapot text; clients assert on both.
func errTeapot() error {
	return &RefusedError{Status: http.StatusServiceUnavailable, Message: "I'm a teapot"}
}
