package pluggy

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication is returned when API credentials are missing or rejected.
	ErrAuthentication = errors.New("aggregator authentication failed")
	// ErrUpstream is returned for transport failures and non-2xx responses.
	ErrUpstream = errors.New("aggregator request failed")
)

// APIError is a non-2xx response from the aggregator.
type APIError struct {
	StatusCode int
	Path       string
	Message    string

	auth bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pluggy %s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("pluggy %s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

// Unwrap lets callers classify with errors.Is.
func (e *APIError) Unwrap() error {
	if e.auth {
		return ErrAuthentication
	}
	return ErrUpstream
}
