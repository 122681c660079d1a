package outcome

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when the backend answers with a status other than
// "success". The spin then proceeds without server data.
var ErrNoData = errors.New("outcome: backend returned no data")

// StatusError carries the non-success status reported by the backend.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("outcome: status %q", e.Status)
	}
	return fmt.Sprintf("outcome: status %q: %s", e.Status, e.Message)
}

// Unwrap lets callers match any non-success answer with errors.Is(err, ErrNoData).
func (e *StatusError) Unwrap() error { return ErrNoData }

// HTTPError represents a non-200 HTTP response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("outcome: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for rate limits and server errors.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// AuthError indicates the endpoint rejected the configured token.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("outcome: authentication failed (HTTP %d): %s", e.StatusCode, e.Message)
}
