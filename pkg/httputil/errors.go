package httputil

import (
	"errors"
	"fmt"
)

// Sentinel errors for request failures. Use errors.Is to test for them.
var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures (timeouts, connection errors) and 5xx responses.
	ErrNetwork = errors.New("network error")

	// ErrRateLimited is returned for responses the API uses to signal rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrHTTP is returned for any other non-2xx response.
	ErrHTTP = errors.New("http error")

	// ErrRetriesExhausted is matched by every [*RetryError].
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// StatusError describes a non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string // API-provided message, if any
	kind       error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns the sentinel classifying the status (ErrNotFound, ErrNetwork, ...).
func (e *StatusError) Unwrap() error { return e.kind }

// RetryError is returned when an endpoint kept failing after all retries.
type RetryError struct {
	Method   string
	Endpoint string
	Attempts int
	Err      error // last failure
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s %s: request failed after %d attempts: %v", e.Method, e.Endpoint, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRetriesExhausted) true for every RetryError.
func (e *RetryError) Is(target error) bool { return target == ErrRetriesExhausted }
