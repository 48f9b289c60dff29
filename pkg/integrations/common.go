package integrations

import (
	"net/http"
	"strings"

	"github.com/matzehuels/statsnap/pkg/httputil"
)

// Errors surfaced by every client. They alias the [httputil] sentinels so
// callers only need to import this package.
var (
	// ErrNotFound is returned when a repository, user or report doesn't exist.
	ErrNotFound = httputil.ErrNotFound

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = httputil.ErrNetwork

	// ErrRateLimited is returned when the API keeps signalling rate limiting.
	ErrRateLimited = httputil.ErrRateLimited

	// ErrRetriesExhausted is returned once an endpoint failed on every retry.
	ErrRetriesExhausted = httputil.ErrRetriesExhausted
)

// NewHTTPClient creates an HTTP client with the standard timeout for API requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httputil.DefaultTimeout}
}

// SplitKey splits a resource key of the form "owner/name".
// It returns ok=false if either side is empty.
func SplitKey(key string) (owner, name string, ok bool) {
	owner, name, ok = strings.Cut(strings.Trim(key, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}
