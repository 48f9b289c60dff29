package httputil

import (
	"net/http"
	"strconv"
	"time"
)

// Quota header names as sent by GitHub and most APIs that copied it.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// DefaultQuotaThreshold is the remaining-request count below which the
// executor stops and waits for the quota window to reset.
const DefaultQuotaThreshold = 10

// Quota tracks the remaining request budget advertised by response headers.
// The zero value knows nothing and never asks the caller to wait.
type Quota struct {
	Remaining int
	Reset     time.Time
	Threshold int

	known bool
}

// Update refreshes the bookkeeping from h. Missing or malformed headers
// leave the previous values untouched.
func (q *Quota) Update(h http.Header) {
	if v := h.Get(HeaderRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Remaining = n
			q.known = true
		}
	}
	if v := h.Get(HeaderReset); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.Reset = time.Unix(epoch, 0)
		}
	}
}

// Known reports whether any quota header has been seen.
func (q *Quota) Known() bool { return q.known }

// Wait returns how long to pause before the next request. It is zero unless
// the remaining budget is under the threshold and the reset lies in the future,
// in which case it runs until one second past the reset.
func (q *Quota) Wait(now time.Time) time.Duration {
	threshold := q.Threshold
	if threshold == 0 {
		threshold = DefaultQuotaThreshold
	}
	if !q.known || q.Remaining >= threshold || q.Reset.IsZero() {
		return 0
	}
	d := q.Reset.Sub(now)
	if d <= 0 {
		return 0
	}
	return d + time.Second
}
