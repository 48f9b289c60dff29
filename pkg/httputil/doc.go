// Package httputil provides the request plumbing shared by all statistics API clients.
//
// # Overview
//
// Every client in [integrations] issues its requests through an [Executor],
// which combines:
//
//   - [Limiter]: a minimum spacing between consecutive requests
//   - [Quota]: bookkeeping of X-RateLimit-Remaining / X-RateLimit-Reset
//   - [Backoff]: retries driven by an explicit [Outcome] per attempt
//
// and an in-memory [Cache] keyed by resource identity.
//
// # Retry
//
// Each attempt is classified as [Success], [Retryable] or [Fatal]:
//
//   - Network errors and 5xx responses are retryable
//   - Rate-limit responses (429, or whatever the API treats as one) are retryable
//     and honor Retry-After when the server sends it
//   - Every other non-2xx status is fatal and returned immediately
//
// Without Retry-After the wait starts at one second and doubles on every retry.
// Once MaxRetries retries have been spent the executor gives up with a
// [*RetryError] naming the endpoint and the number of attempts.
//
// # Time
//
// All waiting goes through a [Sleeper] and all timestamps come from a
// clockwork.Clock, so tests can drive the executor with a fake clock:
//
//	clock := clockwork.NewFakeClock()
//	sleep := func(ctx context.Context, d time.Duration) error {
//	    clock.Advance(d)
//	    return nil
//	}
//
// Nothing in this package is safe for concurrent use. Clients are built for
// a sequential batch job and own their executor exclusively.
//
// [integrations]: github.com/matzehuels/statsnap/pkg/integrations
package httputil
