package httputil

import (
	"context"
	"time"
)

// OutcomeKind classifies a single attempt.
type OutcomeKind int

const (
	// Success ends the retry loop without error.
	Success OutcomeKind = iota
	// Retryable asks for another attempt after a wait.
	Retryable
	// Fatal ends the retry loop with the outcome's error.
	Fatal
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// Outcome is the result of one attempt.
type Outcome struct {
	Kind OutcomeKind
	// Wait is a server-directed delay (Retry-After). Zero means use the backoff.
	Wait time.Duration
	Err  error
}

// Succeeded returns a Success outcome.
func Succeeded() Outcome { return Outcome{Kind: Success} }

// RetryAfter returns a Retryable outcome. A zero wait falls back to the backoff.
func RetryAfter(err error, wait time.Duration) Outcome {
	return Outcome{Kind: Retryable, Wait: wait, Err: err}
}

// Failed returns a Fatal outcome.
func Failed(err error) Outcome { return Outcome{Kind: Fatal, Err: err} }

// Default retry settings.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Backoff runs attempts until one succeeds, one fails fatally, or MaxRetries
// retries have been spent. The backoff delay starts at Base and doubles after
// every retry, including retries that waited for a server-directed delay.
type Backoff struct {
	MaxRetries int
	Base       time.Duration
	Sleep      Sleeper

	// OnRetry is called before sleeping; retry counts from 1.
	OnRetry func(retry int, wait time.Duration, out Outcome)
}

// Run executes fn. It returns the number of attempts made and, on failure,
// either the fatal error, a [*RetryError] wrapping the last retryable error,
// or the context error if a wait was interrupted.
func (b Backoff) Run(ctx context.Context, fn func() Outcome) (int, error) {
	delay := b.Base
	if delay <= 0 {
		delay = DefaultBaseDelay
	}
	maxRetries := max(b.MaxRetries, 0)

	for attempt := 1; ; attempt++ {
		out := fn()
		switch out.Kind {
		case Success:
			return attempt, nil
		case Fatal:
			return attempt, out.Err
		}

		if attempt > maxRetries {
			return attempt, &RetryError{Attempts: attempt, Err: out.Err}
		}

		wait := delay
		if out.Wait > 0 {
			wait = out.Wait
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, wait, out)
		}
		if err := b.Sleep(ctx, wait); err != nil {
			return attempt, err
		}
		delay *= 2
	}
}
