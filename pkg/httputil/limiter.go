package httputil

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Limiter enforces a minimum interval between the end of one request and
// the start of the next.
type Limiter struct {
	interval time.Duration
	clock    clockwork.Clock
	sleep    Sleeper
	last     time.Time
}

// NewLimiter creates a Limiter. A nil clock means the real clock; a nil
// sleeper waits on the clock.
func NewLimiter(interval time.Duration, clock clockwork.Clock, sleep Sleeper) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if sleep == nil {
		sleep = ClockSleeper(clock)
	}
	return &Limiter{interval: interval, clock: clock, sleep: sleep}
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration { return l.interval }

// Wait blocks until at least the interval has elapsed since the last [Limiter.Mark].
// The first call never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.last.IsZero() {
		return nil
	}
	if d := l.interval - l.clock.Since(l.last); d > 0 {
		return l.sleep(ctx, d)
	}
	return nil
}

// Mark records the end of an attempt. It must be called after every attempt,
// failed or not.
func (l *Limiter) Mark() { l.last = l.clock.Now() }
