package httputil

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Sleeper blocks for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// ClockSleeper returns a Sleeper that waits on clk.
// Non-positive durations return immediately.
func ClockSleeper(clk clockwork.Clock) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		if d <= 0 {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(d):
			return nil
		}
	}
}
