package httputil

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type advancingClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

// fakeTime records every sleep and advances the fake clock instead of blocking.
type fakeTime struct {
	clock  advancingClock
	sleeps []time.Duration
}

func newFakeTime() *fakeTime {
	return &fakeTime{clock: clockwork.NewFakeClockAt(epoch)}
}

func (f *fakeTime) sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.clock.Advance(d)
	return nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
