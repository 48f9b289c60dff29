package integrations

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
)

type advancingClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type fakeTime struct {
	clock  advancingClock
	sleeps []time.Duration
}

func newFakeTime() *fakeTime {
	return &fakeTime{clock: clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))}
}

func (f *fakeTime) sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.clock.Advance(d)
	return nil
}

func testClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Options)) (*Client, *fakeTime) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ft := newFakeTime()
	opts := Options{
		Name:       "test",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Clock:      ft.clock,
		Sleep:      ft.sleep,
		Logger:     log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, m := range mutate {
		m(&opts)
	}
	c := NewClient(opts)
	t.Cleanup(func() { c.Close() })
	return c, ft
}
