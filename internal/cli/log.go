package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/matzehuels/statsnap/pkg/pipeline"
)

// newLogger creates the command logger writing to w at level, with
// "15:04:05.00" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// quietLogger returns a copy of l that only reports warnings and errors,
// for use while the fetch view owns the terminal. l is not modified.
func quietLogger(l *log.Logger) *log.Logger {
	q := l.With()
	if q.GetLevel() < log.WarnLevel {
		q.SetLevel(log.WarnLevel)
	}
	return q
}

// shortRunID is the run ID prefix used in log lines.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// fetchProgress logs the outcome of every source in a fetch and a summary
// once all of them finished.
type fetchProgress struct {
	logger *log.Logger
	clock  clockwork.Clock
	start  time.Time

	changed   int
	unchanged int
	failed    int
}

func newFetchProgress(l *log.Logger, clock clockwork.Clock) *fetchProgress {
	return &fetchProgress{logger: l, clock: clock, start: clock.Now()}
}

// record logs one finished source.
func (p *fetchProgress) record(res *pipeline.Result) {
	if res == nil || res.Document == nil {
		return
	}
	if res.Changed {
		p.changed++
	} else {
		p.unchanged++
	}
	p.failed += res.Failed

	l := p.logger.With("run", shortRunID(res.RunID), "snapshot", res.Snapshot)
	if res.Failed > 0 {
		l.Warn("source finished with failed records", "records", len(res.Document.Records), "failed", res.Failed)
		return
	}
	l.Info("source finished", "records", len(res.Document.Records), "changed", res.Changed)
}

// done logs the totals across all recorded sources and the elapsed time.
func (p *fetchProgress) done() {
	p.logger.Info("fetch finished",
		"sources", p.changed+p.unchanged,
		"changed", p.changed,
		"unchanged", p.unchanged,
		"failed_records", p.failed,
		"elapsed", p.clock.Since(p.start).Round(time.Millisecond),
	)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the command logger, or log.Default when the
// command ran without the root's pre-run.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
