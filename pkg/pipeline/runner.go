package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/matzehuels/statsnap/pkg/collect"
	"github.com/matzehuels/statsnap/pkg/observability"
	"github.com/matzehuels/statsnap/pkg/snapshot"
)

// Job describes one snapshot refresh.
type Job struct {
	// Collector fetches the current statistics.
	Collector collect.Collector

	// Snapshot is the store name (default "<collector name>-stats").
	Snapshot string

	// RecordsKey names the records mapping (default "repositories").
	RecordsKey string

	// HistoryLimit > 0 keeps a totals history of that many entries.
	HistoryLimit int
}

func (j Job) snapshotName() string {
	if j.Snapshot != "" {
		return j.Snapshot
	}
	return j.Collector.Name() + "-stats"
}

// Result reports the outcome of one [Runner.Run].
type Result struct {
	RunID    string
	Snapshot string
	Document *snapshot.Document
	Changed  bool
	Failed   int
	Duration time.Duration
}

// Runner loads the previous snapshot, collects, writes the replacement
// document and saves it.
//
// The Runner is stateless except for the store, clock and logger; Jobs run
// one after another.
type Runner struct {
	Store  snapshot.Store
	Clock  clockwork.Clock
	Logger *log.Logger
}

// NewRunner creates a runner over store.
// If clock is nil, the real clock is used.
// If logger is nil, the default logger is used.
func NewRunner(store snapshot.Store, clock clockwork.Clock, logger *log.Logger) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Store: store, Clock: clock, Logger: logger}
}

// Run executes job. Per-resource failures end up as error records in the
// snapshot; only a failed collection or a store failure returns an error, in
// which case the stored snapshot is left untouched.
func (r *Runner) Run(ctx context.Context, job Job) (res *Result, err error) {
	if job.Collector == nil {
		return nil, errors.New("pipeline: job has no collector")
	}
	name := job.snapshotName()
	res = &Result{RunID: uuid.NewString(), Snapshot: name}
	logger := r.Logger.With("run", res.RunID[:8], "source", job.Collector.Name())

	hooks := observability.Run()
	hooks.OnRunStart(ctx, job.Collector.Name())
	start := r.Clock.Now()
	defer func() {
		res.Duration = r.Clock.Since(start)
		records := 0
		if res.Document != nil {
			records = len(res.Document.Records)
		}
		hooks.OnRunComplete(ctx, job.Collector.Name(), records, res.Changed, res.Duration, err)
	}()

	prev, err := snapshot.Load(ctx, r.Store, name, job.RecordsKey)
	if err != nil {
		return res, err
	}
	if prev != nil {
		logger.Debug("loaded previous snapshot", "last_updated", prev.LastUpdated, "records", len(prev.Records))
	}

	collected, err := job.Collector.Collect(ctx)
	if err != nil {
		return res, fmt.Errorf("collect %s: %w", job.Collector.Name(), err)
	}

	w := &snapshot.Writer{
		Clock:        r.Clock,
		RecordsKey:   job.RecordsKey,
		Meta:         collected.Meta,
		HistoryLimit: job.HistoryLimit,
	}
	res.Document, res.Changed = w.Write(collected.Records, collected.Totals, prev)
	res.Failed = collected.Failed()

	if err := snapshot.Save(ctx, r.Store, name, res.Document); err != nil {
		return res, err
	}

	if res.Changed {
		logger.Info("changes detected, snapshot updated", "snapshot", name, "records", len(res.Document.Records), "failed", res.Failed)
	} else {
		logger.Info("no changes detected", "snapshot", name, "last_updated", res.Document.LastUpdated)
	}
	return res, nil
}

// RunAll runs every job in order and stops at the first error.
func (r *Runner) RunAll(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, 0, len(jobs))
	for _, job := range jobs {
		res, err := r.Run(ctx, job)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Close releases resources held by the runner (primarily the store).
func (r *Runner) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}
