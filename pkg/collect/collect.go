package collect

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/statsnap/pkg/snapshot"
)

// Result is the output of one collection run.
type Result struct {
	// Records maps resource keys to statistics or error records.
	Records map[string]snapshot.Record
	Totals  map[string]int64

	// Meta holds top-level string fields written next to last_updated.
	Meta map[string]string
}

// Failed returns the number of error records.
func (r *Result) Failed() int {
	n := 0
	for _, rec := range r.Records {
		if _, ok := rec.Err(); ok {
			n++
		}
	}
	return n
}

// Collector fetches the current statistics of one data source.
//
// A failure to fetch a single resource is recorded as an error record in the
// result. Collect only returns an error when the source as a whole could not
// be read (e.g. the repository listing failed).
type Collector interface {
	Name() string
	Collect(ctx context.Context) (*Result, error)
}

func newResult() *Result {
	return &Result{
		Records: make(map[string]snapshot.Record),
		Totals:  make(map[string]int64),
	}
}

func loggerOr(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}

// unique appends the entries of more to keys, skipping duplicates and
// keeping first-seen order.
func unique(keys []string, more ...string) []string {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	for _, k := range more {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
