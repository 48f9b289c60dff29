package snapshot

import (
	"maps"

	"github.com/jonboulle/clockwork"
)

// DefaultHistoryLimit caps the history kept by writers that track it.
const DefaultHistoryLimit = 100

// Writer builds replacement snapshot documents.
//
// The zero value writes "repositories" documents with no history using the
// real clock.
type Writer struct {
	Clock clockwork.Clock

	// RecordsKey names the records mapping (default "repositories").
	RecordsKey string

	// Meta is copied into every document written.
	Meta map[string]string

	// HistoryLimit > 0 appends a totals entry on every change, keeping the
	// newest HistoryLimit entries. Zero disables history.
	HistoryLimit int
}

// Write returns the document replacing prev, which may be nil.
//
// last_updated is set to now when records or totals differ from prev, and
// carried over otherwise. Everything else comes from the arguments; nothing is
// merged from prev except its history. changed reports which case applied.
func (w *Writer) Write(records map[string]Record, totals map[string]int64, prev *Document) (doc *Document, changed bool) {
	clock := w.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	changed = Changed(records, totals, prev)
	doc = &Document{
		RecordsKey: w.RecordsKey,
		Meta:       maps.Clone(w.Meta),
		Totals:     maps.Clone(totals),
		Records:    maps.Clone(records),
	}
	if doc.Totals == nil {
		doc.Totals = map[string]int64{}
	}
	if doc.Records == nil {
		doc.Records = map[string]Record{}
	}

	if changed {
		doc.LastUpdated = clock.Now().UTC().Format(TimestampLayout)
	} else {
		doc.LastUpdated = prev.LastUpdated
	}

	if w.HistoryLimit > 0 {
		if prev != nil {
			doc.History = append(doc.History, prev.History...)
		}
		if changed {
			doc.History = append(doc.History, HistoryEntry{
				Timestamp: doc.LastUpdated,
				Totals:    maps.Clone(doc.Totals),
			})
		}
		if n := len(doc.History); n > w.HistoryLimit {
			doc.History = doc.History[n-w.HistoryLimit:]
		}
	}
	return doc, changed
}

// Changed reports whether records or totals differ structurally from prev.
// A nil prev, or one without a timestamp, always counts as changed.
func Changed(records map[string]Record, totals map[string]int64, prev *Document) bool {
	if prev == nil || prev.LastUpdated == "" {
		return true
	}
	return !Equal(records, prev.Records) || !Equal(totals, prev.Totals)
}
