package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// DefaultRecordsKey names the records mapping in a snapshot document.
const DefaultRecordsKey = "repositories"

// TimestampLayout formats last_updated and history timestamps
// (ISO 8601 with microseconds and a numeric UTC offset).
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Record holds the statistics of one resource, or a single "error" field
// when fetching it failed.
type Record map[string]any

// ErrorRecord captures a per-resource fetch failure.
func ErrorRecord(err error) Record {
	return Record{"error": err.Error()}
}

// Err returns the captured error message, if r is an error record.
func (r Record) Err() (string, bool) {
	msg, ok := r["error"].(string)
	return msg, ok && len(r) == 1
}

// HistoryEntry is a timestamped copy of the totals. It encodes flat:
//
//	{"timestamp": "...", "total_page_views": 42}
type HistoryEntry struct {
	Timestamp string
	Totals    map[string]int64
}

// MarshalJSON implements [json.Marshaler].
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, "timestamp", h.Timestamp, true); err != nil {
		return nil, err
	}
	for _, k := range sortedKeys(h.Totals) {
		if err := writeField(&buf, k, h.Totals[k], false); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements [json.Unmarshaler].
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	h.Timestamp = ""
	h.Totals = make(map[string]int64)
	for k, v := range raw {
		if k == "timestamp" {
			if err := json.Unmarshal(v, &h.Timestamp); err != nil {
				return fmt.Errorf("history timestamp: %w", err)
			}
			continue
		}
		if n, ok := toInt(v); ok {
			h.Totals[k] = n
		}
	}
	return nil
}

// Document is one snapshot. It encodes with a fixed key order:
//
//	{"last_updated": ..., <meta>..., "totals": {...}, <records key>: {...}, "history": [...]}
//
// History is omitted when empty.
type Document struct {
	LastUpdated string
	Meta        map[string]string
	Totals      map[string]int64
	RecordsKey  string
	Records     map[string]Record
	History     []HistoryEntry
}

func (d *Document) recordsKey() string {
	if d.RecordsKey == "" {
		return DefaultRecordsKey
	}
	return d.RecordsKey
}

// MarshalJSON implements [json.Marshaler].
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, "last_updated", d.LastUpdated, true); err != nil {
		return nil, err
	}
	for _, k := range sortedKeys(d.Meta) {
		if err := writeField(&buf, k, d.Meta[k], false); err != nil {
			return nil, err
		}
	}
	totals := d.Totals
	if totals == nil {
		totals = map[string]int64{}
	}
	if err := writeField(&buf, "totals", totals, false); err != nil {
		return nil, err
	}
	records := d.Records
	if records == nil {
		records = map[string]Record{}
	}
	if err := writeField(&buf, d.recordsKey(), records, false); err != nil {
		return nil, err
	}
	if len(d.History) > 0 {
		if err := writeField(&buf, "history", d.History, false); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements [json.Unmarshaler]. Set RecordsKey before
// decoding when the records live under a key other than "repositories".
// Top-level string fields other than last_updated become Meta.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	key := d.recordsKey()
	*d = Document{RecordsKey: d.RecordsKey, Totals: map[string]int64{}, Records: map[string]Record{}}

	for k, v := range raw {
		switch k {
		case "last_updated":
			_ = json.Unmarshal(v, &d.LastUpdated)
		case "totals":
			var totals map[string]json.RawMessage
			if err := json.Unmarshal(v, &totals); err != nil {
				return fmt.Errorf("totals: %w", err)
			}
			for name, n := range totals {
				if i, ok := toInt(n); ok {
					d.Totals[name] = i
				}
			}
		case key:
			dec := json.NewDecoder(bytes.NewReader(v))
			dec.UseNumber()
			if err := dec.Decode(&d.Records); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		case "history":
			if err := json.Unmarshal(v, &d.History); err != nil {
				return fmt.Errorf("history: %w", err)
			}
		default:
			var s string
			if json.Unmarshal(v, &s) == nil {
				if d.Meta == nil {
					d.Meta = make(map[string]string)
				}
				d.Meta[k] = s
			}
		}
	}
	return nil
}

// Decode parses a stored snapshot whose records live under recordsKey.
func Decode(data []byte, recordsKey string) (*Document, error) {
	doc := &Document{RecordsKey: recordsKey}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc, nil
}

// DecodeAny parses a stored snapshot without knowing its records key. The
// first top-level object other than totals holds the records.
func DecodeAny(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	key := DefaultRecordsKey
	for _, k := range sortedKeys(raw) {
		v := bytes.TrimSpace(raw[k])
		if k != "totals" && len(v) > 0 && v[0] == '{' {
			key = k
			break
		}
	}
	return Decode(data, key)
}

// Encode renders doc with two-space indentation and a trailing newline.
func Encode(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Equal reports whether a and b encode to the same canonical JSON. Numbers
// compare by value regardless of their Go type.
func Equal(a, b any) bool {
	ca, errA := canonical(a)
	cb, errB := canonical(b)
	return errA == nil && errB == nil && bytes.Equal(ca, cb)
}

func canonical(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	// Round-trip through a generic value so nil and empty maps agree.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	if m, ok := generic.(map[string]any); ok && len(m) == 0 {
		generic = nil
	}
	return json.Marshal(normalizeNumbers(generic))
}

// normalizeNumbers rewrites numbers into one spelling per value, so 5, 5.0
// and 5e0 compare equal.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return t
		}
		f, err := t.Float64()
		if err != nil {
			return t
		}
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return json.Number(strconv.FormatInt(int64(f), 10))
		}
		return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return v
}

func toInt(raw json.RawMessage) (int64, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int64(f), true
}

func writeField(buf *bytes.Buffer, key string, v any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
