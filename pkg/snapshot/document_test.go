package snapshot

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDocument_KeyOrder(t *testing.T) {
	doc := &Document{
		LastUpdated: "T1",
		Meta:        map[string]string{"property_id": "42", "blog_path_prefix": "/blog/"},
		Totals:      map[string]int64{"total_page_views": 7},
		RecordsKey:  "blog_posts",
		Records:     map[string]Record{"/blog/a": {"page_views": 7}},
		History:     []HistoryEntry{{Timestamp: "T1", Totals: map[string]int64{"total_page_views": 7}}},
	}
	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	text := string(data)
	order := []string{`"last_updated"`, `"blog_path_prefix"`, `"property_id"`, `"totals"`, `"blog_posts"`, `"history"`}
	last := -1
	for _, key := range order {
		i := strings.Index(text, key)
		if i < 0 || i < last {
			t.Fatalf("key %s out of order in:\n%s", key, text)
		}
		last = i
	}
	if !strings.Contains(text, "\n  \"totals\": {\n    \"total_page_views\": 7\n  }") {
		t.Errorf("expected two-space indentation, got:\n%s", text)
	}
	if !strings.Contains(text, `"timestamp": "T1",`) {
		t.Errorf("history entry not flat:\n%s", text)
	}
}

func TestDocument_OmitsEmptyHistory(t *testing.T) {
	data, err := Encode(&Document{LastUpdated: "T"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "history") {
		t.Errorf("unexpected history in %s", data)
	}
	if !strings.Contains(string(data), `"repositories": {}`) {
		t.Errorf("expected empty repositories in %s", data)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	in := `{
  "last_updated": "2025-01-01T00:00:00.000000+00:00",
  "property_id": "42",
  "totals": {"total_blog_posts": 1, "total_page_views": 9},
  "blog_posts": {"/blog/a": {"page_views": 9}},
  "history": [{"timestamp": "2025-01-01T00:00:00.000000+00:00", "total_blog_posts": 1, "total_page_views": 9}]
}`
	doc, err := Decode([]byte(in), "blog_posts")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if doc.Meta["property_id"] != "42" {
		t.Errorf("Meta = %v", doc.Meta)
	}
	if doc.Totals["total_page_views"] != 9 || len(doc.Records) != 1 {
		t.Errorf("Totals = %v, Records = %v", doc.Totals, doc.Records)
	}
	if len(doc.History) != 1 || doc.History[0].Totals["total_blog_posts"] != 1 {
		t.Errorf("History = %+v", doc.History)
	}

	out, err := Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	again, err := Decode(out, "blog_posts")
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(doc, again) {
		t.Errorf("round trip changed the document:\n%s", out)
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode([]byte(`not json`), ""); err == nil {
		t.Error("expected error")
	}
	if _, err := Decode([]byte(`{"totals": []}`), ""); err == nil {
		t.Error("expected error for malformed totals")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"int types", map[string]Record{"a": {"n": 5}}, map[string]Record{"a": {"n": int64(5)}}, true},
		{"float integral", map[string]any{"n": 5.0}, map[string]any{"n": 5}, true},
		{"decoded float", map[string]any{"n": json.Number("5.0")}, map[string]any{"n": int64(5)}, true},
		{"decoded exponent", map[string]any{"n": json.Number("1.5e0")}, map[string]any{"n": 1.5}, true},
		{"different value", map[string]Record{"a": {"n": 5}}, map[string]Record{"a": {"n": 6}}, false},
		{"extra key", map[string]int64{"a": 1}, map[string]int64{"a": 1, "b": 2}, false},
		{"nil and empty", map[string]Record(nil), map[string]Record{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeAny(t *testing.T) {
	tests := []struct {
		name string
		data string
		key  string
		want int
	}{
		{"repositories", `{"last_updated":"T","totals":{"total_pulls":1},"repositories":{"a/b":{"pull_count":1}}}`, "repositories", 1},
		{"blog posts", `{"last_updated":"T","property_id":"1","totals":{},"blog_posts":{"/blog/x":{"page_views":3},"/blog/y":{"page_views":4}}}`, "blog_posts", 2},
		{"no records", `{"last_updated":"T","totals":{}}`, DefaultRecordsKey, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeAny([]byte(tt.data))
			if err != nil {
				t.Fatalf("DecodeAny() error: %v", err)
			}
			if doc.RecordsKey != tt.key {
				t.Errorf("RecordsKey = %q, want %q", doc.RecordsKey, tt.key)
			}
			if len(doc.Records) != tt.want {
				t.Errorf("len(Records) = %d, want %d", len(doc.Records), tt.want)
			}
		})
	}
}
