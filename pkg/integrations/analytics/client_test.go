package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = `{"rows":[
	{"dimensionValues":[{"value":"/blog/a"}],"metricValues":[{"value":"120"}]},
	{"dimensionValues":[{"value":"/blog/b"}],"metricValues":[{"value":"30"}]},
	{"dimensionValues":[{"value":"/about"}],"metricValues":[{"value":"50"}]}
],"rowCount":3}`

type recorder struct {
	calls  int
	bodies []map[string]any
}

func testClient(t *testing.T, rec *recorder, status int) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/properties/42:runReport", r.URL.Path)
		assert.Equal(t, "Bearer ya29.token", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rec.bodies = append(rec.bodies, body)

		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"code":403,"message":"permission denied"}}`)
			return
		}
		fmt.Fprint(w, report)
	}))
	t.Cleanup(server.Close)

	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC))
	c, err := NewClient(Options{
		PropertyID:  "42",
		TokenSource: StaticToken("ya29.token"),
		BaseURL:     server.URL,
		HTTPClient:  server.Client(),
		Clock:       clock,
		Sleep: func(_ context.Context, d time.Duration) error {
			clock.Advance(d)
			return nil
		},
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_PageViews(t *testing.T) {
	rec := &recorder{}
	c := testClient(t, rec, http.StatusOK)
	ctx := context.Background()

	views, err := c.PageViews(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"/blog/a": 120, "/blog/b": 30, "/about": 50}, views)

	total, err := c.TotalPageViews(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 200, total)

	about, err := c.PageViewCount(ctx, "/about", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 50, about)

	missing, err := c.PageViewCount(ctx, "/nope", 0)
	require.NoError(t, err)
	assert.Zero(t, missing)

	assert.Equal(t, 1, rec.calls, "report should be cached")

	body := rec.bodies[0]
	ranges := body["dateRanges"].([]any)
	assert.Equal(t, AllTimeStart, ranges[0].(map[string]any)["startDate"])
	assert.Equal(t, "pagePath", body["dimensions"].([]any)[0].(map[string]any)["name"])
	assert.Equal(t, "screenPageViews", body["metrics"].([]any)[0].(map[string]any)["name"])
}

func TestClient_DateRange(t *testing.T) {
	rec := &recorder{}
	c := testClient(t, rec, http.StatusOK)

	_, err := c.PageViews(context.Background(), 30)
	require.NoError(t, err)

	ranges := rec.bodies[0]["dateRanges"].([]any)
	assert.Equal(t, "2025-03-01", ranges[0].(map[string]any)["startDate"])
	assert.Equal(t, "today", ranges[0].(map[string]any)["endDate"])
}

func TestClient_BlogPostViews(t *testing.T) {
	c := testClient(t, &recorder{}, http.StatusOK)

	posts, err := c.BlogPostViews(context.Background(), DefaultBlogPrefix, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"/blog/a": 120, "/blog/b": 30}, posts)
}

func TestClient_Forbidden(t *testing.T) {
	rec := &recorder{}
	c := testClient(t, rec, http.StatusForbidden)

	_, err := c.PageViews(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, 1, rec.calls, "403 is fatal for analytics")
}

func TestNewClient_NoProperty(t *testing.T) {
	_, err := NewClient(Options{})
	assert.True(t, errors.Is(err, ErrNoProperty))
}

func TestParseRows(t *testing.T) {
	views := parseRows([]byte(`{"rows":[
		{"dimensionValues":[{"value":"/x"}],"metricValues":[{"value":"bad"}]},
		{"dimensionValues":[{"value":""}],"metricValues":[{"value":"3"}]},
		{"dimensionValues":[{"value":"/y"}],"metricValues":[{"value":"4"}]}]}`))
	assert.Equal(t, map[string]int64{"/y": 4}, views)

	assert.Empty(t, parseRows([]byte(`{}`)))
}
