package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/matzehuels/statsnap/pkg/httputil"
	"github.com/matzehuels/statsnap/pkg/integrations"
)

const (
	// DefaultBaseURL is the Google Analytics Data API.
	DefaultBaseURL = "https://analyticsdata.googleapis.com"

	// DefaultMinInterval spaces consecutive report requests.
	DefaultMinInterval = 100 * time.Millisecond

	// DefaultBlogPrefix selects blog posts among page paths.
	DefaultBlogPrefix = "/blog/"

	// AllTimeStart is the start date used when no day range is given.
	// GA4 properties hold no data before this date.
	AllTimeStart = "2020-10-14"

	rowLimit = 10000
)

// ErrNoProperty is returned when the client has no GA4 property ID.
var ErrNoProperty = errors.New("analytics: no property ID specified")

// Options configures a [Client].
type Options struct {
	PropertyID string

	// TokenSource authorizes report requests. Loading credentials is the
	// caller's concern; see [StaticToken].
	TokenSource oauth2.TokenSource
	BaseURL     string

	MinInterval time.Duration
	MaxRetries  int
	CacheTTL    time.Duration

	HTTPClient *http.Client
	Clock      clockwork.Clock
	Sleep      httputil.Sleeper
	Logger     *log.Logger
}

// StaticToken returns a token source that always yields accessToken.
func StaticToken(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

// Client reads page view counts from a GA4 property.
type Client struct {
	*integrations.Client
	property string
	clock    clockwork.Clock
}

// NewClient creates a GA4 client.
func NewClient(opts Options) (*Client, error) {
	if opts.PropertyID == "" {
		return nil, ErrNoProperty
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MinInterval == 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = integrations.NewHTTPClient()
	}
	if opts.TokenSource != nil {
		httpClient = &http.Client{
			Timeout:   httpClient.Timeout,
			Transport: &oauth2.Transport{Source: opts.TokenSource, Base: httpClient.Transport},
		}
	}

	return &Client{
		Client: integrations.NewClient(integrations.Options{
			Name:        "analytics",
			BaseURL:     opts.BaseURL,
			Headers:     map[string]string{"Accept": "application/json"},
			MinInterval: opts.MinInterval,
			MaxRetries:  opts.MaxRetries,
			CacheTTL:    opts.CacheTTL,
			HTTPClient:  httpClient,
			Clock:       opts.Clock,
			Sleep:       opts.Sleep,
			Logger:      opts.Logger,
		}),
		property: opts.PropertyID,
		clock:    opts.Clock,
	}, nil
}

// PropertyID returns the GA4 property the client reports on.
func (c *Client) PropertyID() string { return c.property }

// PageViews returns screenPageViews per page path over the last days days,
// or all time when days <= 0. The whole report is cached for the client's
// cache TTL.
func (c *Client) PageViews(ctx context.Context, days int) (map[string]int64, error) {
	start := AllTimeStart
	if days > 0 {
		start = c.clock.Now().AddDate(0, 0, -days).Format(time.DateOnly)
	}
	key := "report:" + start

	body, err := c.Cached(ctx, key, true, func() ([]byte, error) {
		c.Logger().Info("fetching page views", "property", c.property, "start", start)
		resp, err := c.Do(ctx, &httputil.Request{
			Method: http.MethodPost,
			Path:   "/v1beta/properties/" + url.PathEscape(c.property) + ":runReport",
			Body:   newReportRequest(start),
		})
		if err != nil {
			return nil, fmt.Errorf("run report: %w", err)
		}
		return resp.Body, nil
	})
	if err != nil {
		return nil, err
	}

	views := parseRows(body)
	c.Logger().Debug("fetched page views", "pages", len(views))
	return views, nil
}

// PageViewCount returns the views of one page path, or 0 if it has none.
func (c *Client) PageViewCount(ctx context.Context, path string, days int) (int64, error) {
	views, err := c.PageViews(ctx, days)
	if err != nil {
		return 0, err
	}
	return views[path], nil
}

// BlogPostViews returns the views of every page path starting with prefix.
func (c *Client) BlogPostViews(ctx context.Context, prefix string, days int) (map[string]int64, error) {
	views, err := c.PageViews(ctx, days)
	if err != nil {
		return nil, err
	}
	posts := make(map[string]int64)
	for path, n := range views {
		if strings.HasPrefix(path, prefix) {
			posts[path] = n
		}
	}
	c.Logger().Info("found blog posts", "prefix", prefix, "count", len(posts))
	return posts, nil
}

// TotalPageViews sums the views of all page paths.
func (c *Client) TotalPageViews(ctx context.Context, days int) (int64, error) {
	views, err := c.PageViews(ctx, days)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, n := range views {
		total += n
	}
	return total, nil
}

type reportRequest struct {
	Dimensions []named     `json:"dimensions"`
	Metrics    []named     `json:"metrics"`
	DateRanges []dateRange `json:"dateRanges"`
	Limit      string      `json:"limit"`
}

type named struct {
	Name string `json:"name"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func newReportRequest(start string) reportRequest {
	return reportRequest{
		Dimensions: []named{{Name: "pagePath"}},
		Metrics:    []named{{Name: "screenPageViews"}},
		DateRanges: []dateRange{{StartDate: start, EndDate: "today"}},
		Limit:      strconv.Itoa(rowLimit),
	}
}

// parseRows reads {dimensionValues[0].value: metricValues[0].value} pairs.
// Metric values arrive as decimal strings.
func parseRows(body []byte) map[string]int64 {
	views := make(map[string]int64)
	gjson.GetBytes(body, "rows").ForEach(func(_, row gjson.Result) bool {
		path := row.Get("dimensionValues.0.value").String()
		n, err := strconv.ParseInt(row.Get("metricValues.0.value").String(), 10, 64)
		if path != "" && err == nil {
			views[path] += n
		}
		return true
	})
	return views
}
