package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/matzehuels/statsnap/pkg/httputil"
	"github.com/matzehuels/statsnap/pkg/observability"
)

// Options configures a [Client]. Only BaseURL is required.
type Options struct {
	// Name identifies the API in logs and hooks (e.g. "github").
	Name    string
	BaseURL string
	Headers map[string]string

	MinInterval time.Duration
	MaxRetries  int
	CacheTTL    time.Duration

	// RateLimited reports which statuses mean "slow down". Defaults to 429 only.
	RateLimited func(status int) bool

	HTTPClient *http.Client
	Clock      clockwork.Clock
	Sleep      httputil.Sleeper
	Logger     *log.Logger
}

// Client provides shared HTTP functionality for all statistics API clients.
// It owns one HTTP session, one rate limiter and one resource cache; nothing
// is shared between instances. Call [Client.Close] when done:
//
//	c := integrations.NewClient(opts)
//	defer c.Close()
type Client struct {
	name   string
	exec   *httputil.Executor
	cache  *httputil.Cache
	http   *http.Client
	logger *log.Logger
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = httputil.DefaultCacheTTL
	}
	logger := opts.Logger
	if opts.Name != "" {
		logger = logger.WithPrefix(opts.Name)
	}

	header := make(http.Header, len(opts.Headers))
	for k, v := range opts.Headers {
		header.Set(k, v)
	}

	c := &Client{
		name: opts.Name,
		exec: httputil.NewExecutor(httputil.ExecutorConfig{
			BaseURL:     opts.BaseURL,
			Header:      header,
			HTTPClient:  opts.HTTPClient,
			MinInterval: opts.MinInterval,
			MaxRetries:  opts.MaxRetries,
			RateLimited: opts.RateLimited,
			Clock:       opts.Clock,
			Sleep:       opts.Sleep,
			Logger:      logger,
		}),
		cache:  httputil.NewCache(opts.CacheTTL, opts.Clock),
		http:   opts.HTTPClient,
		logger: logger,
	}
	logger.Debug("initialized client", "base_url", opts.BaseURL)
	return c
}

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger { return c.logger }

// Quota returns the rate-limit bookkeeping from the latest response headers.
func (c *Client) Quota() *httputil.Quota { return c.exec.Quota() }

// Do executes a raw request through the rate limiter and retry policy.
func (c *Client) Do(ctx context.Context, req *httputil.Request) (*httputil.Response, error) {
	return c.exec.Do(ctx, req)
}

// Get performs a GET request and JSON-decodes the response into v.
// A nil v discards the body.
func (c *Client) Get(ctx context.Context, path string, query url.Values, v any) error {
	return c.send(ctx, &httputil.Request{Method: http.MethodGet, Path: path, Query: query}, v)
}

// Post sends body as JSON and decodes the response into v.
func (c *Client) Post(ctx context.Context, path string, body, v any) error {
	return c.send(ctx, &httputil.Request{Method: http.MethodPost, Path: path, Body: body}, v)
}

// Put sends body as JSON and decodes the response into v.
func (c *Client) Put(ctx context.Context, path string, body, v any) error {
	return c.send(ctx, &httputil.Request{Method: http.MethodPut, Path: path, Body: body}, v)
}

// Delete performs a DELETE request. Any response body is ignored.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.exec.Do(ctx, &httputil.Request{Method: http.MethodDelete, Path: path})
	return err
}

func (c *Client) send(ctx context.Context, req *httputil.Request, v any) error {
	resp, err := c.exec.Do(ctx, req)
	if err != nil {
		return err
	}
	return decode(resp.Body, v)
}

// Resource returns the body of the resource at path, identified by key.
// With useCache, a cached body younger than the cache TTL is returned without
// a request; otherwise the resource is fetched and the cache refreshed.
func (c *Client) Resource(ctx context.Context, key, path string, useCache bool) (json.RawMessage, error) {
	return c.Cached(ctx, key, useCache, func() ([]byte, error) {
		c.logger.Info("fetching resource", "key", key)
		resp, err := c.exec.Do(ctx, &httputil.Request{Method: http.MethodGet, Path: path})
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	})
}

// Cached returns the body stored under key or calls fetch and stores its result.
// If useCache is false the cache is bypassed for reading but still refreshed.
func (c *Client) Cached(ctx context.Context, key string, useCache bool, fetch func() ([]byte, error)) (json.RawMessage, error) {
	hooks := observability.Cache()
	if useCache {
		body, ok, err := c.cache.Get(key)
		if ok {
			c.logger.Debug("using cached data", "key", key)
			hooks.OnCacheHit(ctx, c.name)
			return body, nil
		}
		hooks.OnCacheMiss(ctx, c.name, errors.Is(err, httputil.ErrExpired))
	}

	body, err := fetch()
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, body)
	hooks.OnCacheSet(ctx, c.name, len(body))
	return body, nil
}

// Prime stores body under key as if it had just been fetched. Listing
// endpoints use it so that later [Client.Resource] calls hit the cache.
func (c *Client) Prime(key string, body []byte) {
	c.cache.Set(key, body)
	c.logger.Debug("cached resource", "key", key)
}

// Paginate returns a [Pager] over the collection at path. query is sent with
// the first page only; maxPages <= 0 means no cap.
func (c *Client) Paginate(path string, query url.Values, strategy PageStrategy, maxPages int) *Pager {
	return &Pager{
		client:   c,
		endpoint: path,
		next:     path,
		query:    query,
		strategy: strategy,
		maxPages: maxPages,
	}
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	c.logger.Debug("closed client session")
	return nil
}

func decode(body []byte, v any) error {
	if v == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
