package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/tidwall/gjson"

	"github.com/matzehuels/statsnap/pkg/observability"
)

// DefaultTimeout bounds every HTTP round trip.
const DefaultTimeout = 30 * time.Second

// Request describes one logical API call. Path is either relative to the
// executor's base URL or absolute. Query is merged into any query already in Path.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RateLimitedOn429 is the default rate-limit signal.
func RateLimitedOn429(status int) bool { return status == http.StatusTooManyRequests }

// ExecutorConfig configures an [Executor].
type ExecutorConfig struct {
	BaseURL    string
	Header     http.Header
	HTTPClient *http.Client

	// MinInterval between requests; zero disables spacing.
	MinInterval time.Duration

	// MaxRetries defaults to DefaultMaxRetries when zero; negative disables retries.
	MaxRetries int
	BaseDelay  time.Duration

	// RateLimited reports whether a status code means "slow down".
	// Defaults to [RateLimitedOn429].
	RateLimited    func(status int) bool
	QuotaThreshold int

	Clock  clockwork.Clock
	Sleep  Sleeper
	Logger *log.Logger
}

// Executor issues requests with rate limiting, quota tracking and retries.
type Executor struct {
	base        string
	header      http.Header
	http        *http.Client
	limiter     *Limiter
	quota       *Quota
	backoff     Backoff
	rateLimited func(int) bool
	clock       clockwork.Clock
	sleep       Sleeper
	logger      *log.Logger
}

// NewExecutor creates an Executor from cfg, filling in defaults.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = ClockSleeper(cfg.Clock)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.RateLimited == nil {
		cfg.RateLimited = RateLimitedOn429
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	e := &Executor{
		base:        strings.TrimRight(cfg.BaseURL, "/"),
		header:      cfg.Header,
		http:        cfg.HTTPClient,
		limiter:     NewLimiter(cfg.MinInterval, cfg.Clock, cfg.Sleep),
		quota:       &Quota{Threshold: cfg.QuotaThreshold},
		rateLimited: cfg.RateLimited,
		clock:       cfg.Clock,
		sleep:       cfg.Sleep,
		logger:      cfg.Logger,
	}
	e.backoff = Backoff{
		MaxRetries: cfg.MaxRetries,
		Base:       cfg.BaseDelay,
		Sleep:      cfg.Sleep,
		OnRetry: func(retry int, wait time.Duration, out Outcome) {
			e.logger.Warn("retrying request", "err", out.Err, "wait", wait, "retry", retry, "max", cfg.MaxRetries)
		},
	}
	return e
}

// Quota exposes the current quota bookkeeping.
func (e *Executor) Quota() *Quota { return e.quota }

// HTTPClient returns the underlying client.
func (e *Executor) HTTPClient() *http.Client { return e.http }

// Relative normalizes a next-page link returned by the API into a path that
// resolves against the executor's base URL.
func (e *Executor) Relative(link string) string {
	return TrimBase(RelativeRef(link), e.base)
}

// Do executes req and returns the response of the first successful attempt.
func (e *Executor) Do(ctx context.Context, req *Request) (*Response, error) {
	target, err := e.resolve(req)
	if err != nil {
		return nil, err
	}
	var payload []byte
	if req.Body != nil {
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var resp *Response
	attempts, err := e.backoff.Run(ctx, func() Outcome {
		var out Outcome
		resp, out = e.attempt(ctx, method, target, req.Header, payload)
		return out
	})
	if err != nil {
		var re *RetryError
		if errors.As(err, &re) {
			re.Method, re.Endpoint = method, target
			e.logger.Error("giving up on request", "method", method, "url", target, "attempts", attempts)
		}
		return nil, err
	}
	return resp, nil
}

func (e *Executor) attempt(ctx context.Context, method, target string, header http.Header, payload []byte) (*Response, Outcome) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, Failed(err)
	}
	if wait := e.quota.Wait(e.clock.Now()); wait > 0 {
		e.logger.Warn("rate limit low, sleeping until reset", "remaining", e.quota.Remaining, "wait", wait.Round(time.Second))
		if err := e.sleep(ctx, wait); err != nil {
			return nil, Failed(err)
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, Failed(err)
	}
	for k, vs := range e.header {
		httpReq.Header[k] = vs
	}
	for k, vs := range header {
		httpReq.Header[k] = vs
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, httpReq.URL.Host, httpReq.URL.Path)
	e.logger.Debug("request", "method", method, "url", target)
	start := e.clock.Now()

	httpResp, err := e.http.Do(httpReq)
	if err != nil {
		e.limiter.Mark()
		hooks.OnError(ctx, method, httpReq.URL.Host, httpReq.URL.Path, err)
		if ctx.Err() != nil {
			return nil, Failed(ctx.Err())
		}
		return nil, RetryAfter(fmt.Errorf("%w: %v", ErrNetwork, err), 0)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	e.limiter.Mark()
	hooks.OnResponse(ctx, method, httpReq.URL.Host, httpReq.URL.Path, httpResp.StatusCode, e.clock.Since(start))
	e.quota.Update(httpResp.Header)
	if err != nil {
		return nil, RetryAfter(fmt.Errorf("%w: read body: %v", ErrNetwork, err), 0)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}
	return resp, e.classify(method, target, resp)
}

// classify maps a response to an Outcome.
func (e *Executor) classify(method, target string, resp *Response) Outcome {
	code := resp.StatusCode
	statusErr := func(kind error) *StatusError {
		return &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: code,
			Message:    errorMessage(resp.Body),
			kind:       kind,
		}
	}

	switch {
	case e.rateLimited(code):
		return RetryAfter(statusErr(ErrRateLimited), retryAfter(resp.Header, e.clock.Now()))
	case code >= 200 && code < 300:
		return Succeeded()
	case code == http.StatusNotFound:
		return Failed(statusErr(ErrNotFound))
	case code >= 500:
		return RetryAfter(statusErr(ErrNetwork), 0)
	default:
		return Failed(statusErr(ErrHTTP))
	}
}

func (e *Executor) resolve(req *Request) (string, error) {
	raw := req.Path
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = e.base + "/" + strings.TrimLeft(raw, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", req.Path, err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// retryAfter parses Retry-After as delta-seconds or an HTTP date.
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func errorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "message"); msg.Exists() {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return msg.String()
	}
	return ""
}
