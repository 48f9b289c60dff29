package github

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
	"github.com/matzehuels/statsnap/pkg/integrations"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"

	// DefaultMinInterval spaces consecutive requests.
	DefaultMinInterval = 500 * time.Millisecond

	// APIVersion is sent as X-GitHub-Api-Version.
	APIVersion = "2022-11-28"

	perPage = 100
)

// ErrNoOwner is returned when neither the call nor the client names an owner.
var ErrNoOwner = errors.New("github: no owner specified")

// Options configures a [Client]. The zero value talks to api.github.com
// anonymously.
type Options struct {
	Token   string
	Owner   string
	BaseURL string

	MinInterval time.Duration
	MaxRetries  int
	CacheTTL    time.Duration

	HTTPClient *http.Client
	Clock      clockwork.Clock
	Sleep      httputil.Sleeper
	Logger     *log.Logger
}

// Client reads repository statistics from the GitHub API.
type Client struct {
	*integrations.Client
	owner string
}

// NewClient creates a GitHub API client. Without a token requests are
// limited to 60 per hour.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MinInterval == 0 {
		opts.MinInterval = DefaultMinInterval
	}

	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": APIVersion,
	}
	if opts.Token != "" {
		headers["Authorization"] = "token " + opts.Token
	}

	return &Client{
		Client: integrations.NewClient(integrations.Options{
			Name:        "github",
			BaseURL:     opts.BaseURL,
			Headers:     headers,
			MinInterval: opts.MinInterval,
			MaxRetries:  opts.MaxRetries,
			CacheTTL:    opts.CacheTTL,
			RateLimited: rateLimited,
			HTTPClient:  opts.HTTPClient,
			Clock:       opts.Clock,
			Sleep:       opts.Sleep,
			Logger:      opts.Logger,
		}),
		owner: opts.Owner,
	}
}

// rateLimited treats 403 like 429. GitHub answers 403 for exhausted primary
// quotas, but also for permission errors, which are then retried too.
func rateLimited(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests
}

// Owner resolves owner against the client's default.
func (c *Client) Owner(owner string) (string, error) {
	if owner != "" {
		return owner, nil
	}
	if c.owner == "" {
		return "", ErrNoOwner
	}
	return c.owner, nil
}

// Repo returns the raw repository object for owner/repo. An empty owner uses
// the client's default. With useCache, a body fetched within the cache TTL is
// reused.
func (c *Client) Repo(ctx context.Context, owner, repo string, useCache bool) (json.RawMessage, error) {
	owner, err := c.Owner(owner)
	if err != nil {
		return nil, err
	}
	key := owner + "/" + repo
	body, err := c.Resource(ctx, key, "/repos/"+url.PathEscape(owner)+"/"+url.PathEscape(repo), useCache)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: github repo %s", err, key)
		}
		return nil, err
	}
	return body, nil
}

// ListUserRepos returns every repository of owner, following pagination.
// Each repository is also cached under "owner/name" so that later accessors
// don't refetch it.
func (c *Client) ListUserRepos(ctx context.Context, owner string) ([]json.RawMessage, error) {
	owner, err := c.Owner(owner)
	if err != nil {
		return nil, err
	}
	c.Logger().Info("fetching repository list", "owner", owner)

	query := url.Values{"per_page": {fmt.Sprint(perPage)}}
	repos, err := c.Paginate("/users/"+url.PathEscape(owner)+"/repos", query, integrations.LinkHeaderPages, 0).All(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range repos {
		name := integrations.String(r, "name", "")
		if name == "" {
			continue
		}
		c.Prime(integrations.String(r, "owner.login", owner)+"/"+name, r)
	}
	c.Logger().Info("found repositories", "owner", owner, "count", len(repos))
	return repos, nil
}

// Stars returns the stargazer count, or 0 if absent.
func (c *Client) Stars(ctx context.Context, owner, repo string) (int64, error) {
	return c.count(ctx, owner, repo, "stargazers_count")
}

// Forks returns the fork count, or 0 if absent.
func (c *Client) Forks(ctx context.Context, owner, repo string) (int64, error) {
	return c.count(ctx, owner, repo, "forks_count")
}

// Watchers returns the watcher count, or 0 if absent.
func (c *Client) Watchers(ctx context.Context, owner, repo string) (int64, error) {
	return c.count(ctx, owner, repo, "watchers_count")
}

// OpenIssues returns the open issue count, or 0 if absent.
func (c *Client) OpenIssues(ctx context.Context, owner, repo string) (int64, error) {
	return c.count(ctx, owner, repo, "open_issues_count")
}

// Description returns the repository description, or "" if absent.
func (c *Client) Description(ctx context.Context, owner, repo string) (string, error) {
	return c.text(ctx, owner, repo, "description")
}

// LastPushed returns the pushed_at timestamp as sent by GitHub, or "".
func (c *Client) LastPushed(ctx context.Context, owner, repo string) (string, error) {
	return c.text(ctx, owner, repo, "pushed_at")
}

func (c *Client) count(ctx context.Context, owner, repo, field string) (int64, error) {
	body, err := c.Repo(ctx, owner, repo, true)
	if err != nil {
		return 0, err
	}
	return integrations.Int(body, field, 0), nil
}

func (c *Client) text(ctx context.Context, owner, repo, field string) (string, error) {
	body, err := c.Repo(ctx, owner, repo, true)
	if err != nil {
		return "", err
	}
	return integrations.String(body, field, ""), nil
}
