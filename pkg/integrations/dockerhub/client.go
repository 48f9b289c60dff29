package dockerhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/matzehuels/statsnap/pkg/httputil"
	"github.com/matzehuels/statsnap/pkg/integrations"
)

const (
	// DefaultBaseURL is the public Docker Hub API.
	DefaultBaseURL = "https://hub.docker.com"

	// DefaultMinInterval spaces consecutive requests.
	DefaultMinInterval = 500 * time.Millisecond
)

// Options configures a [Client].
type Options struct {
	BaseURL string

	MinInterval time.Duration
	MaxRetries  int
	CacheTTL    time.Duration

	HTTPClient *http.Client
	Clock      clockwork.Clock
	Sleep      httputil.Sleeper
	Logger     *log.Logger
}

// Client reads repository statistics from Docker Hub.
type Client struct {
	*integrations.Client
}

// NewClient creates a Docker Hub client. Docker Hub's public endpoints need
// no authentication.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MinInterval == 0 {
		opts.MinInterval = DefaultMinInterval
	}
	return &Client{
		Client: integrations.NewClient(integrations.Options{
			Name:        "dockerhub",
			BaseURL:     opts.BaseURL,
			Headers:     map[string]string{"Accept": "application/json"},
			MinInterval: opts.MinInterval,
			MaxRetries:  opts.MaxRetries,
			CacheTTL:    opts.CacheTTL,
			HTTPClient:  opts.HTTPClient,
			Clock:       opts.Clock,
			Sleep:       opts.Sleep,
			Logger:      opts.Logger,
		}),
	}
}

// Repository returns the raw repository object for repo ("namespace/name").
func (c *Client) Repository(ctx context.Context, repo string, useCache bool) (json.RawMessage, error) {
	repo = strings.Trim(repo, "/")
	if _, _, ok := integrations.SplitKey(repo); !ok {
		return nil, fmt.Errorf("dockerhub: invalid repository %q, want namespace/name", repo)
	}
	body, err := c.Resource(ctx, repo, "/v2/repositories/"+repo, useCache)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: dockerhub repo %s", err, repo)
		}
		return nil, err
	}
	return body, nil
}

// ListNamespace returns every repository in namespace, following the "next"
// links. Each repository is cached under "namespace/name".
func (c *Client) ListNamespace(ctx context.Context, namespace string) ([]json.RawMessage, error) {
	c.Logger().Info("fetching repository list", "namespace", namespace)

	repos, err := c.Paginate("/v2/repositories/"+namespace+"/", nil, integrations.BodyNextPages("results"), 0).All(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range repos {
		ns := integrations.String(r, "namespace", "")
		name := integrations.String(r, "name", "")
		if ns == "" || name == "" {
			continue
		}
		c.Prime(ns+"/"+name, r)
	}
	c.Logger().Info("found repositories", "namespace", namespace, "count", len(repos))
	return repos, nil
}

// PullCount returns the pull count, or 0 if absent.
func (c *Client) PullCount(ctx context.Context, repo string, useCache bool) (int64, error) {
	body, err := c.Repository(ctx, repo, useCache)
	if err != nil {
		return 0, err
	}
	return integrations.Int(body, "pull_count", 0), nil
}

// StarCount returns the star count, or 0 if absent.
func (c *Client) StarCount(ctx context.Context, repo string, useCache bool) (int64, error) {
	body, err := c.Repository(ctx, repo, useCache)
	if err != nil {
		return 0, err
	}
	return integrations.Int(body, "star_count", 0), nil
}

// Description returns the short description, or "" if absent.
func (c *Client) Description(ctx context.Context, repo string, useCache bool) (string, error) {
	body, err := c.Repository(ctx, repo, useCache)
	if err != nil {
		return "", err
	}
	return integrations.String(body, "description", ""), nil
}

// LastUpdated returns the last_updated timestamp as sent by Docker Hub, or "".
func (c *Client) LastUpdated(ctx context.Context, repo string, useCache bool) (string, error) {
	body, err := c.Repository(ctx, repo, useCache)
	if err != nil {
		return "", err
	}
	return integrations.String(body, "last_updated", ""), nil
}
