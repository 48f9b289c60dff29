package collect

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/statsnap/pkg/integrations"
	"github.com/matzehuels/statsnap/pkg/snapshot"
)

// GitHubAPI is the subset of [github.Client] the collector needs.
type GitHubAPI interface {
	ListUserRepos(ctx context.Context, owner string) ([]json.RawMessage, error)
	Stars(ctx context.Context, owner, repo string) (int64, error)
	Forks(ctx context.Context, owner, repo string) (int64, error)
	Watchers(ctx context.Context, owner, repo string) (int64, error)
	OpenIssues(ctx context.Context, owner, repo string) (int64, error)
	Description(ctx context.Context, owner, repo string) (string, error)
	LastPushed(ctx context.Context, owner, repo string) (string, error)
}

// GitHub collects repository statistics for every repository owned by
// Owners plus the explicitly listed Repos ("owner/name"). With neither set,
// the client's default owner is listed.
//
// Totals: total_stars, total_forks, total_watchers, total_open_issues.
type GitHub struct {
	Client GitHubAPI
	Owners []string
	Repos  []string
	Logger *log.Logger
}

// Name implements [Collector].
func (g *GitHub) Name() string { return "github" }

var githubCounts = []struct{ field, total string }{
	{"stars", "total_stars"},
	{"forks", "total_forks"},
	{"watchers", "total_watchers"},
	{"open_issues", "total_open_issues"},
}

// Collect implements [Collector].
func (g *GitHub) Collect(ctx context.Context) (*Result, error) {
	logger := loggerOr(g.Logger)

	owners := g.Owners
	if len(owners) == 0 && len(g.Repos) == 0 {
		// The client's default owner.
		owners = []string{""}
	}

	var keys []string
	for _, owner := range owners {
		listed, err := g.Client.ListUserRepos(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("list github repos of %s: %w", owner, err)
		}
		for _, r := range listed {
			if name := integrations.String(r, "name", ""); name != "" {
				keys = unique(keys, integrations.String(r, "owner.login", owner)+"/"+name)
			}
		}
	}
	keys = unique(keys, g.Repos...)

	res := newResult()
	for _, c := range githubCounts {
		res.Totals[c.total] = 0
	}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := g.repository(ctx, key)
		if err != nil {
			logger.Warn("failed to fetch repository", "repo", key, "err", err)
			res.Records[key] = snapshot.ErrorRecord(err)
			continue
		}
		res.Records[key] = rec
		for _, c := range githubCounts {
			res.Totals[c.total] += rec[c.field].(int64)
		}
		logger.Info("fetched repository", "repo", key, "stars", rec["stars"], "forks", rec["forks"])
	}

	logger.Info("collected github stats", "repos", len(keys),
		"total_stars", res.Totals["total_stars"],
		"total_forks", res.Totals["total_forks"],
		"total_watchers", res.Totals["total_watchers"],
		"total_open_issues", res.Totals["total_open_issues"])
	return res, nil
}

func (g *GitHub) repository(ctx context.Context, key string) (snapshot.Record, error) {
	owner, repo, ok := integrations.SplitKey(key)
	if !ok {
		return nil, fmt.Errorf("invalid repository %q, want owner/name", key)
	}

	counts := []func(context.Context, string, string) (int64, error){
		g.Client.Stars, g.Client.Forks, g.Client.Watchers, g.Client.OpenIssues,
	}
	rec := make(snapshot.Record, len(counts)+2)
	for i, fn := range counts {
		n, err := fn(ctx, owner, repo)
		if err != nil {
			return nil, err
		}
		rec[githubCounts[i].field] = n
	}

	desc, err := g.Client.Description(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	pushed, err := g.Client.LastPushed(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	rec["description"] = desc
	rec["last_updated"] = pushed
	return rec, nil
}
