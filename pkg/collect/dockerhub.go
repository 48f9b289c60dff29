package collect

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/statsnap/pkg/integrations"
	"github.com/matzehuels/statsnap/pkg/snapshot"
)

// DockerHubAPI is the subset of [dockerhub.Client] the collector needs.
type DockerHubAPI interface {
	ListNamespace(ctx context.Context, namespace string) ([]json.RawMessage, error)
	PullCount(ctx context.Context, repo string, useCache bool) (int64, error)
	StarCount(ctx context.Context, repo string, useCache bool) (int64, error)
	Description(ctx context.Context, repo string, useCache bool) (string, error)
	LastUpdated(ctx context.Context, repo string, useCache bool) (string, error)
}

// DockerHub collects pull and star counts for every repository in
// Namespaces plus the explicitly listed Repos.
//
// Totals: total_pulls, total_stars.
type DockerHub struct {
	Client     DockerHubAPI
	Namespaces []string
	Repos      []string
	Logger     *log.Logger
}

// Name implements [Collector].
func (d *DockerHub) Name() string { return "dockerhub" }

// Collect implements [Collector].
func (d *DockerHub) Collect(ctx context.Context) (*Result, error) {
	logger := loggerOr(d.Logger)

	var repos []string
	for _, ns := range d.Namespaces {
		listed, err := d.Client.ListNamespace(ctx, ns)
		if err != nil {
			return nil, fmt.Errorf("list dockerhub namespace %s: %w", ns, err)
		}
		for _, r := range listed {
			if name := integrations.String(r, "name", ""); name != "" {
				repos = unique(repos, integrations.String(r, "namespace", ns)+"/"+name)
			}
		}
	}
	repos = unique(repos, d.Repos...)

	res := newResult()
	var pulls, stars int64
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := d.repository(ctx, repo)
		if err != nil {
			logger.Warn("failed to fetch repository", "repo", repo, "err", err)
			res.Records[repo] = snapshot.ErrorRecord(err)
			continue
		}
		res.Records[repo] = rec
		pulls += rec["pull_count"].(int64)
		stars += rec["star_count"].(int64)
		logger.Info("fetched repository", "repo", repo, "pulls", rec["pull_count"], "stars", rec["star_count"])
	}

	res.Totals["total_pulls"] = pulls
	res.Totals["total_stars"] = stars
	logger.Info("collected dockerhub stats", "repos", len(repos), "total_pulls", pulls, "total_stars", stars)
	return res, nil
}

func (d *DockerHub) repository(ctx context.Context, repo string) (snapshot.Record, error) {
	pulls, err := d.Client.PullCount(ctx, repo, true)
	if err != nil {
		return nil, err
	}
	stars, err := d.Client.StarCount(ctx, repo, true)
	if err != nil {
		return nil, err
	}
	desc, err := d.Client.Description(ctx, repo, true)
	if err != nil {
		return nil, err
	}
	updated, err := d.Client.LastUpdated(ctx, repo, true)
	if err != nil {
		return nil, err
	}
	return snapshot.Record{
		"pull_count":   pulls,
		"star_count":   stars,
		"description":  desc,
		"last_updated": updated,
	}, nil
}
