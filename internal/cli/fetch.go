package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/statsnap/pkg/collect"
	"github.com/matzehuels/statsnap/pkg/config"
	"github.com/matzehuels/statsnap/pkg/errors"
	"github.com/matzehuels/statsnap/pkg/integrations/analytics"
	"github.com/matzehuels/statsnap/pkg/integrations/dockerhub"
	"github.com/matzehuels/statsnap/pkg/integrations/github"
	"github.com/matzehuels/statsnap/pkg/pipeline"
)

// Fetch targets.
const (
	targetDockerHub = "dockerhub"
	targetGitHub    = "github"
	targetAnalytics = "analytics"
	targetAll       = "all"
)

// analyticsRecordsKey is where the analytics snapshot keeps its records.
const analyticsRecordsKey = "blog_posts"

// fetchOptions holds flag overrides for the fetch command.
type fetchOptions struct {
	namespaces []string
	owners     []string
	repos      []string
	days       int
	prefix     string
	plain      bool
}

// fetchCommand creates the fetch command.
func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch [dockerhub|github|analytics|all]",
		Short: "Fetch statistics and update snapshots",
		Long: `Fetch current statistics from one or all sources and update their snapshots.

A snapshot is only rewritten with a new last_updated timestamp when its
totals or records changed since the previous run. Per-repository failures are
recorded in the snapshot; only store failures or a failed listing abort.`,
		Example: `  # Fetch every configured source
  statsnap fetch all

  # Fetch a single Docker Hub namespace
  statsnap fetch dockerhub --namespace neonvariant

  # Fetch blog page views for the last 30 days
  statsnap fetch analytics --days 30`,
		ValidArgs: fetchTargets,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.namespaces, "namespace", nil, "Docker Hub namespaces to list (overrides config)")
	cmd.Flags().StringSliceVar(&opts.owners, "owner", nil, "GitHub owners to list (overrides config)")
	cmd.Flags().StringSliceVar(&opts.repos, "repo", nil, "owner/name repositories to fetch (overrides config)")
	cmd.Flags().IntVar(&opts.days, "days", 0, "analytics: only count the last N days (default: all time)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "analytics: blog path prefix (overrides config)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "log progress instead of showing the interactive view")

	cmd.RegisterFlagCompletionFunc("namespace", c.completeFromConfig(func(cfg *config.Config) []string { return cfg.DockerHub.Namespaces }))
	cmd.RegisterFlagCompletionFunc("owner", c.completeFromConfig(func(cfg *config.Config) []string { return cfg.GitHub.Owners }))
	cmd.RegisterFlagCompletionFunc("repo", c.completeFromConfig(func(cfg *config.Config) []string {
		return append(append([]string(nil), cfg.DockerHub.Repos...), cfg.GitHub.Repos...)
	}))

	return cmd
}

// runFetch executes the fetch command.
func (c *CLI) runFetch(ctx context.Context, target string, opts fetchOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := opts.apply(cfg, target); err != nil {
		return err
	}

	logger := loggerFromContext(ctx)
	interactive := !opts.plain && isatty.IsTerminal(os.Stderr.Fd())
	if interactive {
		logger = quietLogger(logger)
	}

	jobs, closers, err := buildJobs(cfg, target, logger)
	defer closeAll(closers)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(store, nil, logger)
	defer runner.Close()

	prog := newFetchProgress(logger, clockwork.NewRealClock())
	var results []*pipeline.Result
	if interactive {
		results, err = runFetchTUI(ctx, runner, jobs)
	} else {
		results, err = runner.RunAll(ctx, jobs)
	}

	for _, res := range results {
		prog.record(res)
		printRunResult(res)
	}
	if err != nil {
		return err
	}
	prog.done()

	if len(results) == 1 {
		printNewline()
		printNextStep("View the snapshot", fmt.Sprintf("%s show %s", appName, results[0].Snapshot))
	}
	return nil
}

// apply overrides cfg with the flags given on the command line.
func (o fetchOptions) apply(cfg *config.Config, target string) error {
	if len(o.namespaces) > 0 {
		cfg.DockerHub.Namespaces = o.namespaces
	}
	if len(o.owners) > 0 {
		cfg.GitHub.Owners = o.owners
	}
	if len(o.repos) > 0 {
		switch target {
		case targetDockerHub:
			cfg.DockerHub.Repos = o.repos
		case targetGitHub:
			cfg.GitHub.Repos = o.repos
		default:
			return errors.New(errors.ErrCodeInvalidInput, "--repo needs a single target (dockerhub or github)")
		}
	}
	if o.days > 0 {
		cfg.Analytics.Days = o.days
	}
	if o.prefix != "" {
		cfg.Analytics.BlogPathPrefix = o.prefix
	}
	return cfg.Validate()
}

// buildJobs creates the pipeline jobs for target. The returned closers must
// be closed by the caller even when an error is returned.
//
// For "all", sources without configuration are skipped; naming a single
// unconfigured source is an error.
func buildJobs(cfg *config.Config, target string, logger *log.Logger) ([]pipeline.Job, []io.Closer, error) {
	var (
		jobs    []pipeline.Job
		closers []io.Closer
	)
	all := target == targetAll

	if target == targetDockerHub || all {
		dh := cfg.DockerHub
		switch {
		case len(dh.Namespaces) > 0 || len(dh.Repos) > 0:
			client := dockerhub.NewClient(dockerhub.Options{
				BaseURL:     dh.BaseURL,
				MinInterval: dh.MinInterval.Std(),
				MaxRetries:  dh.MaxRetries,
				CacheTTL:    dh.CacheTTL.Std(),
				Logger:      logger,
			})
			closers = append(closers, client)
			jobs = append(jobs, pipeline.Job{
				Collector: &collect.DockerHub{Client: client, Namespaces: dh.Namespaces, Repos: dh.Repos, Logger: logger},
				Snapshot:  dh.Snapshot,
			})
		case !all:
			return nil, closers, errors.New(errors.ErrCodeInvalidConfig, "dockerhub: no namespaces or repos configured")
		}
	}

	if target == targetGitHub || all {
		gh := cfg.GitHub
		switch {
		case gh.Owner != "" || len(gh.Owners) > 0 || len(gh.Repos) > 0:
			client := github.NewClient(github.Options{
				Token:       gh.Token,
				Owner:       gh.Owner,
				BaseURL:     gh.BaseURL,
				MinInterval: gh.MinInterval.Std(),
				MaxRetries:  gh.MaxRetries,
				CacheTTL:    gh.CacheTTL.Std(),
				Logger:      logger,
			})
			closers = append(closers, client)
			jobs = append(jobs, pipeline.Job{
				Collector: &collect.GitHub{Client: client, Owners: gh.Owners, Repos: gh.Repos, Logger: logger},
				Snapshot:  gh.Snapshot,
			})
		case !all:
			return nil, closers, errors.New(errors.ErrCodeInvalidConfig, "github: no owner, owners or repos configured")
		}
	}

	if target == targetAnalytics || all {
		ga := cfg.Analytics
		switch {
		case ga.PropertyID != "":
			if ga.AccessToken == "" {
				return nil, closers, errors.New(errors.ErrCodeUnauthorized, "analytics: GA_ACCESS_TOKEN is not set")
			}
			client, err := analytics.NewClient(analytics.Options{
				PropertyID:  ga.PropertyID,
				TokenSource: analytics.StaticToken(ga.AccessToken),
				BaseURL:     ga.BaseURL,
				MinInterval: ga.MinInterval.Std(),
				MaxRetries:  ga.MaxRetries,
				CacheTTL:    ga.CacheTTL.Std(),
				Logger:      logger,
			})
			if err != nil {
				return nil, closers, errors.Wrap(errors.ErrCodeInvalidConfig, err, "analytics")
			}
			closers = append(closers, client)
			jobs = append(jobs, pipeline.Job{
				Collector:    &collect.Analytics{Client: client, Prefix: ga.BlogPathPrefix, Days: ga.Days, Logger: logger},
				Snapshot:     ga.Snapshot,
				RecordsKey:   analyticsRecordsKey,
				HistoryLimit: ga.HistoryLimit,
			})
		case !all:
			return nil, closers, errors.New(errors.ErrCodeInvalidConfig, "analytics: GA4_PROPERTY_ID is not set")
		}
	}

	if len(jobs) == 0 {
		return nil, closers, errors.New(errors.ErrCodeInvalidConfig, "no sources configured; see %s fetch --help", appName)
	}
	return jobs, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
