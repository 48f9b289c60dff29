// Package cli implements the statsnap command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/statsnap/pkg/buildinfo"
	"github.com/matzehuels/statsnap/pkg/config"
	"github.com/matzehuels/statsnap/pkg/errors"
	"github.com/matzehuels/statsnap/pkg/snapshot"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "statsnap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Statsnap keeps JSON snapshots of public project statistics",
		Long:          `Statsnap fetches download, star and page view counts from Docker Hub, GitHub and Google Analytics and records them as JSON snapshots that only change when the numbers do.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: statsnap.toml, statsnap.yaml or statsnap.yml)")
	root.MarkPersistentFlagFilename("config", "toml", "yaml", "yml")

	// Register all subcommands
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Helpers
// =============================================================================

// loadConfig reads the config file selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	return cfg, nil
}

// openStore opens the snapshot store configured in cfg.
func openStore(ctx context.Context, cfg *config.Config) (snapshot.Store, error) {
	store, err := snapshot.Open(ctx, cfg.Store.Options())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to open %s store", cfg.Store.Backend)
	}
	return store, nil
}
