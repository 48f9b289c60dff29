package cli

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/statsnap/pkg/config"
	"github.com/matzehuels/statsnap/pkg/errors"
	"github.com/matzehuels/statsnap/pkg/snapshot"
)

// storeCommand creates the store command with subcommands for inspecting
// the snapshot store.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the snapshot store",
	}

	cmd.AddCommand(c.storePathCommand())
	cmd.AddCommand(c.storeListCommand())

	return cmd
}

// storePathCommand creates the store path subcommand.
func (c *CLI) storePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show where snapshots are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, storeLocation(cfg.Store))
			return nil
		},
	}
}

// storeListCommand creates the store list subcommand.
func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStoreList(cmd.Context())
		},
	}
}

func (c *CLI) runStoreList(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	names, err := store.List(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to list snapshots")
	}
	if len(names) == 0 {
		printWarning("No snapshots in %s", storeLocation(cfg.Store))
		return nil
	}

	printInfo("%d snapshot(s) in %s", len(names), storeLocation(cfg.Store))
	fs, isFile := store.(*snapshot.FileStore)
	for _, name := range names {
		if isFile {
			printFile(fs.Path(name))
		} else {
			printFile(name)
		}
	}
	return nil
}

// storeLocation describes the configured store without credentials.
func storeLocation(s config.StoreConfig) string {
	switch s.Backend {
	case snapshot.BackendRedis:
		return "redis " + redactURL(s.RedisURL)
	case snapshot.BackendMongo:
		db := s.MongoDatabase
		if db == "" {
			db = snapshot.DefaultMongoDatabase
		}
		return fmt.Sprintf("mongo %s (database %s)", redactURL(s.MongoURI), db)
	default:
		dir := s.Dir
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		return dir
	}
}

// redactURL hides the password in a connection URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
