package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/db"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the shared classification cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired and stale entries from the PostgreSQL cache",
	Long: `Delete expired rows from the classification_cache table. With --stale, rows computed
with a taxonomy version other than the configured one are deleted too.

Redis entries expire on their own and need no purging.`,
	RunE: runCachePurge,
}

var cachePurgeStale bool

func init() {
	cachePurgeCmd.Flags().BoolVar(&cachePurgeStale, "stale", false, "Also delete entries of other taxonomy versions")

	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCachePurge(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Cache.Backend != config.BackendPostgres {
		return fmt.Errorf("cache purge needs the postgres backend (cache.backend is %q)", cfg.Cache.Backend)
	}

	if cfg.Cache.DatabaseURL == "" {
		return fmt.Errorf("cache.database_url is not set")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.Cache.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	expired, err := database.PurgeExpiredClassifications(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired entries\n", expired)

	if cachePurgeStale {
		reg, err := loadRegistry(cfg.Taxonomy.Path)
		if err != nil {
			return err
		}
		stale, err := database.PurgeTaxonomyVersion(ctx, reg.Version())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Purged %d entries from taxonomy versions other than %s\n", stale, reg.Version())
	}

	remaining, err := database.CountCachedClassifications(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d live entries remain\n", remaining)
	return nil
}
