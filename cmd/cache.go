package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/iocache"
	"github.com/spf13/cobra"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := backendSetup("cache-backend", "cache-db-connect")
	if err != nil {
		return err
	}

	// Initialize caching with the loaded config (no report store for cache commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheCmd focused on cache management.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the assessment cache",
	Long: `Manage the cache of file assessments that speeds up repeated scans.

An assessment is keyed by model, file path and file content, so unchanged
files are not sent to the language model again. Entries expire after a week.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached assessments

Examples:
  # Check cache status
  repoaudit cache status

  # Clear cache after switching prompts or models
  repoaudit cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached assessments",
	Long: `Delete all cached assessments from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear MySQL cache (set connection string via env variable)
  REPOAUDIT_CACHE_BACKEND=mysql REPOAUDIT_CACHE_DB_CONNECT="..." repoaudit cache clear`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the SQLite file before it is removed.
		iocache.CloseStores()
		dbFile := sqliteFilePath(cfg.CacheDBConnect, contract.GetCacheDBFilePath())
		if err := iocache.ClearCache(cfg.CacheBackend, dbFile, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display cache statistics and connection details",
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetAssessmentCache().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
