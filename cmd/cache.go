package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/internal/iocache"
	"github.com/huangsam/patchpanel/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	if _, ok := schema.ValidCacheBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// No run tracking for cache commands
	if err := iocache.InitCaching(backend, connStr, contract.DefaultCacheTTL, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by the batch commands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the Steam response cache",
	Long: `Manage the cache of Steam API responses and scraped pages.

Patchpanel caches every successfully parsed response keyed by endpoint and app id,
so repeated batches stay polite to Steam, SteamDB and SteamCharts.

Supported backends: SQLite (default), MySQL, PostgreSQL, Redis, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  patchpanel cache status

  # Clear cache to force fresh fetches
  patchpanel cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached Steam responses",
	Long: `Delete every cached response from the configured backend.

Use this when:
- Upstream pages changed layout and cached parses are stale
- Testing fetch behavior without cache

Examples:
  # Clear SQLite cache (default)
  patchpanel cache clear

  # Clear Redis cache
  PATCHPANEL_CACHE_BACKEND=redis PATCHPANEL_CACHE_DB_CONNECT="redis://localhost:6379/0" patchpanel cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the response cache.

Displays:
- Backend type and connection status
- Total number of cached entries and counts per endpoint
- Last and oldest cache entry timestamps

Examples:
  # Check cache status
  patchpanel cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetCacheStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
