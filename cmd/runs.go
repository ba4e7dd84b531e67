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

// runBackendFromConfig reads and validates the run store settings.
// An empty backend means tracking is disabled.
func runBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.NoneBackend
	if raw := viper.GetString("run-backend"); raw != "" {
		backend = schema.DatabaseBackend(raw)
	}
	if _, ok := schema.ValidRunBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}

	connStr := viper.GetString("run-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for run store operations.
func runsSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := runBackendFromConfig()
	if err != nil {
		return err
	}

	// No response cache for run commands
	if err := iocache.InitCaching(schema.NoneBackend, "", 0, backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run store: %w", err)
	}

	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsMigrateSetup is a specialized setup that does NOT open the run store,
// allowing migrations to run on a fresh database.
func runsMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := runBackendFromConfig()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetRunDBFilePath()
	}
	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	return nil
}

// runsCmd focused on run history management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the history of panel and patch runs",
	Long: `Manage persisted batch runs.

When --run-backend is set, every panel or patches batch stores:
- Run metadata (timestamps, configuration, number of games)
- The extracted patch records
- The panel rows

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run tracking statistics
  export  - Export runs to Parquet
  clear   - Remove all run data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  patchpanel runs status --run-backend sqlite

  # Export runs for DuckDB
  patchpanel runs export --run-backend sqlite --output-file runs.parquet`,
}

// runsClearCmd removes all run data.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored runs",
	Long: `Delete all stored runs with their patch records and panel rows.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the run tables and migration history

Examples:
  patchpanel runs export --run-backend sqlite --output-file backup.parquet
  patchpanel runs clear --run-backend sqlite`,
	PreRunE: runsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearRuns(cfg.RunBackend, cfg.RunDBConnect); err != nil {
			contract.LogFatal("Failed to clear run data", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

// runsStatusCmd shows run store status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show detailed information about stored runs.

Displays:
- Backend type and connection status
- Total number of runs and games processed
- Last and oldest run timestamps
- Row counts per table

Examples:
  patchpanel runs status --run-backend sqlite`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsExportCmd exports run metadata to Parquet.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored runs to Parquet",
	Long: `Export the metadata of every stored run to a Parquet file.

Requires: --output-file parameter

Examples:
  patchpanel runs export --run-backend sqlite --output-file runs.parquet
  duckdb -c "SELECT * FROM read_parquet('runs.parquet')"`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExportRuns(iocache.Manager.GetRunStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export runs", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  patchpanel runs migrate --run-backend sqlite

  # Rollback to initial state
  patchpanel runs migrate --run-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunBackend, cfg.RunDBConnect, targetVersion, os.Stdout); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
