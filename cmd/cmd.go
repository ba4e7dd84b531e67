// Package cmd defines the command-line interface for patchpanel.
package cmd

import (
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(panelCmd)
	rootCmd.AddCommand(patchesCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.String("appids", "", "Comma-separated Steam app ids")
	flags.String("appids-file", "", "File with one Steam app id per line")
	flags.Int("window-days", contract.DefaultWindowDays, "News look-back window in days")
	flags.String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	flags.String("output-file", "", "Optional path to write output to")
	flags.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	flags.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	flags.String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or redis or none")
	flags.String("cache-db-connect", "", "Cache connection string (SQLite path, MySQL/PostgreSQL DSN or redis:// URL)")
	flags.String("cache-ttl", contract.DefaultCacheTTL.String(), "How long cached responses stay fresh")
	flags.String("run-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	flags.String("run-db-connect", "", "Run tracking connection string (must differ from cache-db-connect)")
	flags.String("steam-api-key", "", "Steam Web API key (prefer PATCHPANEL_STEAM_API_KEY)")
	flags.String("api-interval", contract.DefaultAPIInterval.String(), "Minimum spacing between Steam API requests")
	flags.String("scrape-interval", contract.DefaultScrapeInterval.String(), "Minimum spacing between scraped page requests")
	flags.Int("max-retries", contract.DefaultMaxRetries, "Retries per request after the first attempt")
	flags.String("retry-base-delay", contract.DefaultRetryBaseDelay.String(), "Initial retry backoff")
	flags.String("retry-max-delay", contract.DefaultRetryMaxDelay.String(), "Backoff cap for transient failures")
	flags.String("request-timeout", contract.DefaultRequestTimeout.String(), "Timeout per request attempt")
	flags.Bool("no-steamdb", false, "Skip SteamDB owners scraping")
	flags.Bool("no-reviews", false, "Skip Steam review statistics")
	flags.Int("top", 0, "Add the N most-played games to the batch")
	flags.Int("compare-months", schema.DefaultCompareMonths, "Months a game must have been patched within to count as updated")
	flags.String("log-level", "info", "Log level: trace or debug or info or warn or error")
	flags.String("metrics-file", "", "Write Prometheus textfile metrics after the batch")
	flags.String("config", "", "Path to config file")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	classifyCmd.Flags().String("title", "", "News item title")
	classifyCmd.Flags().String("body", "", "News item body")

	topCmd.Flags().Int("limit", schema.DefaultTopLimit, "Number of games to list")

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
