package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/patchpanel/core"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/internal/iocache"
	"github.com/huangsam/patchpanel/internal/metrics"
	"github.com/huangsam/patchpanel/schema"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations. main replaces it with a signal-aware context.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// recorder collects the batch metrics.
var recorder *metrics.Recorder

// logger is the structured logger for pipeline progress on stderr.
var logger = zerolog.Nop()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "patchpanel",
	Short: "Build event-time panels of Steam player counts around major patches.",
	Long: `Patchpanel reads Steam news to find each game's first major patch, then lines up
monthly player counts around that event for treated games and around the latest month
for control games.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig sets up environment variables and defaults.
func initConfig() {
	viper.SetEnvPrefix("PATCHPANEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("window-days", contract.DefaultWindowDays)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("cache-ttl", contract.DefaultCacheTTL.String())
	viper.SetDefault("run-backend", "")
	viper.SetDefault("run-db-connect", "")
	viper.SetDefault("api-interval", contract.DefaultAPIInterval.String())
	viper.SetDefault("scrape-interval", contract.DefaultScrapeInterval.String())
	viper.SetDefault("max-retries", contract.DefaultMaxRetries)
	viper.SetDefault("retry-base-delay", contract.DefaultRetryBaseDelay.String())
	viper.SetDefault("retry-max-delay", contract.DefaultRetryMaxDelay.String())
	viper.SetDefault("request-timeout", contract.DefaultRequestTimeout.String())
	viper.SetDefault("top", 0)
	viper.SetDefault("compare-months", schema.DefaultCompareMonths)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("color", "yes")
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".patchpanel")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config, runs validation and initializes logging, metrics and storage.
func sharedSetup(_ *cobra.Command, args []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// Positional arguments are app ids, which Viper doesn't handle.
	input.AppIDArgs = args

	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	log, err := contract.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	logger = log
	recorder = metrics.New()

	if err := iocache.InitCaching(cfg.CacheBackend, cfg.CacheDBConnect, cfg.CacheTTL, cfg.RunBackend, cfg.RunDBConnect,
		iocache.WithLookupObserver(recorder.ObserveCacheLookup)); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	cacheManager = iocache.Manager
	return nil
}

// batchSetup is sharedSetup for commands that need at least one game.
func batchSetup(cmd *cobra.Command, args []string) error {
	if err := sharedSetup(cmd, args); err != nil {
		return err
	}
	return contract.RequireAppIDs(cfg)
}

// deps bundles the collaborators initialized by sharedSetup.
func deps() core.Deps {
	return core.Deps{Manager: cacheManager, Metrics: recorder, Logger: logger}
}

// Execute runs the root command under ctx.
func Execute(ctx context.Context) error {
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}
