package contract

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/patchpanel/schema"
)

// Default values for configuration.
const (
	DefaultWindowDays     = schema.DefaultWindowDays
	MaxWindowDays         = 3650
	DefaultPrecision      = 2
	DefaultCacheTTL       = 7 * 24 * time.Hour
	DefaultAPIInterval    = 500 * time.Millisecond
	DefaultScrapeInterval = time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = time.Second
	DefaultRetryMaxDelay  = 8 * time.Second
	DefaultRequestTimeout = 15 * time.Second
	MaxRetriesLimit       = 10
	MaxTopLimit           = 250
	MaxCompareMonths      = MaxWindowDays / 30
)

// FetchConfig holds the politeness and retry settings shared by the fetch clients.
type FetchConfig struct {
	APIInterval    time.Duration
	ScrapeInterval time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RequestTimeout time.Duration
}

// Config holds the runtime configuration for a batch.
// This struct is the "final, validated" config.
type Config struct {
	AppIDs     []int64
	WindowDays int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext

	SteamAPIKey string
	Fetch       FetchConfig
	NoSteamDB   bool
	NoReviews   bool

	Top           int // most-played games added to the batch
	CompareMonths int

	LogLevel    string
	MetricsFile string
	UseColors   bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	AppIDArgs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	AppIDs         string `mapstructure:"appids"`
	AppIDsFile     string `mapstructure:"appids-file"`
	WindowDays     int    `mapstructure:"window-days"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	CacheTTL       string `mapstructure:"cache-ttl"`
	RunBackend     string `mapstructure:"run-backend"`
	RunDBConnect   string `mapstructure:"run-db-connect"`
	SteamAPIKey    string `mapstructure:"steam-api-key"`
	APIInterval    string `mapstructure:"api-interval"`
	ScrapeInterval string `mapstructure:"scrape-interval"`
	MaxRetries     int    `mapstructure:"max-retries"`
	RetryBaseDelay string `mapstructure:"retry-base-delay"`
	RetryMaxDelay  string `mapstructure:"retry-max-delay"`
	RequestTimeout string `mapstructure:"request-timeout"`
	NoSteamDB      bool   `mapstructure:"no-steamdb"`
	NoReviews      bool   `mapstructure:"no-reviews"`
	Top            int    `mapstructure:"top"`
	CompareMonths  int    `mapstructure:"compare-months"`
	LogLevel       string `mapstructure:"log-level"`
	MetricsFile    string `mapstructure:"metrics-file"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.AppIDs != nil {
		clone.AppIDs = make([]int64, len(c.AppIDs))
		copy(clone.AppIDs, c.AppIDs)
	}
	return &clone
}

// Params returns the run parameters recorded alongside a batch.
func (c *Config) Params() map[string]any {
	return map[string]any{
		"appids":         c.AppIDs,
		"window_days":    c.WindowDays,
		"cache_ttl":      c.CacheTTL.String(),
		"no_steamdb":     c.NoSteamDB,
		"no_reviews":     c.NoReviews,
		"top":            c.Top,
		"compare_months": c.CompareMonths,
		"output":         string(c.Output),
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processFetchSettings(cfg, input); err != nil {
		return err
	}
	if err := processAppIDs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of connection strings
// for the networked backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must start with 'redis://' or 'rediss://'")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run store backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	// --- Run Backend Validation ---
	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if cfg.RunBackend == "" {
		return nil
	}
	if _, ok := schema.ValidRunBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return fmt.Errorf("runs: %w", err)
	}

	// Cache and run tables may not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		runDBPath := cfg.RunDBConnect
		if runDBPath == "" {
			runDBPath = GetRunDBFilePath()
		}
		if cacheDBPath == runDBPath {
			return fmt.Errorf("cache and run storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-network fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.NoSteamDB = input.NoSteamDB
	cfg.NoReviews = input.NoReviews
	cfg.MetricsFile = input.MetricsFile
	cfg.SteamAPIKey = strings.TrimSpace(input.SteamAPIKey)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.WindowDays <= 0 || input.WindowDays > MaxWindowDays {
		return fmt.Errorf("window-days must be greater than 0 and cannot exceed %d (received %d)", MaxWindowDays, input.WindowDays)
	}
	cfg.WindowDays = input.WindowDays

	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	if input.Top < 0 || input.Top > MaxTopLimit {
		return fmt.Errorf("top must be between 0 and %d (received %d)", MaxTopLimit, input.Top)
	}
	cfg.Top = input.Top

	cfg.CompareMonths = input.CompareMonths
	if cfg.CompareMonths == 0 {
		cfg.CompareMonths = schema.DefaultCompareMonths
	}
	if cfg.CompareMonths < 0 || cfg.CompareMonths > MaxCompareMonths {
		return fmt.Errorf("compare-months must be between 1 and %d (received %d)", MaxCompareMonths, input.CompareMonths)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	ttl, err := parseDuration("cache-ttl", input.CacheTTL, DefaultCacheTTL)
	if err != nil {
		return err
	}
	cfg.CacheTTL = ttl

	return validateBackendConfigs(cfg, input)
}

// processFetchSettings parses the politeness and retry settings.
func processFetchSettings(cfg *Config, input *ConfigRawInput) error {
	if input.MaxRetries < 0 || input.MaxRetries > MaxRetriesLimit {
		return fmt.Errorf("max-retries must be between 0 and %d (received %d)", MaxRetriesLimit, input.MaxRetries)
	}
	cfg.Fetch.MaxRetries = input.MaxRetries

	durations := []struct {
		name     string
		raw      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"api-interval", input.APIInterval, DefaultAPIInterval, &cfg.Fetch.APIInterval},
		{"scrape-interval", input.ScrapeInterval, DefaultScrapeInterval, &cfg.Fetch.ScrapeInterval},
		{"retry-base-delay", input.RetryBaseDelay, DefaultRetryBaseDelay, &cfg.Fetch.RetryBaseDelay},
		{"retry-max-delay", input.RetryMaxDelay, DefaultRetryMaxDelay, &cfg.Fetch.RetryMaxDelay},
		{"request-timeout", input.RequestTimeout, DefaultRequestTimeout, &cfg.Fetch.RequestTimeout},
	}
	for _, d := range durations {
		v, err := parseDuration(d.name, d.raw, d.fallback)
		if err != nil {
			return err
		}
		*d.target = v
	}

	if cfg.Fetch.RequestTimeout == 0 {
		return fmt.Errorf("request-timeout must be greater than 0")
	}
	if cfg.Fetch.RetryMaxDelay < cfg.Fetch.RetryBaseDelay {
		return fmt.Errorf("retry-max-delay (%s) cannot be smaller than retry-base-delay (%s)", cfg.Fetch.RetryMaxDelay, cfg.Fetch.RetryBaseDelay)
	}
	return nil
}

// processAppIDs merges app ids from positional args, the appids flag and the appids file.
// Order of first appearance is preserved and duplicates are dropped.
func processAppIDs(cfg *Config, input *ConfigRawInput) error {
	var ids []int64

	for _, arg := range input.AppIDArgs {
		parsed, err := ParseAppIDList(arg)
		if err != nil {
			return err
		}
		ids = append(ids, parsed...)
	}

	if input.AppIDs != "" {
		parsed, err := ParseAppIDList(input.AppIDs)
		if err != nil {
			return err
		}
		ids = append(ids, parsed...)
	}

	if input.AppIDsFile != "" {
		f, err := os.Open(input.AppIDsFile)
		if err != nil {
			return fmt.Errorf("cannot open appids file: %w", err)
		}
		defer func() { _ = f.Close() }()
		fromFile, err := ReadAppIDs(f)
		if err != nil {
			return fmt.Errorf("cannot read appids file: %w", err)
		}
		ids = append(ids, fromFile...)
	}

	cfg.AppIDs = DedupeAppIDs(ids)
	return nil
}

// parseDuration parses a Go duration string, using fallback when raw is empty.
func parseDuration(name, raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", name, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s cannot be negative (received %s)", name, raw)
	}
	return d, nil
}

// RequireAppIDs fails when a batch has no games to process and none will be discovered.
func RequireAppIDs(cfg *Config) error {
	if len(cfg.AppIDs) == 0 && cfg.Top == 0 {
		return errors.New("at least one app id is required (args, --appids, --appids-file or --top)")
	}
	return nil
}

// MergeTopAppIDs appends discovered games after the configured ones, keeping the first occurrence.
func MergeTopAppIDs(cfg *Config, games []schema.TopGame) {
	ids := make([]int64, 0, len(cfg.AppIDs)+len(games))
	ids = append(ids, cfg.AppIDs...)
	for _, g := range games {
		ids = append(ids, g.AppID)
	}
	cfg.AppIDs = DedupeAppIDs(ids)
}

// RevalidateBatch applies per-request app ids and window to a cloned config.
// Empty appIDs and a zero windowDays keep the configured values.
func RevalidateBatch(cfg *Config, appIDs string, windowDays int) error {
	if strings.TrimSpace(appIDs) != "" {
		ids, err := ParseAppIDList(appIDs)
		if err != nil {
			return err
		}
		cfg.AppIDs = DedupeAppIDs(ids)
	}
	if windowDays != 0 {
		if windowDays < 0 || windowDays > MaxWindowDays {
			return fmt.Errorf("window_days must be greater than 0 and cannot exceed %d (received %d)", MaxWindowDays, windowDays)
		}
		cfg.WindowDays = windowDays
	}
	return RequireAppIDs(cfg)
}
