package contract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/patchpanel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		WindowDays:   365,
		Output:       "text",
		Precision:    2,
		Color:        "yes",
		CacheBackend: "sqlite",
		MaxRetries:   3,
		LogLevel:     "info",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "parquet without file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{name: "parquet with file", mutate: func(in *ConfigRawInput) { in.Output = "parquet"; in.OutputFile = "panel.parquet" }},
		{name: "zero window", mutate: func(in *ConfigRawInput) { in.WindowDays = 0 }, expectError: true},
		{name: "precision too high", mutate: func(in *ConfigRawInput) { in.Precision = 5 }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "mongo" }, expectError: true},
		{name: "redis without url", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: true},
		{name: "redis with url", mutate: func(in *ConfigRawInput) {
			in.CacheBackend = "redis"
			in.CacheDBConnect = "redis://localhost:6379/0"
		}},
		{name: "redis run backend", mutate: func(in *ConfigRawInput) {
			in.RunBackend = "redis"
			in.RunDBConnect = "redis://localhost:6379/0"
		}, expectError: true},
		{name: "bad ttl", mutate: func(in *ConfigRawInput) { in.CacheTTL = "a week" }, expectError: true},
		{name: "negative retries", mutate: func(in *ConfigRawInput) { in.MaxRetries = -1 }, expectError: true},
		{name: "max below base", mutate: func(in *ConfigRawInput) {
			in.RetryBaseDelay = "10s"
			in.RetryMaxDelay = "2s"
		}, expectError: true},
		{name: "bad log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "loud" }, expectError: true},
		{name: "bad app id", mutate: func(in *ConfigRawInput) { in.AppIDs = "730,abc" }, expectError: true},
		{name: "missing appids file", mutate: func(in *ConfigRawInput) { in.AppIDsFile = "/does/not/exist" }, expectError: true},
		{name: "top within range", mutate: func(in *ConfigRawInput) { in.Top = 50 }},
		{name: "negative top", mutate: func(in *ConfigRawInput) { in.Top = -1 }, expectError: true},
		{name: "top too high", mutate: func(in *ConfigRawInput) { in.Top = MaxTopLimit + 1 }, expectError: true},
		{name: "negative compare months", mutate: func(in *ConfigRawInput) { in.CompareMonths = -2 }, expectError: true},
		{name: "compare months too high", mutate: func(in *ConfigRawInput) { in.CompareMonths = MaxCompareMonths + 1 }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, 365, cfg.WindowDays)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.SQLiteBackend, cfg.CacheBackend)
	assert.Equal(t, schema.DatabaseBackend(""), cfg.RunBackend)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, DefaultAPIInterval, cfg.Fetch.APIInterval)
	assert.Equal(t, DefaultScrapeInterval, cfg.Fetch.ScrapeInterval)
	assert.Equal(t, DefaultRetryBaseDelay, cfg.Fetch.RetryBaseDelay)
	assert.Equal(t, DefaultRetryMaxDelay, cfg.Fetch.RetryMaxDelay)
	assert.Equal(t, DefaultRequestTimeout, cfg.Fetch.RequestTimeout)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.True(t, cfg.UseColors)
	assert.Empty(t, cfg.AppIDs)
	assert.Equal(t, schema.DefaultCompareMonths, cfg.CompareMonths)
	assert.Zero(t, cfg.Top)
	assert.False(t, cfg.NoReviews)
}

func TestRequireAppIDs(t *testing.T) {
	assert.ErrorContains(t, RequireAppIDs(&Config{}), "at least one app id is required")
	assert.NoError(t, RequireAppIDs(&Config{Top: 10}))
	assert.NoError(t, RequireAppIDs(&Config{AppIDs: []int64{730}}))
}

func TestMergeTopAppIDs(t *testing.T) {
	cfg := &Config{AppIDs: []int64{570, 10}}
	MergeTopAppIDs(cfg, []schema.TopGame{{AppID: 730}, {AppID: 570}, {AppID: 440}})
	assert.Equal(t, []int64{570, 10, 730, 440}, cfg.AppIDs)
}

func TestProcessAndValidateDurations(t *testing.T) {
	input := validInput()
	input.CacheTTL = "48h"
	input.APIInterval = "250ms"
	input.RetryMaxDelay = "30s"
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, 48*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.APIInterval)
	assert.Equal(t, 30*time.Second, cfg.Fetch.RetryMaxDelay)
}

func TestProcessAppIDsMergesSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("570\n\nnot-a-number\n730\n440\n"), 0o644))

	input := validInput()
	input.AppIDArgs = []string{"730", "292030"}
	input.AppIDs = "570, 730"
	input.AppIDsFile = path

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, []int64{730, 292030, 570, 440}, cfg.AppIDs)
}

func TestSQLiteCacheAndRunPathsMustDiffer(t *testing.T) {
	input := validInput()
	input.CacheDBConnect = "/tmp/same.db"
	input.RunBackend = "sqlite"
	input.RunDBConnect = "/tmp/same.db"
	err := ProcessAndValidate(&Config{}, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different SQLite database files")
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "", true},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)/patchpanel", false},
		{schema.MySQLBackend, "user:pass@localhost", true},
		{schema.PostgreSQLBackend, "host=localhost dbname=patchpanel", false},
		{schema.PostgreSQLBackend, "host=localhost", true},
		{schema.RedisBackend, "redis://localhost:6379/1", false},
		{schema.RedisBackend, "localhost:6379", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend)+"/"+tt.conn, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{AppIDs: []int64{1, 2}}
	clone := cfg.Clone()
	clone.AppIDs[0] = 99
	assert.Equal(t, int64(1), cfg.AppIDs[0])
}

func TestRevalidateBatch(t *testing.T) {
	base := &Config{AppIDs: []int64{730}, WindowDays: 365}

	cfg := base.Clone()
	require.NoError(t, RevalidateBatch(cfg, "", 0))
	assert.Equal(t, []int64{730}, cfg.AppIDs)
	assert.Equal(t, 365, cfg.WindowDays)

	cfg = base.Clone()
	require.NoError(t, RevalidateBatch(cfg, "570, 440, 570", 90))
	assert.Equal(t, []int64{570, 440}, cfg.AppIDs)
	assert.Equal(t, 90, cfg.WindowDays)

	err := RevalidateBatch(base.Clone(), "abc", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid app id")

	err = RevalidateBatch(base.Clone(), "", -5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window_days")

	err = RevalidateBatch(&Config{WindowDays: 365}, "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one app id")
}
