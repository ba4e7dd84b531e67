package schema

import "time"

// CacheStatus represents the status of the cache store.
type CacheStatus struct {
	Backend         string         `json:"backend"`
	Connected       bool           `json:"connected"`
	TotalEntries    int            `json:"total_entries"`
	ByEndpoint      map[string]int `json:"by_endpoint"`
	LastEntryTime   time.Time      `json:"last_entry_time"`
	OldestEntryTime time.Time      `json:"oldest_entry_time"`
	TableSizeBytes  int64          `json:"table_size_bytes"`
}

// RunStatus represents the status of the run store.
type RunStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     string           `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalGames    int              `json:"total_games"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the patchpanel_runs table.
type RunRecord struct {
	RunID         string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int64
	TotalGames    int
	ConfigParams  *string
}
