// Package contract provides interfaces and shared utilities for patchpanel's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/patchpanel/schema"
)

// CacheManager defines the interface for managing the cache and run stores.
// This allows the storage layer to be mocked for testing.
type CacheManager interface {
	GetCache() Cache
	GetRunStore() RunStore
}

// Cache is the TTL cache contract used by the fetch boundary.
type Cache interface {
	// Get returns the payload for a key. ok is false when the key is absent or expired.
	Get(endpoint string, entityID int64) (payload []byte, ok bool, err error)

	// Set upserts the payload for a key. Last write wins.
	Set(endpoint string, entityID int64, payload []byte) error

	// Clear removes every entry.
	Clear() error

	// Stats counts the stored entries.
	Stats() (schema.CacheStats, error)
}

// CacheStore defines the durable key-value storage behind the TTL cache.
// Stores know nothing about expiry; they only remember when an entry was written.
type CacheStore interface {
	Get(endpoint string, entityID int64) ([]byte, time.Time, bool, error)
	Set(endpoint string, entityID int64, payload []byte, storedAt time.Time) error
	Delete(endpoint string, entityID int64) error
	Clear() error
	Stats() (schema.CacheStats, error)
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking batch runs and their outputs.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (string, error)

	// RecordPatches stores the patch records extracted during a run
	RecordPatches(runID string, records []schema.PatchRecord) error

	// RecordPanel stores the panel rows built during a run
	RecordPanel(runID string, rows []schema.PanelRow) error

	// EndRun updates the run with completion data
	EndRun(runID string, endTime time.Time, totalGames int) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// Close closes the underlying connection
	Close() error
}

// NewsSource yields the news items published for a game.
type NewsSource interface {
	FetchNews(ctx context.Context, appID int64) ([]schema.NewsItem, error)
}

// MetadataSource yields store metadata for a game.
type MetadataSource interface {
	FetchStoreMetadata(ctx context.Context, appID int64) (schema.StoreMetadata, error)
}

// OwnersSource yields the owners estimate for a game.
type OwnersSource interface {
	FetchOwners(ctx context.Context, appID int64) (schema.OwnersData, error)
}

// SeriesSource yields the raw monthly player-count series for a game.
type SeriesSource interface {
	FetchSeries(ctx context.Context, appID int64) ([]schema.RawSeriesPoint, error)
}

// ReviewsSource yields the user-review summary for a game.
type ReviewsSource interface {
	FetchReviews(ctx context.Context, appID int64) (schema.ReviewStats, error)
}

// PlayersSource yields the number of players currently in a game.
type PlayersSource interface {
	FetchCurrentPlayers(ctx context.Context, appID int64) (int, error)
}

// TopSource yields the most-played games, best first.
type TopSource interface {
	FetchTop(ctx context.Context, limit int) ([]schema.TopGame, error)
}

// Sources bundles the fetch boundary used by the pipeline.
// A nil optional source means that data is not collected.
type Sources struct {
	News     NewsSource
	Metadata MetadataSource
	Owners   OwnersSource
	Series   SeriesSource
	Reviews  ReviewsSource
	Players  PlayersSource
	Top      TopSource
}
