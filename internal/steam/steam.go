// Package steam is the fetch boundary: Steam APIs, SteamDB and SteamCharts pages,
// all read through the TTL cache.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/internal/fetch"
	"github.com/huangsam/patchpanel/internal/metrics"
	"github.com/rs/zerolog"
)

var (
	// ErrMalformed means the upstream answered but the payload could not be decoded.
	ErrMalformed = errors.New("malformed payload")

	// ErrNotFound means the upstream reported that the app does not exist.
	ErrNotFound = errors.New("app not found")
)

// Fetcher performs one logical fetch. *fetch.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) (fetch.Response, error)
}

// Endpoints are the upstream locations. Page URLs take the app id as a %d verb.
type Endpoints struct {
	NewsURL           string
	StoreURL          string
	SteamDBURL        string
	SteamChartsURL    string
	ReviewsURL        string
	StorePageURL      string
	CurrentPlayersURL string
	ChartsTopURL      string
	StoreSearchURL    string
}

// DefaultEndpoints points at the public Steam, SteamDB and SteamCharts hosts.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		NewsURL:           "https://api.steampowered.com/ISteamNews/GetNewsForApp/v2/",
		StoreURL:          "https://store.steampowered.com/api/appdetails",
		SteamDBURL:        "https://steamdb.info/app/%d/",
		SteamChartsURL:    "https://steamcharts.com/app/%d",
		ReviewsURL:        "https://steamcommunity.com/api/GetAppReviews/v1",
		StorePageURL:      "https://store.steampowered.com/app/%d/",
		CurrentPlayersURL: "https://api.steampowered.com/ISteamUserStats/GetNumberOfCurrentPlayers/v1/",
		ChartsTopURL:      "https://steamcharts.com/top",
		StoreSearchURL:    "https://store.steampowered.com/search/",
	}
}

// Options are shared by every source in this package.
type Options struct {
	APIKey    string
	Endpoints Endpoints
	Cache     contract.Cache // nil disables caching
	Logger    zerolog.Logger
}

// NewSources wires one fetch client per upstream so each keeps its own politeness interval.
func NewSources(cfg *contract.Config, cache contract.Cache, rec *metrics.Recorder, log zerolog.Logger) contract.Sources {
	opts := Options{
		APIKey:    cfg.SteamAPIKey,
		Endpoints: DefaultEndpoints(),
		Cache:     cache,
		Logger:    log,
	}
	client := func(interval time.Duration) *fetch.Client {
		return fetch.New(fetch.Options{
			Interval:   interval,
			MaxRetries: cfg.Fetch.MaxRetries,
			BaseDelay:  cfg.Fetch.RetryBaseDelay,
			MaxDelay:   cfg.Fetch.RetryMaxDelay,
			Timeout:    cfg.Fetch.RequestTimeout,
			Logger:     &log,
			Metrics:    rec,
		})
	}

	// SteamCharts pages share one client across series and the top ranking.
	charts := client(cfg.Fetch.ScrapeInterval)
	storePages := client(cfg.Fetch.ScrapeInterval)

	sources := contract.Sources{
		News:     NewNewsClient(client(cfg.Fetch.APIInterval), opts),
		Metadata: NewStoreClient(client(cfg.Fetch.APIInterval), opts),
		Series:   NewSteamChartsScraper(charts, opts),
		Players:  NewPlayersClient(client(cfg.Fetch.APIInterval), opts),
		Top:      NewTopScraper(charts, storePages, opts),
	}
	if !cfg.NoSteamDB {
		sources.Owners = NewSteamDBScraper(client(cfg.Fetch.ScrapeInterval), opts)
	}
	if !cfg.NoReviews {
		sources.Reviews = NewReviewsClient(client(cfg.Fetch.APIInterval), storePages, opts)
	}
	return sources
}

// readCache decodes a cached payload. Cache failures and undecodable entries count as a miss.
func readCache[T any](cache contract.Cache, log zerolog.Logger, endpoint string, appID int64) (T, bool) {
	var value T
	if cache == nil {
		return value, false
	}
	payload, ok, err := cache.Get(endpoint, appID)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", endpoint).Int64("app_id", appID).Msg("cache read failed")
		return value, false
	}
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(payload, &value); err != nil {
		log.Warn().Err(err).Str("endpoint", endpoint).Int64("app_id", appID).Msg("ignoring undecodable cache entry")
		var zero T
		return zero, false
	}
	return value, true
}

// writeCache stores a successfully parsed value. Failures are logged and skipped.
func writeCache(cache contract.Cache, log zerolog.Logger, endpoint string, appID int64, value any) {
	if cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", endpoint).Int64("app_id", appID).Msg("cannot encode cache entry")
		return
	}
	if err := cache.Set(endpoint, appID, payload); err != nil {
		log.Warn().Err(err).Str("endpoint", endpoint).Int64("app_id", appID).Msg("cache write failed")
	}
}
