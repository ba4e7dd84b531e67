package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/huangsam/patchpanel/internal/fetch"
	"github.com/huangsam/patchpanel/schema"
)

type storeEntry struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type storeData struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Developers []string `json:"developers"`
	Publishers []string `json:"publishers"`
	Metacritic *struct {
		Score int `json:"score"`
	} `json:"metacritic"`
	Genres []struct {
		Description string `json:"description"`
	} `json:"genres"`
	ReleaseDate struct {
		Date string `json:"date"`
	} `json:"release_date"`
}

// StoreClient reads app metadata from the Steam Store appdetails API.
type StoreClient struct {
	fetcher Fetcher
	opts    Options
}

// NewStoreClient creates a StoreClient.
func NewStoreClient(fetcher Fetcher, opts Options) *StoreClient {
	return &StoreClient{fetcher: fetcher, opts: opts}
}

// FetchStoreMetadata returns the store metadata of a game.
// An app the store does not know yields ErrNotFound.
func (c *StoreClient) FetchStoreMetadata(ctx context.Context, appID int64) (schema.StoreMetadata, error) {
	if meta, ok := readCache[schema.StoreMetadata](c.opts.Cache, c.opts.Logger, schema.EndpointStoreDetails, appID); ok {
		return meta, nil
	}

	resp, err := c.fetcher.Fetch(ctx, fetch.Request{
		URL: c.opts.Endpoints.StoreURL,
		Params: url.Values{
			"appids": {strconv.FormatInt(appID, 10)},
			"l":      {"english"},
		},
		Source: schema.EndpointStoreDetails,
	})
	if err != nil {
		return schema.StoreMetadata{}, fmt.Errorf("store details for app %d: %w", appID, err)
	}

	meta, err := decodeStore(appID, resp.Body)
	if err != nil {
		return schema.StoreMetadata{}, fmt.Errorf("store details for app %d: %w", appID, err)
	}
	writeCache(c.opts.Cache, c.opts.Logger, schema.EndpointStoreDetails, appID, meta)
	return meta, nil
}

// decodeStore extracts the fields patchpanel keeps from an appdetails payload.
func decodeStore(appID int64, body []byte) (schema.StoreMetadata, error) {
	var payload map[string]storeEntry
	if err := json.Unmarshal(body, &payload); err != nil {
		return schema.StoreMetadata{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	entry, ok := payload[schema.AppIDKey(appID)]
	if !ok {
		return schema.StoreMetadata{}, fmt.Errorf("%w: no entry for app %d", ErrMalformed, appID)
	}
	if !entry.Success {
		return schema.StoreMetadata{}, ErrNotFound
	}

	var data storeData
	if err := json.Unmarshal(entry.Data, &data); err != nil {
		return schema.StoreMetadata{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	meta := schema.StoreMetadata{
		AppID:       appID,
		Name:        data.Name,
		Type:        data.Type,
		Developers:  nonNil(data.Developers),
		Publishers:  nonNil(data.Publishers),
		Genres:      make([]string, 0, len(data.Genres)),
		ReleaseDate: data.ReleaseDate.Date,
	}
	if data.Metacritic != nil {
		meta.MetacriticScore = schema.Ptr(data.Metacritic.Score)
	}
	for _, g := range data.Genres {
		meta.Genres = append(meta.Genres, g.Description)
	}
	return meta, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
