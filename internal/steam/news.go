package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/huangsam/patchpanel/internal/fetch"
	"github.com/huangsam/patchpanel/schema"
)

const (
	newsCount     = 100
	newsMaxLength = 2000
)

type newsPayload struct {
	AppNews *struct {
		NewsItems []struct {
			Title    string `json:"title"`
			Contents string `json:"contents"`
			Date     int64  `json:"date"`
		} `json:"newsitems"`
	} `json:"appnews"`
}

// NewsClient reads game news from the Steam Web API.
type NewsClient struct {
	fetcher Fetcher
	opts    Options
}

// NewNewsClient creates a NewsClient.
func NewNewsClient(fetcher Fetcher, opts Options) *NewsClient {
	return &NewsClient{fetcher: fetcher, opts: opts}
}

// FetchNews returns the news items of a game in upstream order.
func (c *NewsClient) FetchNews(ctx context.Context, appID int64) ([]schema.NewsItem, error) {
	if items, ok := readCache[[]schema.NewsItem](c.opts.Cache, c.opts.Logger, schema.EndpointSteamNews, appID); ok {
		return items, nil
	}

	params := url.Values{
		"appid":     {strconv.FormatInt(appID, 10)},
		"count":     {strconv.Itoa(newsCount)},
		"maxlength": {strconv.Itoa(newsMaxLength)},
	}
	if c.opts.APIKey != "" {
		params.Set("key", c.opts.APIKey)
	}

	resp, err := c.fetcher.Fetch(ctx, fetch.Request{
		URL:    c.opts.Endpoints.NewsURL,
		Params: params,
		Source: schema.EndpointSteamNews,
	})
	if err != nil {
		return nil, fmt.Errorf("news for app %d: %w", appID, err)
	}

	items, err := decodeNews(appID, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("news for app %d: %w", appID, err)
	}
	writeCache(c.opts.Cache, c.opts.Logger, schema.EndpointSteamNews, appID, items)
	return items, nil
}

// decodeNews converts the GetNewsForApp payload into news items.
func decodeNews(appID int64, body []byte) ([]schema.NewsItem, error) {
	var payload newsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if payload.AppNews == nil {
		return nil, fmt.Errorf("%w: missing appnews", ErrMalformed)
	}

	items := make([]schema.NewsItem, 0, len(payload.AppNews.NewsItems))
	for _, raw := range payload.AppNews.NewsItems {
		items = append(items, schema.NewsItem{
			AppID:           appID,
			Title:           raw.Title,
			Body:            raw.Contents,
			PublishedAt:     time.Unix(raw.Date, 0).UTC(),
			SourceTimestamp: raw.Date,
		})
	}
	return items, nil
}
