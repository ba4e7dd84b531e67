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

// steamResultOK is the result code of a successful ISteamUserStats call.
const steamResultOK = 1

type playersPayload struct {
	Response *struct {
		PlayerCount *int `json:"player_count"`
		Result      int  `json:"result"`
	} `json:"response"`
}

// PlayersClient reads the current player count from ISteamUserStats.
// Counts change by the minute, so they are never cached.
type PlayersClient struct {
	fetcher Fetcher
	opts    Options
}

// NewPlayersClient creates a PlayersClient.
func NewPlayersClient(fetcher Fetcher, opts Options) *PlayersClient {
	return &PlayersClient{fetcher: fetcher, opts: opts}
}

// FetchCurrentPlayers returns how many players are in a game right now.
func (c *PlayersClient) FetchCurrentPlayers(ctx context.Context, appID int64) (int, error) {
	resp, err := c.fetcher.Fetch(ctx, fetch.Request{
		URL:    c.opts.Endpoints.CurrentPlayersURL,
		Params: url.Values{"appid": {strconv.FormatInt(appID, 10)}},
		Source: schema.SourceCurrentPlayers,
	})
	if err != nil {
		return 0, fmt.Errorf("current players for app %d: %w", appID, err)
	}
	count, err := decodePlayers(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("current players for app %d: %w", appID, err)
	}
	return count, nil
}

func decodePlayers(body []byte) (int, error) {
	var payload playersPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if payload.Response == nil {
		return 0, fmt.Errorf("%w: missing response", ErrMalformed)
	}
	if payload.Response.Result != steamResultOK {
		return 0, ErrNotFound
	}
	if payload.Response.PlayerCount == nil {
		return 0, fmt.Errorf("%w: missing player_count", ErrMalformed)
	}
	return *payload.Response.PlayerCount, nil
}
