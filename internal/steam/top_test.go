package steam

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/internal/fetch"
	"github.com/huangsam/patchpanel/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chartsTopPage renders a SteamCharts ranking page for ids, with player counts.
func chartsTopPage(ids ...int64) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="common-table"><thead><tr><th>#</th><th>Name</th><th>Current Players</th></tr></thead><tbody>`)
	for i, id := range ids {
		fmt.Fprintf(&b, `<tr><td>%d.</td><td class="game-name left"><a href="/app/%d">Game %d</a></td><td class="num">%d,000</td></tr>`, i+1, id, id, 100-i)
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

const storeSearchPage = `<html><body><div id="search_resultsRows">
<a class="search_result_row" href="https://store.steampowered.com/app/730/CounterStrike_2/"><span class="title">Counter-Strike 2</span></a>
<a class="search_result_row" href="https://store.steampowered.com/app/570/Dota_2/"><span class="title">Dota 2</span></a>
<a class="search_result_row" href="https://store.steampowered.com/app/440/"></a>
<a class="search_result_row" href="https://store.steampowered.com/bundle/1/"><span class="title">Bundle</span></a>
</div></body></html>`

func TestTopFromChartsTable(t *testing.T) {
	charts := &routeFetcher{bodies: map[string]string{
		"https://steamcharts.com/top": chartsTopPage(730, 570, 440),
	}}
	store := &routeFetcher{}
	s := NewTopScraper(charts, store, testOptions(nil))

	games, err := s.FetchTop(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, schema.TopGame{Rank: 1, AppID: 730, Name: "Game 730", CurrentPlayers: schema.Ptr(100_000), Source: schema.SourceChartsTop}, games[0])
	assert.Equal(t, 2, games[1].Rank)
	assert.Equal(t, int64(570), games[1].AppID)
	assert.Equal(t, 99_000, *games[1].CurrentPlayers)
	assert.Len(t, charts.requests, 1, "first page covers the limit")
	assert.Empty(t, store.requests)
}

func TestTopPaginatesCharts(t *testing.T) {
	charts := &routeFetcher{bodies: map[string]string{
		"https://steamcharts.com/top":     chartsTopPage(730, 570),
		"https://steamcharts.com/top/p.2": chartsTopPage(570, 440, 10),
	}}
	s := NewTopScraper(charts, &routeFetcher{}, testOptions(nil))

	games, err := s.FetchTop(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, games, 4)
	assert.Equal(t, []int64{730, 570, 440, 10}, []int64{games[0].AppID, games[1].AppID, games[2].AppID, games[3].AppID})
	assert.Equal(t, 4, games[3].Rank)
	assert.Len(t, charts.requests, 2)
}

func TestTopStopsWhenLaterPageFails(t *testing.T) {
	charts := &routeFetcher{bodies: map[string]string{
		"https://steamcharts.com/top": chartsTopPage(730, 570),
	}}
	s := NewTopScraper(charts, &routeFetcher{}, testOptions(nil))

	games, err := s.FetchTop(context.Background(), 25)
	require.NoError(t, err)
	assert.Len(t, games, 2)
	assert.Len(t, charts.requests, 2)
}

func TestTopFallsBackToStoreSearch(t *testing.T) {
	charts := &routeFetcher{}
	store := &routeFetcher{bodies: map[string]string{
		"https://store.steampowered.com/search/": storeSearchPage,
	}}
	s := NewTopScraper(charts, store, testOptions(nil))

	games, err := s.FetchTop(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, "Counter-Strike 2", games[0].Name)
	assert.Equal(t, schema.SourceStoreSearch, games[0].Source)
	assert.Equal(t, "App 440", games[2].Name)
	assert.Nil(t, games[0].CurrentPlayers)

	req := store.requests[0]
	assert.Equal(t, "popular", req.Params.Get("sort_by"))
	assert.Equal(t, "10", req.Params.Get("count"))
	assert.True(t, req.Scraped)
}

func TestTopAllStrategiesFail(t *testing.T) {
	charts := &routeFetcher{bodies: map[string]string{"https://steamcharts.com/top": `<html><body>maintenance</body></html>`}}
	store := &routeFetcher{bodies: map[string]string{"https://store.steampowered.com/search/": `<html><body></body></html>`}}
	s := NewTopScraper(charts, store, testOptions(nil))

	_, err := s.FetchTop(context.Background(), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestTopChartsUnavailable(t *testing.T) {
	s := NewTopScraper(&routeFetcher{}, &routeFetcher{}, testOptions(nil))
	_, err := s.FetchTop(context.Background(), 5)
	assert.ErrorIs(t, err, fetch.ErrUnavailable)
}

func TestRankTop(t *testing.T) {
	games := rankTop([]schema.TopGame{{AppID: 730}, {AppID: 570}, {AppID: 730}, {AppID: 440}}, 10, schema.SourceChartsTop)
	require.Len(t, games, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{games[0].Rank, games[1].Rank, games[2].Rank})
	assert.Equal(t, int64(440), games[2].AppID)

	assert.Len(t, rankTop(games, 2, schema.SourceChartsTop), 2)
}

func TestChartsTopLinksFallback(t *testing.T) {
	page, err := NewPage([]byte(`<html><body><ul><li><a href="/app/730">Counter-Strike 2</a></li><li><a href="/about">About</a></li></ul></body></html>`))
	require.NoError(t, err)
	games, name, ok := NewTopScraper(nil, nil, testOptions(nil)).chartsPage.Run(page)
	require.True(t, ok)
	assert.Equal(t, "links", name)
	require.Len(t, games, 1)
	assert.Equal(t, "Counter-Strike 2", games[0].Name)
}

func TestNewSourcesOptionalClients(t *testing.T) {
	all := NewSources(&contract.Config{}, nil, nil, zerolog.Nop())
	assert.NotNil(t, all.Owners)
	assert.NotNil(t, all.Reviews)
	assert.NotNil(t, all.Players)
	assert.NotNil(t, all.Top)

	trimmed := NewSources(&contract.Config{NoSteamDB: true, NoReviews: true}, nil, nil, zerolog.Nop())
	assert.Nil(t, trimmed.Owners)
	assert.Nil(t, trimmed.Reviews)
	assert.NotNil(t, trimmed.Top)
}
