package steam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/patchpanel/internal/fetch"
	"github.com/huangsam/patchpanel/internal/iocache"
	"github.com/huangsam/patchpanel/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubFetcher answers every request with a fixed body or error.
type stubFetcher struct {
	mu       sync.Mutex
	body     string
	err      error
	requests []fetch.Request
}

func (f *stubFetcher) Fetch(_ context.Context, req fetch.Request) (fetch.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return fetch.Response{}, f.err
	}
	return fetch.Response{StatusCode: http.StatusOK, Body: []byte(f.body)}, nil
}

func (f *stubFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// memoryCache is a map-backed cache without expiry.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) key(endpoint string, id int64) string { return fmt.Sprintf("%s/%d", endpoint, id) }

func (c *memoryCache) Get(endpoint string, id int64) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("disk on fire")
	}
	v, ok := c.entries[c.key(endpoint, id)]
	return v, ok, nil
}

func (c *memoryCache) Set(endpoint string, id int64, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(endpoint, id)] = payload
	return nil
}

func (c *memoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]byte{}
	return nil
}

func (c *memoryCache) Stats() (schema.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return schema.CacheStats{TotalCount: len(c.entries)}, nil
}

func testOptions(cache *memoryCache) Options {
	opts := Options{Endpoints: DefaultEndpoints(), Logger: zerolog.Nop()}
	if cache != nil {
		opts.Cache = cache
	}
	return opts
}

const newsBody = `{"appnews":{"appid":730,"newsitems":[
	{"title":"Patch 1.2","contents":"bug fix","date":1700000000},
	{"title":"Sale","contents":"discounts","date":1690000000}
]}}`

func TestNewsClientDecodesAndCaches(t *testing.T) {
	f := &stubFetcher{body: newsBody}
	cache := newMemoryCache()
	opts := testOptions(cache)
	opts.APIKey = "secret"
	c := NewNewsClient(f, opts)

	items, err := c.FetchNews(context.Background(), 730)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Patch 1.2", items[0].Title)
	assert.Equal(t, "bug fix", items[0].Body)
	assert.Equal(t, int64(1700000000), items[0].SourceTimestamp)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), items[0].PublishedAt)
	assert.Equal(t, int64(730), items[1].AppID)

	req := f.requests[0]
	assert.Equal(t, "730", req.Params.Get("appid"))
	assert.Equal(t, "100", req.Params.Get("count"))
	assert.Equal(t, "2000", req.Params.Get("maxlength"))
	assert.Equal(t, "secret", req.Params.Get("key"))
	assert.False(t, req.Scraped)

	again, err := c.FetchNews(context.Background(), 730)
	require.NoError(t, err)
	assert.Equal(t, items, again)
	assert.Equal(t, 1, f.calls(), "second read served from cache")
}

func TestNewsClientOmitsEmptyKey(t *testing.T) {
	f := &stubFetcher{body: newsBody}
	_, err := NewNewsClient(f, testOptions(nil)).FetchNews(context.Background(), 730)
	require.NoError(t, err)
	assert.False(t, f.requests[0].Params.Has("key"))
}

func TestNewsClientMalformedNotCached(t *testing.T) {
	cache := newMemoryCache()
	for _, body := range []string{`not json`, `{"other":{}}`} {
		f := &stubFetcher{body: body}
		_, err := NewNewsClient(f, testOptions(cache)).FetchNews(context.Background(), 1)
		assert.ErrorIs(t, err, ErrMalformed, body)
	}
	stats, _ := cache.Stats()
	assert.Zero(t, stats.TotalCount)
}

func TestNewsClientEmptyListIsValid(t *testing.T) {
	f := &stubFetcher{body: `{"appnews":{"newsitems":[]}}`}
	items, err := NewNewsClient(f, testOptions(nil)).FetchNews(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestNewsClientPropagatesUnavailable(t *testing.T) {
	f := &stubFetcher{err: fmt.Errorf("%w: boom", fetch.ErrUnavailable)}
	_, err := NewNewsClient(f, testOptions(nil)).FetchNews(context.Background(), 1)
	assert.ErrorIs(t, err, fetch.ErrUnavailable)
}

func TestReadCacheFailureIsMiss(t *testing.T) {
	cache := newMemoryCache()
	cache.failGet = true
	f := &stubFetcher{body: newsBody}
	items, err := NewNewsClient(f, testOptions(cache)).FetchNews(context.Background(), 730)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, f.calls())
}

func TestWriteCacheFailureIsSkipped(t *testing.T) {
	cache := &iocache.MockCache{}
	cache.On("Get", schema.EndpointSteamNews, int64(730)).Return(nil, false, nil)
	cache.On("Set", schema.EndpointSteamNews, int64(730), mock.Anything).Return(errors.New("disk full"))

	opts := Options{Endpoints: DefaultEndpoints(), Logger: zerolog.Nop(), Cache: cache}
	items, err := NewNewsClient(&stubFetcher{body: newsBody}, opts).FetchNews(context.Background(), 730)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	cache.AssertExpectations(t)
}

func TestReadCacheUndecodableIsMiss(t *testing.T) {
	cache := newMemoryCache()
	require.NoError(t, cache.Set(schema.EndpointSteamNews, 730, []byte("{broken")))
	f := &stubFetcher{body: newsBody}
	items, err := NewNewsClient(f, testOptions(cache)).FetchNews(context.Background(), 730)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestStoreClientDecodes(t *testing.T) {
	body := `{"570":{"success":true,"data":{
		"name":"Dota 2","type":"game",
		"developers":["Valve"],"publishers":["Valve"],
		"metacritic":{"score":90,"url":"x"},
		"genres":[{"id":"1","description":"Action"},{"id":"37","description":"Free to Play"}],
		"release_date":{"coming_soon":false,"date":"9 Jul, 2013"}}}}`
	f := &stubFetcher{body: body}
	cache := newMemoryCache()
	c := NewStoreClient(f, testOptions(cache))

	meta, err := c.FetchStoreMetadata(context.Background(), 570)
	require.NoError(t, err)
	assert.Equal(t, "Dota 2", meta.Name)
	assert.Equal(t, "game", meta.Type)
	require.NotNil(t, meta.MetacriticScore)
	assert.Equal(t, 90, *meta.MetacriticScore)
	assert.Equal(t, []string{"Action", "Free to Play"}, meta.Genres)
	assert.Equal(t, "9 Jul, 2013", meta.ReleaseDate)
	assert.Equal(t, "english", f.requests[0].Params.Get("l"))
	assert.Equal(t, "570", f.requests[0].Params.Get("appids"))

	_, err = c.FetchStoreMetadata(context.Background(), 570)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls())
}

func TestStoreClientWithoutMetacritic(t *testing.T) {
	f := &stubFetcher{body: `{"10":{"success":true,"data":{"name":"Counter-Strike","type":"game"}}}`}
	meta, err := NewStoreClient(f, testOptions(nil)).FetchStoreMetadata(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, meta.MetacriticScore)
	assert.Equal(t, []string{}, meta.Developers)
	assert.Equal(t, []string{}, meta.Genres)
}

func TestStoreClientNotFound(t *testing.T) {
	f := &stubFetcher{body: `{"999":{"success":false}}`}
	_, err := NewStoreClient(f, testOptions(nil)).FetchStoreMetadata(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreClientMissingEntry(t *testing.T) {
	f := &stubFetcher{body: `{"1":{"success":true,"data":{}}}`}
	_, err := NewStoreClient(f, testOptions(nil)).FetchStoreMetadata(context.Background(), 2)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNewsClientOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "440", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(newsBody))
	}))
	defer srv.Close()

	opts := testOptions(nil)
	opts.Endpoints.NewsURL = srv.URL
	client := fetch.New(fetch.Options{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})

	items, err := NewNewsClient(client, opts).FetchNews(context.Background(), 440)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
