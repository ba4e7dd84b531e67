package iocache

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/patchpanel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newSQLiteStore(t *testing.T) *CacheStoreImpl {
	t.Helper()
	store, err := NewCacheStore(cacheTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*CacheStoreImpl)
}

func TestTTLCacheSetGetExpire(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	var lookups []string
	cache := NewTTLCache(newSQLiteStore(t), 7*24*time.Hour,
		WithClock(clock.Now),
		WithLookupObserver(func(_ string, result string) { lookups = append(lookups, result) }),
	)

	payload := []byte(`{"appnews":{"newsitems":[]}}`)
	require.NoError(t, cache.Set(schema.EndpointSteamNews, 730, payload))

	got, ok, err := cache.Get(schema.EndpointSteamNews, 730)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload, got)

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCount)

	clock.Advance(7*24*time.Hour + time.Second)
	got, ok, err = cache.Get(schema.EndpointSteamNews, 730)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	stats, err = cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalCount)

	assert.Equal(t, []string{LookupHit, LookupExpired}, lookups)
}

func TestTTLCacheBoundaryIsInclusive(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewTTLCache(newSQLiteStore(t), time.Hour, WithClock(clock.Now))
	require.NoError(t, cache.Set(schema.EndpointSteamDB, 1, []byte(`{}`)))

	clock.Advance(time.Hour)
	_, ok, err := cache.Get(schema.EndpointSteamDB, 1)
	require.NoError(t, err)
	assert.True(t, ok, "an entry exactly ttl old is still fresh")
}

func TestTTLCacheLastWriteWins(t *testing.T) {
	cache := NewTTLCache(newSQLiteStore(t), time.Hour)
	require.NoError(t, cache.Set(schema.EndpointStoreDetails, 10, []byte(`"first"`)))
	require.NoError(t, cache.Set(schema.EndpointStoreDetails, 10, []byte(`"second"`)))

	got, ok, err := cache.Get(schema.EndpointStoreDetails, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`"second"`), got)

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCount)
}

func TestTTLCacheMissAndClear(t *testing.T) {
	cache := NewTTLCache(newSQLiteStore(t), time.Hour)
	_, ok, err := cache.Get(schema.EndpointSteamCharts, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(schema.EndpointSteamCharts, 42, []byte(`[]`)))
	require.NoError(t, cache.Set(schema.EndpointSteamNews, 42, []byte(`[]`)))
	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCount)
	assert.Equal(t, 1, stats.CountByEndpoint[schema.EndpointSteamCharts])

	require.NoError(t, cache.Clear())
	stats, err = cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalCount)
}

func TestTTLCacheKeysAreScopedByEndpoint(t *testing.T) {
	cache := NewTTLCache(newSQLiteStore(t), time.Hour)
	require.NoError(t, cache.Set(schema.EndpointSteamNews, 5, []byte(`"news"`)))
	_, ok, err := cache.Get(schema.EndpointStoreDetails, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLCachePropagatesStoreErrors(t *testing.T) {
	store := &MockCacheStore{}
	boom := errors.New("disk full")
	store.On("Get", schema.EndpointSteamNews, int64(1)).Return(nil, time.Time{}, false, boom)
	store.On("Set", schema.EndpointSteamNews, int64(1), mock.Anything, mock.Anything).Return(boom)

	cache := NewTTLCache(store, time.Hour)
	_, _, err := cache.Get(schema.EndpointSteamNews, 1)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, cache.Set(schema.EndpointSteamNews, 1, []byte(`{}`)), boom)
	store.AssertExpectations(t)
}

func TestTTLCacheConcurrentAccess(t *testing.T) {
	cache := NewTTLCache(newSQLiteStore(t), time.Hour)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, cache.Set(schema.EndpointSteamNews, id, []byte(`{}`)))
			_, ok, err := cache.Get(schema.EndpointSteamNews, id)
			assert.NoError(t, err)
			assert.True(t, ok)
		}(int64(i))
	}
	wg.Wait()

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalCount)
}
