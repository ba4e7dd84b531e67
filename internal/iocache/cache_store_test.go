package iocache

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/patchpanel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCacheStoreRejectsBadInput(t *testing.T) {
	_, err := NewCacheStore("drop table;", schema.SQLiteBackend, "")
	assert.Error(t, err)

	_, err = NewCacheStore(cacheTable, schema.DatabaseBackend("mongo"), "")
	assert.Error(t, err)
}

func TestCacheStoreSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	stamp := time.Date(2024, 2, 3, 4, 5, 6, 7_000_000, time.UTC)

	_, _, found, err := store.Get(schema.EndpointSteamNews, 730)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(schema.EndpointSteamNews, 730, []byte("payload"), stamp))
	payload, storedAt, found, err := store.Get(schema.EndpointSteamNews, 730)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), payload)
	assert.True(t, stamp.Equal(storedAt))

	require.NoError(t, store.Set(schema.EndpointSteamDB, 730, []byte("owners"), stamp.Add(time.Hour)))
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, map[string]int{schema.EndpointSteamNews: 1, schema.EndpointSteamDB: 1}, status.ByEndpoint)
	assert.True(t, stamp.Add(time.Hour).Equal(status.LastEntryTime))
	assert.True(t, stamp.Equal(status.OldestEntryTime))
	assert.Positive(t, status.TableSizeBytes)

	require.NoError(t, store.Delete(schema.EndpointSteamNews, 730))
	_, _, found, err = store.Get(schema.EndpointSteamNews, 730)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(cacheTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Set(schema.EndpointSteamCharts, 1, []byte("[]"), time.Now()))
	require.NoError(t, store.Close())

	reopened, err := NewCacheStore(cacheTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	_, _, found, err := reopened.Get(schema.EndpointSteamCharts, 1)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore(cacheTable, schema.NoneBackend, "")
	require.NoError(t, err)

	require.NoError(t, store.Set(schema.EndpointSteamNews, 1, []byte("x"), time.Now()))
	_, _, found, err := store.Get(schema.EndpointSteamNews, 1)
	require.NoError(t, err)
	assert.False(t, found)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalCount)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Clear())
	assert.NoError(t, store.Close())
}

func TestClearCacheSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(cacheTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Set(schema.EndpointSteamNews, 1, []byte("x"), time.Now()))
	require.NoError(t, store.Close())

	require.NoError(t, ClearCache(schema.SQLiteBackend, path))

	store, err = NewCacheStore(cacheTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalCount)

	assert.NoError(t, ClearCache(schema.NoneBackend, ""))
}

func TestRedisKeyRoundTrip(t *testing.T) {
	key := redisKey(schema.EndpointStoreDetails, 292030)
	assert.Equal(t, "patchpanel:cache:store_appdetails:292030", key)
	assert.Equal(t, schema.EndpointStoreDetails, endpointFromKey(key))
}

func TestValidateTableName(t *testing.T) {
	assert.NoError(t, validateTableName("patchpanel_cache"))
	assert.Error(t, validateTableName("1abc"))
	assert.Error(t, validateTableName("a-b"))
	assert.Error(t, validateTableName(""))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", bindList(schema.SQLiteBackend, 1, 3))
	assert.Equal(t, "?, ?", bindList(schema.MySQLBackend, 1, 2))
	assert.Equal(t, "$2, $3", bindList(schema.PostgreSQLBackend, 2, 2))
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
}

func TestPrintCacheStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{
		Backend:         "sqlite",
		Connected:       true,
		TotalEntries:    3,
		ByEndpoint:      map[string]int{schema.EndpointSteamNews: 2, schema.EndpointSteamDB: 1},
		LastEntryTime:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		OldestEntryTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TableSizeBytes:  4096,
	})
	out := buf.String()
	assert.Contains(t, out, "Cache Backend: sqlite")
	assert.Contains(t, out, "Total Entries: 3")
	assert.Contains(t, out, "  steam_news: 2")
	assert.Contains(t, out, "Last Entry: 2024-01-02 03:04:05")
	assert.Contains(t, out, "Table Size: 4096 bytes")

	buf.Reset()
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.NotContains(t, buf.String(), "Total Entries")
}
