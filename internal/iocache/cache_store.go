package iocache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
)

// cacheTable is the name of the table holding fetch payloads.
const cacheTable = "patchpanel_cache"

// CacheStoreImpl handles durable cache storage using the SQL backends.
type CacheStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.CacheStore = &CacheStoreImpl{} // Compile-time check

// NewCacheStore initializes and returns a new CacheStore based on the backend type.
// Redis has its own implementation, see NewRedisCacheStore.
func NewCacheStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.CacheStore, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	switch backend {
	case schema.NoneBackend:
		// Return a no-op store for disabled caching
		return &CacheStoreImpl{tableName: tableName, backend: backend, connStr: connStr}, nil
	case schema.RedisBackend:
		return NewRedisCacheStore(connStr)
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s. Must be sqlite, mysql, postgresql, redis, or none", backend)
	}

	db, err := openDB(backend, connStr, GetDBFilePath())
	if err != nil {
		return nil, err
	}

	// Create the table schema
	query := getCreateTableQuery(tableName, backend)
	if _, err := db.Exec(query); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &CacheStoreImpl{db: db, tableName: tableName, backend: backend, connStr: connStr}, nil
}

// getCreateTableQuery returns the CREATE TABLE query for the given backend.
func getCreateTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				endpoint VARCHAR(64) NOT NULL,
				entity_id BIGINT NOT NULL,
				payload LONGBLOB NOT NULL,
				stored_at BIGINT NOT NULL,
				PRIMARY KEY (endpoint, entity_id)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				endpoint TEXT NOT NULL,
				entity_id BIGINT NOT NULL,
				payload BYTEA NOT NULL,
				stored_at BIGINT NOT NULL,
				PRIMARY KEY (endpoint, entity_id)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				endpoint TEXT NOT NULL,
				entity_id INTEGER NOT NULL,
				payload BLOB NOT NULL,
				stored_at INTEGER NOT NULL,
				PRIMARY KEY (endpoint, entity_id)
			);
		`, quotedTableName)
	}
}

// disabled reports whether the store is the no-op backend.
func (ps *CacheStoreImpl) disabled() bool {
	return ps.backend == schema.NoneBackend || ps.db == nil
}

// Get retrieves a payload and its write time. found is false when the key is absent.
func (ps *CacheStoreImpl) Get(endpoint string, entityID int64) ([]byte, time.Time, bool, error) {
	if ps.disabled() {
		return nil, time.Time{}, false, nil
	}

	var payload []byte
	var storedAt int64

	binds := placeholders(ps.backend, 1, 2)
	query := fmt.Sprintf(`SELECT payload, stored_at FROM %s WHERE endpoint = %s AND entity_id = %s`, quoteTableName(ps.tableName, ps.backend), binds[0], binds[1])
	row := ps.db.QueryRow(query, endpoint, entityID)
	if err := row.Scan(&payload, &storedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("failed to read cache entry %s/%d: %w", endpoint, entityID, err)
	}
	return payload, time.UnixMilli(storedAt).UTC(), true, nil
}

// Set inserts or replaces a payload in the store.
func (ps *CacheStoreImpl) Set(endpoint string, entityID int64, payload []byte, storedAt time.Time) error {
	if ps.disabled() {
		return nil
	}
	if _, err := ps.db.Exec(ps.getUpsertQuery(), endpoint, entityID, payload, storedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to write cache entry %s/%d: %w", endpoint, entityID, err)
	}
	return nil
}

// Delete removes a single entry.
func (ps *CacheStoreImpl) Delete(endpoint string, entityID int64) error {
	if ps.disabled() {
		return nil
	}
	binds := placeholders(ps.backend, 1, 2)
	query := fmt.Sprintf(`DELETE FROM %s WHERE endpoint = %s AND entity_id = %s`, quoteTableName(ps.tableName, ps.backend), binds[0], binds[1])
	if _, err := ps.db.Exec(query, endpoint, entityID); err != nil {
		return fmt.Errorf("failed to delete cache entry %s/%d: %w", endpoint, entityID, err)
	}
	return nil
}

// Clear removes every entry but keeps the table.
func (ps *CacheStoreImpl) Clear() error {
	if ps.disabled() {
		return nil
	}
	if _, err := ps.db.Exec(fmt.Sprintf(`DELETE FROM %s`, quoteTableName(ps.tableName, ps.backend))); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Stats counts entries per endpoint.
func (ps *CacheStoreImpl) Stats() (schema.CacheStats, error) {
	stats := schema.CacheStats{CountByEndpoint: map[string]int{}}
	if ps.disabled() {
		return stats, nil
	}

	query := fmt.Sprintf(`SELECT endpoint, COUNT(*) FROM %s GROUP BY endpoint`, quoteTableName(ps.tableName, ps.backend))
	rows, err := ps.db.Query(query)
	if err != nil {
		return stats, fmt.Errorf("failed to count cache entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var endpoint string
		var count int
		if err := rows.Scan(&endpoint, &count); err != nil {
			return stats, fmt.Errorf("failed to scan cache counts: %w", err)
		}
		stats.CountByEndpoint[endpoint] = count
		stats.TotalCount += count
	}
	return stats, rows.Err()
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ps *CacheStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(ps.tableName, ps.backend)
	switch ps.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (endpoint, entity_id, payload, stored_at) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE payload = new.payload, stored_at = new.stored_at`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (endpoint, entity_id, payload, stored_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (endpoint, entity_id) DO UPDATE SET payload = EXCLUDED.payload, stored_at = EXCLUDED.stored_at`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (endpoint, entity_id, payload, stored_at) VALUES (?, ?, ?, ?)`, quotedTableName)
	}
}

// Close closes the underlying DB connection.
func (ps *CacheStoreImpl) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}

// GetStatus returns status information about the cache store.
func (ps *CacheStoreImpl) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:    string(ps.backend),
		Connected:  ps.db != nil,
		ByEndpoint: map[string]int{},
	}
	if ps.disabled() {
		return status, nil
	}

	stats, err := ps.Stats()
	if err != nil {
		return status, err
	}
	status.TotalEntries = stats.TotalCount
	status.ByEndpoint = stats.CountByEndpoint
	if status.TotalEntries == 0 {
		return status, nil
	}

	quotedTableName := quoteTableName(ps.tableName, ps.backend)
	var newest, oldest int64
	row := ps.db.QueryRow(fmt.Sprintf("SELECT MAX(stored_at), MIN(stored_at) FROM %s", quotedTableName))
	if err := row.Scan(&newest, &oldest); err != nil {
		return status, fmt.Errorf("failed to get entry times: %w", err)
	}
	status.LastEntryTime = time.UnixMilli(newest).UTC()
	status.OldestEntryTime = time.UnixMilli(oldest).UTC()

	// Rough estimate unless the backend can tell us
	status.TableSizeBytes = int64(status.TotalEntries) * 1000
	switch ps.backend {
	case schema.SQLiteBackend:
		sizeQuery := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
		if err := ps.db.QueryRow(sizeQuery).Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = 0
		}
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(ps.connStr)
		if err != nil || cfg.DBName == "" {
			break
		}
		sizeQuery := "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		var size int64
		if err := ps.db.QueryRow(sizeQuery, cfg.DBName, ps.tableName).Scan(&size); err == nil {
			status.TableSizeBytes = size
		}
	case schema.PostgreSQLBackend:
		var size int64
		if err := ps.db.QueryRow("SELECT pg_total_relation_size($1)", ps.tableName).Scan(&size); err == nil {
			status.TableSizeBytes = size
		}
	}

	return status, nil
}
