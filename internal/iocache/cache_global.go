package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for cache storage.
func GetDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetRunDBFilePath returns the path to the SQLite DB file for run storage.
func GetRunDBFilePath() string {
	return contract.GetRunDBFilePath()
}

// InitCaching initializes the global manager with the TTL cache and the run store.
// runBackend can be empty to disable run tracking.
func InitCaching(cacheBackend schema.DatabaseBackend, cacheConnStr string, ttl time.Duration, runBackend schema.DatabaseBackend, runConnStr string, opts ...TTLOption) error {
	var initErr error

	initOnce.Do(func() {
		store, err := NewCacheStore(cacheTable, cacheBackend, cacheConnStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize caching: %w", err)
			return
		}

		var runs contract.RunStore
		if runBackend != "" {
			runs, err = NewRunStore(runBackend, runConnStr)
			if err != nil {
				_ = store.Close()
				initErr = fmt.Errorf("failed to initialize run store: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.cacheStore = store
		Manager.cache = NewTTLCache(store, ttl, opts...)
		Manager.runs = runs
	})

	return initErr
}

// CloseCaching should be called on application shutdown.
func CloseCaching() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.cacheStore != nil {
			_ = Manager.cacheStore.Close()
		}
		if Manager.runs != nil {
			_ = Manager.runs.Close()
		}
	})
}

// ClearCache removes every cache entry for the specified backend.
func ClearCache(backend schema.DatabaseBackend, connStr string) error {
	if backend == schema.NoneBackend {
		return nil
	}
	store, err := NewCacheStore(cacheTable, backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.Clear()
}

// ClearRuns clears the run data for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the run tables and the migration history.
// For NoneBackend, it does nothing.
func ClearRuns(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		dbFilePath := connStr
		if dbFilePath == "" {
			dbFilePath = GetRunDBFilePath()
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		tables := append([]string{migrationsTable}, runTables...)
		return dropSQLTables(backend, connStr, tables)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported run backend for clearing: %s", backend)
	}
}

// dropSQLTables connects to the SQL database and drops the tables if they exist.
func dropSQLTables(backend schema.DatabaseBackend, connStr string, tables []string) error {
	driverName, err := driverFor(backend)
	if err != nil {
		return err
	}
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
