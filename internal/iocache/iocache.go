// Package iocache is for caching I/O calls and persisting batch runs.
package iocache

import (
	"sync"

	"github.com/huangsam/patchpanel/internal/contract"
)

// CacheStoreManager holds the TTL cache and the run store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	cache        contract.Cache
	cacheStore   contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetCache returns the TTL cache.
func (mgr *CacheStoreManager) GetCache() contract.Cache {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.cache
}

// GetCacheStore returns the durable store behind the TTL cache.
func (mgr *CacheStoreManager) GetCacheStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.cacheStore
}

// GetRunStore returns the run store, or nil when run tracking is disabled.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
