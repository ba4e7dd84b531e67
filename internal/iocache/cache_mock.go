package iocache

import (
	"time"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetCache implements the CacheManager interface.
func (m *MockCacheManager) GetCache() contract.Cache {
	ret := m.Called()
	cache, _ := ret.Get(0).(contract.Cache)
	return cache
}

// GetRunStore implements the CacheManager interface.
func (m *MockCacheManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockCache is a mock implementation of Cache for testing.
type MockCache struct {
	mock.Mock
}

var _ contract.Cache = &MockCache{} // Compile-time check

// Get implements the Cache interface.
func (m *MockCache) Get(endpoint string, entityID int64) ([]byte, bool, error) {
	args := m.Called(endpoint, entityID)
	payload, _ := args.Get(0).([]byte)
	return payload, args.Bool(1), args.Error(2)
}

// Set implements the Cache interface.
func (m *MockCache) Set(endpoint string, entityID int64, payload []byte) error {
	args := m.Called(endpoint, entityID, payload)
	return args.Error(0)
}

// Clear implements the Cache interface.
func (m *MockCache) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// Stats implements the Cache interface.
func (m *MockCache) Stats() (schema.CacheStats, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStats), args.Error(1)
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(endpoint string, entityID int64) ([]byte, time.Time, bool, error) {
	args := m.Called(endpoint, entityID)
	payload, _ := args.Get(0).([]byte)
	return payload, args.Get(1).(time.Time), args.Bool(2), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(endpoint string, entityID int64, payload []byte, storedAt time.Time) error {
	args := m.Called(endpoint, entityID, payload, storedAt)
	return args.Error(0)
}

// Delete implements the CacheStore interface.
func (m *MockCacheStore) Delete(endpoint string, entityID int64) error {
	args := m.Called(endpoint, entityID)
	return args.Error(0)
}

// Clear implements the CacheStore interface.
func (m *MockCacheStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// Stats implements the CacheStore interface.
func (m *MockCacheStore) Stats() (schema.CacheStats, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStats), args.Error(1)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startTime time.Time, configParams map[string]any) (string, error) {
	args := m.Called(startTime, configParams)
	return args.String(0), args.Error(1)
}

// RecordPatches implements the RunStore interface.
func (m *MockRunStore) RecordPatches(runID string, records []schema.PatchRecord) error {
	args := m.Called(runID, records)
	return args.Error(0)
}

// RecordPanel implements the RunStore interface.
func (m *MockRunStore) RecordPanel(runID string, rows []schema.PanelRow) error {
	args := m.Called(runID, rows)
	return args.Error(0)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID string, endTime time.Time, totalGames int) error {
	args := m.Called(runID, endTime, totalGames)
	return args.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
