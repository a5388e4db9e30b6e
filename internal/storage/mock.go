package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/crawl-engine/pkg/catalog"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	crawls    map[uuid.UUID]*SavedCrawl
	cat       catalog.Catalog
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		crawls: make(map[uuid.UUID]*SavedCrawl),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetCatalog seeds the catalog returned by GetCatalog
func (m *MockStorage) SetCatalog(cat catalog.Catalog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cat = cat
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveCrawl(ctx context.Context, id uuid.UUID, sc *SavedCrawl) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crawls[id] = sc
	return nil
}

func (m *MockStorage) LoadCrawl(ctx context.Context, id uuid.UUID) (*SavedCrawl, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.crawls[id]
	if !ok {
		return nil, nil // Not found returns nil, matching RedisStorage
	}
	return sc, nil
}

func (m *MockStorage) DeleteCrawl(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.crawls, id)
	return nil
}

func (m *MockStorage) GetCatalog(ctx context.Context) (catalog.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cat, nil
}
