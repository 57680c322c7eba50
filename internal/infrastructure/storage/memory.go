package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/storefront/backend/internal/domain/catalog"
)

// MemoryImageStore keeps images in memory. It backs local development
// when object storage is disabled, and tests.
type MemoryImageStore struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

var _ catalog.ImageStore = (*MemoryImageStore)(nil)

// NewMemoryImageStore creates an empty store serving under baseURL
func NewMemoryImageStore(baseURL string) *MemoryImageStore {
	return &MemoryImageStore{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

// Put stores the object and returns its URL
func (m *MemoryImageStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage key is required")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return m.BaseURL + "/" + key, nil
}

// Delete removes the object behind url
func (m *MemoryImageStore) Delete(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, m.BaseURL+"/")
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Get returns a stored object
func (m *MemoryImageStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}
