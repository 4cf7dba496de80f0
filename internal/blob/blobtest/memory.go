// AngelaMos | 2026
// memory.go

// Package blobtest provides an in-memory blob.Store for tests.
package blobtest

import (
	"context"
	"path"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/carterperez-dev/articles-api/internal/blob"
)

type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, dir string, img *blob.Image) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := path.Join(dir, uuid.New().String()+img.Ext)
	m.objects[key] = img.Data
	return key, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MemoryStore) URL(key string) string {
	return "http://blobs.test/" + key
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MemoryStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

var _ blob.Store = (*MemoryStore)(nil)

// PNG is the smallest header mimetype recognizes as image/png.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
