package asset

import (
	"context"
	"sync"
)

// MemoryStore keeps assets in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	assets map[string]Asset
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assets: make(map[string]Asset)}
}

func (m *MemoryStore) Get(ctx context.Context, fullPath string) (Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assets[fullPath]
	if !ok {
		return Asset{}, ErrAssetNotFound
	}
	return a.clone(), nil
}

func (m *MemoryStore) Put(ctx context.Context, a Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.assets[a.Key.FullPath] = a.clone()
	return nil
}

func (m *MemoryStore) Chunk(ctx context.Context, enc Encoding, index int) ([]byte, error) {
	chunk, ok := enc.loadedChunk(index)
	if !ok {
		return nil, ErrChunkNotFound
	}
	return chunk, nil
}

// Len returns the number of stored assets.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets)
}
