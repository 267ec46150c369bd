package storage

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository. Used for tests and STORAGE_DRIVER=memory.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]string)}
}

// Get returns the value for key.
func (r *MemoryRepository) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.m[key]
	return v, ok, nil
}

// Set stores value under key.
func (r *MemoryRepository) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = value
	return nil
}

// Delete removes keys.
func (r *MemoryRepository) Delete(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.m, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}
