package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store guarded by a single RWMutex.
type Memory struct {
	mu      sync.RWMutex
	scalars map[string]string
	hashes  map[string]map[string]string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		scalars: make(map[string]string),
		hashes:  make(map[string]map[string]string),
	}
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scalars[key] = value
	return nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.scalars[key]
	return v, ok, nil
}

// GetMany implements Store. Every key is read under the same read lock.
func (m *Memory) GetMany(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.scalars[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// SetMany implements Store. The batch is applied under one write lock.
func (m *Memory) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.scalars[k] = v
	}
	return nil
}

// SetHash implements Store. fields is copied.
func (m *Memory) SetHash(_ context.Context, key string, fields map[string]string) error {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[key] = cp
	return nil
}

// GetHash implements Store.
func (m *Memory) GetHash(_ context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.hashes[key]
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out, nil
}

// FlushAll implements Store.
func (m *Memory) FlushAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scalars = make(map[string]string)
	m.hashes = make(map[string]map[string]string)
	return nil
}

// Close implements Store. It does nothing.
func (m *Memory) Close() error {
	return nil
}
