package memory

import (
	"context"
	"errors"
	"sync"
)

// Backend is an in-memory key-value substrate for demo/testing.
type Backend struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewBackend constructs a backend.
func NewBackend() *Backend {
	return &Backend{data: make(map[string]string)}
}

// Get returns the value at key and whether it exists.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	if b == nil {
		return "", false, errors.New("memory backend: nil backend")
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.data[key]
	return value, ok, nil
}

// Put stores value at key.
func (b *Backend) Put(ctx context.Context, key, value string) error {
	_ = ctx
	if b == nil {
		return errors.New("memory backend: nil backend")
	}
	if key == "" {
		return errors.New("memory backend: empty key")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (b *Backend) Delete(ctx context.Context, key string) error {
	_ = ctx
	if b == nil {
		return errors.New("memory backend: nil backend")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}
