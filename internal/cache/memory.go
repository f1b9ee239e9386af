package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryProvider is an in-process Provider used in tests and when no cache
// backend is configured but read-through behaviour is still wanted.
type MemoryProvider struct {
	mu   sync.RWMutex
	data map[string]memoryItem
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryProvider creates an empty in-memory cache.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{data: make(map[string]memoryItem)}
}

// Get retrieves a cached value if present and not expired.
func (c *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	it, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return it.value, nil
}

// Set stores a value with optional TTL (ttl <= 0 means no expiry).
func (c *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.data[key] = memoryItem{value: value, expiresAt: expires}
	c.mu.Unlock()
	return nil
}

// Del removes an entry.
func (c *MemoryProvider) Del(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory cache.
func (c *MemoryProvider) Close() error { return nil }
