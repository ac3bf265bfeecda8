package cache

import (
	"fmt"
	"sync"
	"time"
)

// memoryEntry pairs a stored value with its expiry deadline. A zero deadline
// means the entry never expires.
type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-process implementation of the Cache interface. It is
// used when no Redis address is configured, and in tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates a new MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get retrieves a value. Missing or expired keys return an empty string and
// no error, matching the Redis implementation's miss behavior.
func (m *MemoryCache) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", nil
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return "", nil
	}
	return entry.value, nil
}

// Set stores a value with an expiration. A non-positive expiration stores the
// value without a deadline.
func (m *MemoryCache) Set(key string, value interface{}, expiration time.Duration) error {
	str, ok := value.(string)
	if !ok {
		str = fmt.Sprintf("%v", value)
	}

	entry := memoryEntry{value: str}
	if expiration > 0 {
		entry.expiresAt = m.now().Add(expiration)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Delete removes a value.
func (m *MemoryCache) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
