package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache used in tests and single-node setups
// where Redis is not configured. Expiry is evaluated lazily on Get.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// now is the clock, overridable in tests.
	now func() time.Time
}

// memoryEntry is a stored value and its expiry deadline (zero = never).
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value for key, treating expired entries as absent.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}

	val := make([]byte, len(e.value))
	copy(val, e.value)
	return val, true, nil
}

// Set stores value under key for the given TTL (zero = no expiry).
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}
