// Package cache defines the key/value cache collaborator used for
// embedding reuse, plus its Redis and in-process implementations.
// Keys are opaque strings (content hashes in practice); values are raw
// bytes with a per-entry TTL.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe to call from multiple goroutines.
type Cache interface {
	// Get returns the value for key. The second return is false when the
	// key is absent or expired — that is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for the given TTL. A zero TTL means no
	// expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
