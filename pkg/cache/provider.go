package cache

import (
	"context"
	"time"
)

// Provider is the storage backend behind the cache manager. Implementations
// hold opaque byte values under string keys with a per-entry TTL.
type Provider interface {
	// Get returns the value stored under key, or false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key. A zero ttl uses the provider default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Name identifies the backend in stats and metrics.
	Name() string

	// Stats reports the counters surfaced by the health endpoint.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the backend connection or storage.
	Close() error
}

// Stats summarizes a provider for the health endpoint.
type Stats struct {
	Hits     int64  `json:"hits"`
	Misses   int64  `json:"misses"`
	Keys     int64  `json:"keys"`
	Provider string `json:"provider"`
}

// Options tunes the memory provider.
type Options struct {
	// DefaultTTL applies when Set is called with a zero ttl.
	DefaultTTL time.Duration

	// MaxSize caps the number of entries; the least recently used entry
	// is evicted when the cap is reached.
	MaxSize int
}
