package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pustaka/pkg/metrics"
)

// Cache serializes values as JSON in front of a Provider. Session tokens
// and decoded settings both live behind this type.
type Cache struct {
	provider Provider
}

// NewCache wraps a provider in a cache manager.
func NewCache(provider Provider) *Cache {
	return &Cache{provider: provider}
}

// Get retrieves and deserializes the value under key into dest. A miss is
// an error so callers can fall through to the backing store.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := c.provider.Get(ctx, key)
	if !ok {
		metrics.GetProvider().RecordCacheMiss(c.provider.Name())
		return fmt.Errorf("key not found: %s", key)
	}
	metrics.GetProvider().RecordCacheHit(c.provider.Name())

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to deserialize %s: %w", key, err)
	}
	return nil
}

// Set serializes value and stores it under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	return c.provider.Set(ctx, key, data, ttl)
}

// Delete removes the value under key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.provider.Delete(ctx, key)
}

// Stats reports the provider counters.
func (c *Cache) Stats(ctx context.Context) (*Stats, error) {
	return c.provider.Stats(ctx)
}

// Close releases the provider.
func (c *Cache) Close() error {
	return c.provider.Close()
}
