package cache

import (
	"context"
	"fmt"
	"time"
)

// defaultCache backs the package-level helpers. The server configures it
// once at startup; GetDefaultCache falls back to memory so tests and
// tooling work without configuration.
var defaultCache *Cache

// UseMemory backs the default cache with the in-process provider.
func UseMemory(opts *Options) error {
	defaultCache = NewCache(NewMemoryProvider(opts))
	return nil
}

// UseRedis backs the default cache with Redis.
func UseRedis(config *RedisConfig) error {
	provider, err := NewRedisProvider(config)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis provider: %w", err)
	}
	defaultCache = NewCache(provider)
	return nil
}

// UseMemcache backs the default cache with Memcache.
func UseMemcache(config *MemcacheConfig) error {
	provider, err := NewMemcacheProvider(config)
	if err != nil {
		return fmt.Errorf("failed to initialize Memcache provider: %w", err)
	}
	defaultCache = NewCache(provider)
	return nil
}

// GetDefaultCache returns the default cache, initializing a memory-backed
// one when nothing was configured.
func GetDefaultCache() *Cache {
	if defaultCache == nil {
		_ = UseMemory(&Options{
			DefaultTTL: 5 * time.Minute,
			MaxSize:    10000,
		})
	}
	return defaultCache
}

// SetDefaultCache replaces the default cache instance.
func SetDefaultCache(cache *Cache) {
	defaultCache = cache
}

// GetStats reports the default cache's provider counters.
func GetStats(ctx context.Context) (*Stats, error) {
	return GetDefaultCache().Stats(ctx)
}

// Close releases the default cache.
func Close() error {
	if defaultCache != nil {
		return defaultCache.Close()
	}
	return nil
}
