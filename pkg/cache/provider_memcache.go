package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheConfig contains Memcache connection settings.
type MemcacheConfig struct {
	// Servers lists memcache addresses (default: localhost:11211).
	Servers []string

	// MaxIdleConns caps idle connections per server (default: 2).
	MaxIdleConns int

	// Timeout bounds socket operations (default: 1s).
	Timeout time.Duration

	// Options carries the default TTL.
	Options *Options
}

// MemcacheProvider stores entries in a memcache cluster.
type MemcacheProvider struct {
	client  *memcache.Client
	options *Options
}

// NewMemcacheProvider connects to memcache and verifies the connection.
func NewMemcacheProvider(config *MemcacheConfig) (*MemcacheProvider, error) {
	if config == nil {
		config = &MemcacheConfig{}
	}
	if len(config.Servers) == 0 {
		config.Servers = []string{"localhost:11211"}
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 2
	}
	if config.Timeout == 0 {
		config.Timeout = time.Second
	}
	if config.Options == nil {
		config.Options = &Options{DefaultTTL: 5 * time.Minute}
	}

	client := memcache.New(config.Servers...)
	client.MaxIdleConns = config.MaxIdleConns
	client.Timeout = config.Timeout

	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to Memcache: %w", err)
	}

	return &MemcacheProvider{client: client, options: config.Options}, nil
}

func (m *MemcacheProvider) Get(ctx context.Context, key string) ([]byte, bool) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, false
	}
	return item.Value, true
}

func (m *MemcacheProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.options.DefaultTTL
	}
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(ttl.Seconds()),
	})
}

func (m *MemcacheProvider) Delete(ctx context.Context, key string) error {
	err := m.client.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

func (m *MemcacheProvider) Name() string { return "memcache" }

// Stats reports only the provider name; the standard memcache client does
// not expose counters.
func (m *MemcacheProvider) Stats(ctx context.Context) (*Stats, error) {
	return &Stats{Provider: m.Name()}, nil
}

// Close is a no-op; the memcache client has no close method.
func (m *MemcacheProvider) Close() error {
	return nil
}
