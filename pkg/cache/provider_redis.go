package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	// Host is the Redis server host (default: localhost).
	Host string

	// Port is the Redis server port (default: 6379).
	Port int

	// Password for Redis authentication, empty when unauthenticated.
	Password string

	// DB is the Redis database number.
	DB int

	// PoolSize caps the connection pool (default: 10).
	PoolSize int

	// Options carries the default TTL.
	Options *Options
}

// RedisProvider stores entries in Redis so sessions and decoded settings
// survive restarts and are shared across instances.
type RedisProvider struct {
	client  *redis.Client
	options *Options
}

// NewRedisProvider connects to Redis and verifies the connection.
func NewRedisProvider(config *RedisConfig) (*RedisProvider, error) {
	if config == nil {
		config = &RedisConfig{}
	}
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 6379
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}
	if config.Options == nil {
		config.Options = &Options{DefaultTTL: 5 * time.Minute}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProvider{client: client, options: config.Options}, nil
}

func (r *RedisProvider) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (r *RedisProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.options.DefaultTTL
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisProvider) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisProvider) Name() string { return "redis" }

// Stats reports the key count. Redis tracks hits and misses server-wide,
// not per client, so those counters stay zero here.
func (r *RedisProvider) Stats(ctx context.Context) (*Stats, error) {
	size, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis key count: %w", err)
	}
	return &Stats{Keys: size, Provider: r.Name()}, nil
}

func (r *RedisProvider) Close() error {
	return r.client.Close()
}
