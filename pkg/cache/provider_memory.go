package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// entry is one stored value. A zero expiry means the entry never expires.
type entry struct {
	value      []byte
	expiry     time.Time
	lastAccess time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiry.IsZero() && now.After(e.expiry)
}

// MemoryProvider keeps entries in-process. It serves single-instance
// deployments and every test; sessions survive only as long as the server.
type MemoryProvider struct {
	mu      sync.Mutex
	entries map[string]*entry
	options *Options
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewMemoryProvider creates the in-process provider. nil opts get a 5
// minute default TTL and a 10000 entry cap.
func NewMemoryProvider(opts *Options) *MemoryProvider {
	if opts == nil {
		opts = &Options{
			DefaultTTL: 5 * time.Minute,
			MaxSize:    10000,
		}
	}
	return &MemoryProvider{
		entries: make(map[string]*entry),
		options: opts,
	}
}

func (m *MemoryProvider) Get(ctx context.Context, key string) ([]byte, bool) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		m.misses.Add(1)
		return nil, false
	}
	if e.expired(now) {
		delete(m.entries, key)
		m.misses.Add(1)
		return nil, false
	}

	e.lastAccess = now
	m.hits.Add(1)
	return e.value, true
}

func (m *MemoryProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.options.DefaultTTL
	}

	now := time.Now()
	var expiry time.Time
	if ttl > 0 {
		expiry = now.Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.options.MaxSize > 0 && len(m.entries) >= m.options.MaxSize {
		if _, exists := m.entries[key]; !exists {
			m.evictOldest(now)
		}
	}

	m.entries[key] = &entry{value: value, expiry: expiry, lastAccess: now}
	return nil
}

func (m *MemoryProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryProvider) Name() string { return "memory" }

func (m *MemoryProvider) Stats(ctx context.Context) (*Stats, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	live := int64(0)
	for _, e := range m.entries {
		if !e.expired(now) {
			live++
		}
	}

	return &Stats{
		Hits:     m.hits.Load(),
		Misses:   m.misses.Load(),
		Keys:     live,
		Provider: m.Name(),
	}, nil
}

func (m *MemoryProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
	return nil
}

// evictOldest drops an expired entry when one exists, otherwise the least
// recently used entry. Callers hold the lock.
func (m *MemoryProvider) evictOldest(now time.Time) {
	var oldestKey string
	var oldestAccess time.Time

	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
			return
		}
		if oldestKey == "" || e.lastAccess.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
