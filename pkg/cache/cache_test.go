package cache

import (
	"context"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(NewMemoryProvider(nil))
	ctx := context.Background()

	type session struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}

	want := session{Token: "abc", Role: "librarian"}
	if err := c.Set(ctx, "auth:token:abc", want, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got session
	if err := c.Get(ctx, "auth:token:abc", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestCacheMissIsError(t *testing.T) {
	c := NewCache(NewMemoryProvider(nil))

	var dest string
	if err := c.Get(context.Background(), "absent", &dest); err == nil {
		t.Error("Get() on an absent key should fail")
	}
}

func TestCacheDelete(t *testing.T) {
	c := NewCache(NewMemoryProvider(nil))
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var dest string
	if err := c.Get(ctx, "k", &dest); err == nil {
		t.Error("Get() after Delete() should fail")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() of an absent key should succeed, got %v", err)
	}
}

func TestMemoryProviderExpiry(t *testing.T) {
	p := NewMemoryProvider(&Options{DefaultTTL: time.Minute})
	ctx := context.Background()

	if err := p.Set(ctx, "short", []byte("x"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok := p.Get(ctx, "short"); !ok {
		t.Fatal("value should be readable before expiry")
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := p.Get(ctx, "short"); ok {
		t.Error("value should be gone after its TTL")
	}
}

func TestMemoryProviderEvictsLeastRecentlyUsed(t *testing.T) {
	p := NewMemoryProvider(&Options{DefaultTTL: time.Minute, MaxSize: 2})
	ctx := context.Background()

	if err := p.Set(ctx, "a", []byte("1"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := p.Set(ctx, "b", []byte("2"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Touch "a" so "b" is the eviction candidate.
	if _, ok := p.Get(ctx, "a"); !ok {
		t.Fatal("a should be present")
	}
	if err := p.Set(ctx, "c", []byte("3"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok := p.Get(ctx, "a"); !ok {
		t.Error("a was touched and should survive eviction")
	}
	if _, ok := p.Get(ctx, "b"); ok {
		t.Error("b should have been evicted at the size cap")
	}
}

func TestMemoryProviderStats(t *testing.T) {
	p := NewMemoryProvider(nil)
	ctx := context.Background()

	if err := p.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	p.Get(ctx, "k")
	p.Get(ctx, "nope")

	stats, err := p.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Hits != 1 || stats.Misses != 1 || stats.Keys != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, 1 key", stats)
	}
	if stats.Provider != "memory" {
		t.Errorf("provider = %q, want memory", stats.Provider)
	}
}

func TestDefaultCacheAutoInitializes(t *testing.T) {
	SetDefaultCache(nil)
	t.Cleanup(func() { SetDefaultCache(nil) })

	c := GetDefaultCache()
	if c == nil {
		t.Fatal("GetDefaultCache() should auto-initialize")
	}

	ctx := context.Background()
	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() on the default cache error = %v", err)
	}
	if _, err := GetStats(ctx); err != nil {
		t.Errorf("GetStats() error = %v", err)
	}
}

func TestSetDefaultCache(t *testing.T) {
	t.Cleanup(func() { SetDefaultCache(nil) })

	custom := NewCache(NewMemoryProvider(&Options{DefaultTTL: time.Minute, MaxSize: 50}))
	SetDefaultCache(custom)

	if GetDefaultCache() != custom {
		t.Error("GetDefaultCache() should return the instance just set")
	}
}
