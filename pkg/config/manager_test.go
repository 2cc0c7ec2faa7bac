package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func loadConfig(t *testing.T, mgr *Manager) *Config {
	t.Helper()
	if err := mgr.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg, err := mgr.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := loadConfig(t, NewManager())

	if cfg.Server.Addr != ":8080" {
		t.Errorf("server.addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("server.shutdown_timeout = %v, want 30s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.Type != "postgres" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults = %s:%d, want postgres:5432", cfg.Database.Type, cfg.Database.Port)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("auth.token_ttl = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Cache.Provider != "memory" {
		t.Errorf("cache.provider = %q, want memory", cfg.Cache.Provider)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should default to disabled")
	}
	if cfg.Tracing.ServiceName != "pustaka" {
		t.Errorf("tracing.service_name = %q, want pustaka", cfg.Tracing.ServiceName)
	}
	if cfg.Middleware.RateLimitRPS != 100.0 || cfg.Middleware.RateLimitBurst != 200 {
		t.Errorf("rate limit defaults = %v/%d, want 100/200", cfg.Middleware.RateLimitRPS, cfg.Middleware.RateLimitBurst)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PUSTAKA_SERVER_ADDR", ":9090")
	t.Setenv("PUSTAKA_TRACING_ENABLED", "true")
	t.Setenv("PUSTAKA_CACHE_PROVIDER", "redis")

	cfg := loadConfig(t, NewManager())

	if cfg.Server.Addr != ":9090" {
		t.Errorf("server.addr = %q, want :9090", cfg.Server.Addr)
	}
	if !cfg.Tracing.Enabled {
		t.Error("PUSTAKA_TRACING_ENABLED should enable tracing")
	}
	if cfg.Cache.Provider != "redis" {
		t.Errorf("cache.provider = %q, want redis", cfg.Cache.Provider)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("server:\n  addr: \":7070\"\nlogger:\n  dev: true\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := loadConfig(t, NewManagerWithOptions(WithConfigFile(path)))

	if cfg.Server.Addr != ":7070" {
		t.Errorf("server.addr = %q, want :7070", cfg.Server.Addr)
	}
	if !cfg.Logger.Dev {
		t.Error("logger.dev should come from the file")
	}
	// Keys absent from the file keep their defaults.
	if cfg.Database.Port != 5432 {
		t.Errorf("database.port = %d, want default 5432", cfg.Database.Port)
	}
}

func TestSetWinsOverDefaults(t *testing.T) {
	mgr := NewManager()
	mgr.Set("server.addr", ":7071")
	mgr.Set("tracing.service_name", "catalog-api")

	cfg, err := mgr.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if cfg.Server.Addr != ":7071" {
		t.Errorf("server.addr = %q, want :7071", cfg.Server.Addr)
	}
	if cfg.Tracing.ServiceName != "catalog-api" {
		t.Errorf("tracing.service_name = %q, want catalog-api", cfg.Tracing.ServiceName)
	}
}

func TestCustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_ADDR", ":5000")

	cfg := loadConfig(t, NewManagerWithOptions(WithEnvPrefix("MYAPP")))

	if cfg.Server.Addr != ":5000" {
		t.Errorf("server.addr = %q, want :5000", cfg.Server.Addr)
	}
}

func TestScalarGetters(t *testing.T) {
	mgr := NewManager()
	mgr.Set("database.user", "librarian")
	mgr.Set("database.port", 5433)
	mgr.Set("middleware.gzip", false)

	if got := mgr.GetString("database.user"); got != "librarian" {
		t.Errorf("GetString = %q, want librarian", got)
	}
	if got := mgr.GetInt("database.port"); got != 5433 {
		t.Errorf("GetInt = %d, want 5433", got)
	}
	if got := mgr.GetBool("middleware.gzip"); got {
		t.Error("GetBool should report the overridden false")
	}
}
