package dbmanager

import (
	"context"
	"testing"
)

func TestConnectionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ConnectionConfig
		wantErr bool
	}{
		{
			name:    "valid postgres with host and database",
			cfg:     ConnectionConfig{Type: DatabaseTypePostgreSQL, Host: "localhost", Database: "pustaka"},
			wantErr: false,
		},
		{
			name:    "valid postgres with DSN only",
			cfg:     ConnectionConfig{Type: DatabaseTypePostgreSQL, DSN: "host=db user=u dbname=d"},
			wantErr: false,
		},
		{
			name:    "postgres missing database",
			cfg:     ConnectionConfig{Type: DatabaseTypePostgreSQL, Host: "localhost"},
			wantErr: true,
		},
		{
			name:    "valid sqlite with filepath",
			cfg:     ConnectionConfig{Type: DatabaseTypeSQLite, FilePath: "test.db"},
			wantErr: false,
		},
		{
			name:    "sqlite missing filepath",
			cfg:     ConnectionConfig{Type: DatabaseTypeSQLite},
			wantErr: true,
		},
		{
			name:    "unsupported type",
			cfg:     ConnectionConfig{Type: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildDSN(t *testing.T) {
	t.Run("explicit DSN wins", func(t *testing.T) {
		cfg := ConnectionConfig{Type: DatabaseTypePostgreSQL, DSN: "host=custom"}
		dsn, err := cfg.BuildDSN()
		if err != nil {
			t.Fatalf("BuildDSN() error = %v", err)
		}
		if dsn != "host=custom" {
			t.Errorf("Expected explicit DSN, got %s", dsn)
		}
	})

	t.Run("postgres DSN from parameters", func(t *testing.T) {
		cfg := ConnectionConfig{
			Type:     DatabaseTypePostgreSQL,
			Host:     "dbhost",
			Port:     5432,
			User:     "pustaka",
			Password: "secret",
			Database: "library",
		}
		dsn, err := cfg.BuildDSN()
		if err != nil {
			t.Fatalf("BuildDSN() error = %v", err)
		}
		expected := "host=dbhost port=5432 user=pustaka password=secret dbname=library sslmode=disable"
		if dsn != expected {
			t.Errorf("Expected '%s', got '%s'", expected, dsn)
		}
	})

	t.Run("sqlite DSN from filepath", func(t *testing.T) {
		cfg := ConnectionConfig{Type: DatabaseTypeSQLite, FilePath: "library.db"}
		dsn, err := cfg.BuildDSN()
		if err != nil {
			t.Fatalf("BuildDSN() error = %v", err)
		}
		if dsn != "library.db" {
			t.Errorf("Expected filepath DSN, got %s", dsn)
		}
	})
}

func TestManagerLifecycleSQLite(t *testing.T) {
	cfg := ConnectionConfig{
		Type:     DatabaseTypeSQLite,
		FilePath: "file::memory:?cache=shared",
	}

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx := context.Background()
	if err := mgr.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer mgr.Close()

	db, err := mgr.DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	if db == nil {
		t.Fatal("Expected bun.DB to be non-nil")
	}

	if err := mgr.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	stats := mgr.Stats()
	if stats.Type != "sqlite" {
		t.Errorf("Expected sqlite stats, got %s", stats.Type)
	}
	if !stats.Connected {
		t.Error("Expected stats to report connected")
	}
}

func TestSingleton(t *testing.T) {
	ResetInstance()
	defer ResetInstance()

	if _, err := GetInstance(); err == nil {
		t.Error("Expected error before SetupManager")
	}

	cfg := ConnectionConfig{Type: DatabaseTypeSQLite, FilePath: "file::memory:?cache=shared"}
	if err := SetupManager(cfg); err != nil {
		t.Fatalf("SetupManager() error = %v", err)
	}

	if err := SetupManager(cfg); err == nil {
		t.Error("Expected error on double SetupManager")
	}

	mgr, err := GetInstance()
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}
	if mgr == nil {
		t.Fatal("Expected manager instance")
	}
}
