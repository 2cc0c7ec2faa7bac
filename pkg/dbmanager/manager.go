package dbmanager

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"pustaka/pkg/dbmanager/providers"
	"pustaka/pkg/logger"
)

// Manager owns the database connection and the bun handle built on top of it
type Manager struct {
	config   ConnectionConfig
	provider providers.Provider
	bdb      *bun.DB
	mu       sync.RWMutex
}

var (
	// singleton instance of the manager
	instance *Manager
	// instanceMu protects the singleton instance
	instanceMu sync.RWMutex
)

// SetupManager initializes the singleton database manager with the provided
// configuration. Must be called before GetInstance().
func SetupManager(cfg ConnectionConfig) error {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return fmt.Errorf("manager already initialized")
	}

	mgr, err := NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create manager: %w", err)
	}

	instance = mgr
	return nil
}

// GetInstance returns the singleton instance of the database manager.
// Returns an error if SetupManager has not been called yet.
func GetInstance() (*Manager, error) {
	instanceMu.RLock()
	defer instanceMu.RUnlock()

	if instance == nil {
		return nil, fmt.Errorf("manager not initialized: call SetupManager first")
	}

	return instance, nil
}

// ResetInstance resets the singleton instance (primarily for testing purposes).
func ResetInstance() {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		_ = instance.Close()
	}
	instance = nil
}

// NewManager creates a new database connection manager
func NewManager(cfg ConnectionConfig) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var provider providers.Provider
	switch cfg.Type {
	case DatabaseTypePostgreSQL:
		provider = providers.NewPostgresProvider()
	case DatabaseTypeSQLite:
		provider = providers.NewSQLiteProvider()
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	return &Manager{
		config:   cfg,
		provider: provider,
	}, nil
}

// Connect establishes the connection and builds the bun handle
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bdb != nil {
		return fmt.Errorf("already connected")
	}

	if err := m.provider.Connect(ctx, &m.config); err != nil {
		return NewConnectionError(m.config.Name, "connect", err)
	}

	sqldb, err := m.provider.GetNative()
	if err != nil {
		return NewConnectionError(m.config.Name, "connect", err)
	}

	switch m.config.Type {
	case DatabaseTypePostgreSQL:
		m.bdb = bun.NewDB(sqldb, pgdialect.New())
	case DatabaseTypeSQLite:
		m.bdb = bun.NewDB(sqldb, sqlitedialect.New())
	}

	logger.Info("Database manager connected: type=%s", m.config.Type)
	return nil
}

// DB returns the bun handle. Connect must have been called.
func (m *Manager) DB() (*bun.DB, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.bdb == nil {
		return nil, fmt.Errorf("not connected")
	}
	return m.bdb, nil
}

// HealthCheck verifies the connection is alive
func (m *Manager) HealthCheck(ctx context.Context) error {
	return m.provider.HealthCheck(ctx)
}

// Stats returns connection statistics
func (m *Manager) Stats() *providers.ConnectionStats {
	return m.provider.Stats()
}

// Close closes the connection
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bdb != nil {
		// bun.DB wraps the provider's *sql.DB; closing the provider is enough
		m.bdb = nil
	}
	return m.provider.Close()
}
