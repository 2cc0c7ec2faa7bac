package dbmanager

import (
	"fmt"
	"time"

	"pustaka/pkg/config"
)

// DatabaseType identifies the database provider
type DatabaseType string

const (
	DatabaseTypePostgreSQL DatabaseType = "postgres"
	DatabaseTypeSQLite     DatabaseType = "sqlite"
)

// ConnectionConfig defines the configuration for the database connection
type ConnectionConfig struct {
	Name string
	Type DatabaseType

	// DSN takes precedence over individual connection parameters
	DSN string

	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// SQLite specific
	FilePath string

	// Connection pool settings
	MaxOpenConns    *int
	MaxIdleConns    *int
	ConnMaxLifetime *time.Duration
	ConnMaxIdleTime *time.Duration

	// Timeouts
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration

	// Retry policy
	RetryAttempts int
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration

	EnableLogging bool
}

// FromConfig builds a ConnectionConfig from the application configuration
func FromConfig(cfg config.DatabaseConfig) ConnectionConfig {
	cc := ConnectionConfig{
		Name:          "default",
		Type:          DatabaseType(cfg.Type),
		DSN:           cfg.DSN,
		Host:          cfg.Host,
		Port:          cfg.Port,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		SSLMode:       cfg.SSLMode,
		FilePath:      cfg.FilePath,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		RetryMaxDelay: cfg.RetryMaxDelay,
		EnableLogging: true,
	}

	if cfg.MaxOpenConns > 0 {
		v := cfg.MaxOpenConns
		cc.MaxOpenConns = &v
	}
	if cfg.MaxIdleConns > 0 {
		v := cfg.MaxIdleConns
		cc.MaxIdleConns = &v
	}
	if cfg.ConnMaxLifetime > 0 {
		v := cfg.ConnMaxLifetime
		cc.ConnMaxLifetime = &v
	}
	if cfg.ConnMaxIdleTime > 0 {
		v := cfg.ConnMaxIdleTime
		cc.ConnMaxIdleTime = &v
	}

	return cc
}

// ApplyDefaults fills in missing values with sensible defaults
func (cc *ConnectionConfig) ApplyDefaults() {
	if cc.Name == "" {
		cc.Name = "default"
	}
	if cc.ConnectTimeout <= 0 {
		cc.ConnectTimeout = 10 * time.Second
	}
	if cc.QueryTimeout <= 0 {
		cc.QueryTimeout = 30 * time.Second
	}
	if cc.RetryAttempts <= 0 {
		cc.RetryAttempts = 3
	}
	if cc.RetryDelay <= 0 {
		cc.RetryDelay = time.Second
	}
	if cc.RetryMaxDelay <= 0 {
		cc.RetryMaxDelay = 30 * time.Second
	}
}

// Validate checks that the configuration is usable
func (cc *ConnectionConfig) Validate() error {
	switch cc.Type {
	case DatabaseTypePostgreSQL:
		if cc.DSN == "" && (cc.Host == "" || cc.Database == "") {
			return fmt.Errorf("postgres connection requires a DSN or host and database")
		}
	case DatabaseTypeSQLite:
		if cc.DSN == "" && cc.FilePath == "" {
			return fmt.Errorf("sqlite connection requires a DSN or filepath")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", cc.Type)
	}
	return nil
}

// BuildDSN builds the Data Source Name for the configured database type
func (cc *ConnectionConfig) BuildDSN() (string, error) {
	// If DSN is already provided, use it
	if cc.DSN != "" {
		return cc.DSN, nil
	}

	switch cc.Type {
	case DatabaseTypePostgreSQL:
		return cc.buildPostgresDSN(), nil
	case DatabaseTypeSQLite:
		return cc.buildSQLiteDSN(), nil
	default:
		return "", fmt.Errorf("cannot build DSN for database type: %s", cc.Type)
	}
}

func (cc *ConnectionConfig) buildPostgresDSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		cc.Host, cc.Port, cc.User, cc.Password, cc.Database)

	if cc.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", cc.SSLMode)
	} else {
		dsn += " sslmode=disable"
	}

	return dsn
}

func (cc *ConnectionConfig) buildSQLiteDSN() string {
	if cc.FilePath != "" {
		return cc.FilePath
	}
	return "file::memory:?cache=shared"
}

// Interface getters used by the providers package

func (cc *ConnectionConfig) GetName() string                     { return cc.Name }
func (cc *ConnectionConfig) GetType() string                     { return string(cc.Type) }
func (cc *ConnectionConfig) GetHost() string                     { return cc.Host }
func (cc *ConnectionConfig) GetDatabase() string                 { return cc.Database }
func (cc *ConnectionConfig) GetFilePath() string                 { return cc.FilePath }
func (cc *ConnectionConfig) GetConnectTimeout() time.Duration    { return cc.ConnectTimeout }
func (cc *ConnectionConfig) GetQueryTimeout() time.Duration      { return cc.QueryTimeout }
func (cc *ConnectionConfig) GetEnableLogging() bool              { return cc.EnableLogging }
func (cc *ConnectionConfig) GetMaxOpenConns() *int               { return cc.MaxOpenConns }
func (cc *ConnectionConfig) GetMaxIdleConns() *int               { return cc.MaxIdleConns }
func (cc *ConnectionConfig) GetConnMaxLifetime() *time.Duration  { return cc.ConnMaxLifetime }
func (cc *ConnectionConfig) GetConnMaxIdleTime() *time.Duration  { return cc.ConnMaxIdleTime }
func (cc *ConnectionConfig) GetRetryAttempts() int               { return cc.RetryAttempts }
func (cc *ConnectionConfig) GetRetryDelay() time.Duration        { return cc.RetryDelay }
func (cc *ConnectionConfig) GetRetryMaxDelay() time.Duration     { return cc.RetryMaxDelay }
