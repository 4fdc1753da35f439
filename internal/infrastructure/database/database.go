package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Database configuration constants.
const (
	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second
)

// DB wraps a sql.DB connection for the reading-history window.
// It provides schema initialisation, health checks, and lifecycle management.
type DB struct {
	*sql.DB
	dsn string
}

// Config contains database configuration options.
type Config struct {
	// DSN is the SQLite data source name. The default is an in-memory
	// database so history never survives a restart.
	DSN string

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int
}

// InMemoryDSN is the data source name for a private in-memory database.
// cache=shared keeps the database alive across pooled connections.
const InMemoryDSN = "file:nodex-history?mode=memory&cache=shared"

// Open creates a new database connection with the specified configuration.
//
// It performs the following setup:
//  1. Opens the database (in-memory by default)
//  2. Configures the busy timeout and foreign keys
//  3. Verifies the connection with a ping
//  4. Creates the reading-history schema if absent
//
// Parameters:
//   - ctx: Context for connection verification
//   - cfg: Database configuration
//
// Returns:
//   - *DB: Connected database wrapper
//   - error: If connection or schema setup fails
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = InMemoryDSN
	}

	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5
	}

	// See: https://github.com/mattn/go-sqlite3#connection-string
	connStr := fmt.Sprintf("%s&_busy_timeout=%d&_foreign_keys=on", dsn, busyTimeout*1000)

	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer; a single connection also keeps an
	// in-memory database alive for the process lifetime.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	db := &DB{
		DB:  sqlDB,
		dsn: dsn,
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	if err := db.initSchema(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("initialising schema: %w", err)
	}

	return db, nil
}

// initSchema creates the reading-history table and indexes if absent.
func (db *DB) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS reading_history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    device_id   TEXT NOT NULL,
    reading     TEXT NOT NULL,
    recorded_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_reading_history_device
    ON reading_history (device_id, id);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating reading_history schema: %w", err)
	}
	return nil
}

// Close closes the database connection gracefully.
//
// Returns:
//   - error: If closing fails
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// DSN returns the data source name the database was opened with.
func (db *DB) DSN() string {
	return db.dsn
}

// HealthCheck verifies the database is accessible and functioning.
// It performs a simple query to ensure the connection is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
