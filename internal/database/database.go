// Package database opens the SQL connection behind the table registry and
// picks the matching SQL dialect.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver "pgx"
	_ "github.com/lib/pq"              // PostgreSQL driver "postgres"
	_ "github.com/mattn/go-sqlite3"    // SQLite driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"             // SQLite driver "sqlite" (pure Go)

	"github.com/eighteen73/custom-tables/internal/orm/codegen"
)

// Config holds connection settings
type Config struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DefaultConfig returns an in-memory SQLite configuration
func DefaultConfig() Config {
	return Config{
		Driver:          "sqlite",
		DSN:             ":memory:",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}
}

// Open connects to the database and verifies the connection. In-memory
// SQLite databases are limited to one connection so every query sees the
// same database.
func Open(ctx context.Context, cfg Config) (*sql.DB, codegen.Dialect, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite"
	}

	dialect, err := codegen.ForDriver(driver)
	if err != nil {
		return nil, nil, err
	}

	dsn := cfg.DSN
	if dsn == "" && dialect.Name() == "sqlite" {
		dsn = ":memory:"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if dialect.Name() == "sqlite" && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	return db, dialect, nil
}
