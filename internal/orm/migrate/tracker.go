// Package migrate keeps custom tables in step with their declared schema
// version. A version bump on a declarative schema adds new columns; dropped
// and modified columns are reported but never applied automatically.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eighteen73/custom-tables/internal/orm/codegen"
)

// VersionsTable stores the applied version of every custom table
const VersionsTable = "custom_table_versions"

// Execer is the subset of *sql.DB and *sql.Tx used by the tracker
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TableVersion is the tracked state of one custom table
type TableVersion struct {
	Table     string
	Version   int
	Schema    string // JSON-encoded schema at Version
	AppliedAt time.Time
}

// Tracker manages the version history table
type Tracker struct {
	db      Execer
	dialect codegen.Dialect
}

// NewTracker creates a new version tracker
func NewTracker(db Execer, dialect codegen.Dialect) *Tracker {
	return &Tracker{db: db, dialect: dialect}
}

// Initialize ensures the versions table exists
func (t *Tracker) Initialize(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  "table_name" VARCHAR(255) PRIMARY KEY,
  "version" INTEGER NOT NULL,
  "schema_json" TEXT NULL,
  "applied_at" TIMESTAMP NOT NULL
);`, codegen.QuoteIdentifier(VersionsTable))

	if _, err := t.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to initialize versions table: %w", err)
	}
	return nil
}

// Get returns the tracked version of a table, or nil if it was never applied
func (t *Tracker) Get(ctx context.Context, table string) (*TableVersion, error) {
	stmt := fmt.Sprintf(`SELECT "table_name", "version", "schema_json", "applied_at" FROM %s WHERE "table_name" = %s`,
		codegen.QuoteIdentifier(VersionsTable), t.dialect.Placeholder(1))

	var (
		tv         TableVersion
		schemaJSON sql.NullString
		appliedAt  sql.NullTime
	)
	err := t.db.QueryRowContext(ctx, stmt, table).Scan(&tv.Table, &tv.Version, &schemaJSON, &appliedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read version of %s: %w", table, err)
	}

	tv.Schema = schemaJSON.String
	tv.AppliedAt = appliedAt.Time
	return &tv, nil
}

// Save records the applied version of a table
func (t *Tracker) Save(ctx context.Context, tv TableVersion) error {
	if tv.AppliedAt.IsZero() {
		tv.AppliedAt = time.Now().UTC()
	}

	p := t.dialect.Placeholder
	stmt := fmt.Sprintf(`INSERT INTO %s ("table_name", "version", "schema_json", "applied_at") VALUES (%s, %s, %s, %s)
ON CONFLICT ("table_name") DO UPDATE SET "version" = excluded."version", "schema_json" = excluded."schema_json", "applied_at" = excluded."applied_at"`,
		codegen.QuoteIdentifier(VersionsTable), p(1), p(2), p(3), p(4))

	if _, err := t.db.ExecContext(ctx, stmt, tv.Table, tv.Version, tv.Schema, tv.AppliedAt); err != nil {
		return fmt.Errorf("failed to record version of %s: %w", tv.Table, err)
	}
	return nil
}
