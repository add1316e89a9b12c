// Package codegen generates dialect-specific DDL for custom table schemas.
package codegen

import (
	"fmt"
	"strings"

	"github.com/eighteen73/custom-tables/internal/orm/schema"
)

// Dialect captures the SQL differences between supported databases
type Dialect interface {
	// Name returns the dialect name ("sqlite" or "postgres")
	Name() string
	// Placeholder returns the bind parameter for the n-th argument (1-based)
	Placeholder(n int) string
	// ColumnType maps a declarative column to a SQL column type
	ColumnType(col *schema.Column) (string, error)
	// AutoIncrementColumn returns the full definition of an auto-increment primary key
	AutoIncrementColumn(col *schema.Column) string
	// SupportsReturning reports whether INSERT ... RETURNING is used to fetch new ids
	SupportsReturning() bool
	// LikeOperator returns the case-insensitive LIKE operator
	LikeOperator() string
}

// ForDriver returns the dialect for a database/sql driver name
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "pgx", "postgres":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("no SQL dialect for driver %q", driver)
	}
}

// QuoteIdentifier quotes a SQL identifier, doubling embedded quotes
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SQLite is the dialect for mattn/go-sqlite3 and modernc.org/sqlite
type SQLite struct{}

// Name implements Dialect
func (SQLite) Name() string { return "sqlite" }

// Placeholder implements Dialect
func (SQLite) Placeholder(int) string { return "?" }

// SupportsReturning implements Dialect
func (SQLite) SupportsReturning() bool { return false }

// LikeOperator implements Dialect. SQLite LIKE is case-insensitive for ASCII.
func (SQLite) LikeOperator() string { return "LIKE" }

// AutoIncrementColumn implements Dialect
func (SQLite) AutoIncrementColumn(col *schema.Column) string {
	return QuoteIdentifier(col.Name) + " INTEGER PRIMARY KEY AUTOINCREMENT"
}

// ColumnType implements Dialect
func (SQLite) ColumnType(col *schema.Column) (string, error) {
	switch col.Type {
	case schema.TypeBigInt, schema.TypeInt:
		return "INTEGER", nil
	case schema.TypeVarchar:
		return fmt.Sprintf("VARCHAR(%d)", varcharLength(col)), nil
	case schema.TypeText, schema.TypeLongText, schema.TypeJSON:
		return "TEXT", nil
	case schema.TypeBool:
		return "BOOLEAN", nil
	case schema.TypeFloat:
		return "REAL", nil
	case schema.TypeDecimal:
		return decimalType(col), nil
	case schema.TypeDate:
		return "DATE", nil
	case schema.TypeDateTime, schema.TypeTimestamp:
		return "DATETIME", nil
	default:
		return "", fmt.Errorf("unsupported type: %s", col.Type)
	}
}

// Postgres is the dialect for jackc/pgx and lib/pq
type Postgres struct{}

// Name implements Dialect
func (Postgres) Name() string { return "postgres" }

// Placeholder implements Dialect
func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

// SupportsReturning implements Dialect
func (Postgres) SupportsReturning() bool { return true }

// LikeOperator implements Dialect
func (Postgres) LikeOperator() string { return "ILIKE" }

// AutoIncrementColumn implements Dialect
func (Postgres) AutoIncrementColumn(col *schema.Column) string {
	serial := "BIGSERIAL"
	if col.Type == schema.TypeInt {
		serial = "SERIAL"
	}
	return QuoteIdentifier(col.Name) + " " + serial + " PRIMARY KEY"
}

// ColumnType implements Dialect
func (Postgres) ColumnType(col *schema.Column) (string, error) {
	switch col.Type {
	case schema.TypeBigInt:
		return "BIGINT", nil
	case schema.TypeInt:
		return "INTEGER", nil
	case schema.TypeVarchar:
		return fmt.Sprintf("VARCHAR(%d)", varcharLength(col)), nil
	case schema.TypeText, schema.TypeLongText:
		return "TEXT", nil
	case schema.TypeBool:
		return "BOOLEAN", nil
	case schema.TypeFloat:
		return "DOUBLE PRECISION", nil
	case schema.TypeDecimal:
		return decimalType(col), nil
	case schema.TypeDate:
		return "DATE", nil
	case schema.TypeDateTime:
		return "TIMESTAMP", nil
	case schema.TypeTimestamp:
		return "TIMESTAMP WITH TIME ZONE", nil
	case schema.TypeJSON:
		return "JSONB", nil
	default:
		return "", fmt.Errorf("unsupported type: %s", col.Type)
	}
}

func varcharLength(col *schema.Column) int {
	if col.Length > 0 {
		return col.Length
	}
	return 255
}

func decimalType(col *schema.Column) string {
	if col.Precision > 0 {
		return fmt.Sprintf("NUMERIC(%d,%d)", col.Precision, col.Scale)
	}
	return "NUMERIC"
}
