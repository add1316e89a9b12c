package crud

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// Common store error types
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrUniqueViolation is returned when a unique constraint is violated
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")

	// ErrNotNullViolation is returned when a NOT NULL constraint is violated
	ErrNotNullViolation = errors.New("not null constraint violation")

	// ErrFieldNotFound is returned when a field does not exist on a table
	ErrFieldNotFound = errors.New("field not found")

	// ErrEmptyUpdate is returned when an update carries no columns
	ErrEmptyUpdate = errors.New("no columns to update")

	// ErrMetaNotSupported is returned by meta operations on tables without the "meta" flag
	ErrMetaNotSupported = errors.New("table does not support meta")
)

// ConvertDBError converts driver-specific errors to store errors
func ConvertDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	// PostgreSQL via pgx
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return convertSQLState(err, pgErr.Code, pgErr.Detail)
	}

	// PostgreSQL via lib/pq
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return convertSQLState(err, string(pqErr.Code), pqErr.Detail)
	}

	// SQLite via mattn/go-sqlite3
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, liteErr.Error())
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %s", ErrForeignKeyViolation, liteErr.Error())
		case sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%w: %s", ErrNotNullViolation, liteErr.Error())
		}
		return err
	}

	// SQLite via modernc.org/sqlite
	var moderncErr *sqlite.Error
	if errors.As(err, &moderncErr) {
		switch moderncErr.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, moderncErr.Error())
		case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %s", ErrForeignKeyViolation, moderncErr.Error())
		case sqlitelib.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %s", ErrNotNullViolation, moderncErr.Error())
		case sqlitelib.SQLITE_CONSTRAINT:
			return convertConstraintMessage(err, moderncErr.Error())
		}
	}

	return err
}

func convertSQLState(err error, code, detail string) error {
	switch code {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %s", ErrUniqueViolation, detail)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, detail)
	case "23502": // not_null_violation
		return fmt.Errorf("%w: %s", ErrNotNullViolation, detail)
	}
	return err
}

// convertConstraintMessage classifies a constraint error reported without
// an extended result code
func convertConstraintMessage(err error, msg string) error {
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", ErrUniqueViolation, msg)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, msg)
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %s", ErrNotNullViolation, msg)
	}
	return err
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUniqueViolation returns true if the error is ErrUniqueViolation
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// IsNotNullViolation returns true if the error is ErrNotNullViolation
func IsNotNullViolation(err error) bool {
	return errors.Is(err, ErrNotNullViolation)
}
