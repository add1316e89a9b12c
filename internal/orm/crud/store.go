// Package crud implements the storage layer behind a registered custom table:
// single-row fetches, filtered queries, writes and the optional meta side table.
package crud

import (
	"context"
	"database/sql"

	"github.com/eighteen73/custom-tables/internal/orm/codegen"
	"github.com/eighteen73/custom-tables/internal/orm/hooks"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
)

// FilterApplier runs named filters; *hooks.Bus implements it
type FilterApplier interface {
	ApplyFilters(name string, value any) any
}

// DB is the subset of *sql.DB used by the store
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Options configures a Store
type Options struct {
	Table      string
	PrimaryKey string
	Schema     *schema.Schema
	Meta       bool
	Filters    FilterApplier
}

// Store provides record operations for one custom table
type Store struct {
	db         DB
	dialect    codegen.Dialect
	table      string
	primaryKey string
	schema     *schema.Schema
	columns    []string
	meta       bool
	filters    FilterApplier
}

// NewStore creates a store for a table. The primary key defaults to the
// schema's primary key column, then "id".
func NewStore(db DB, dialect codegen.Dialect, opts Options) *Store {
	pk := opts.PrimaryKey
	if pk == "" {
		pk = opts.Schema.PrimaryKey()
	}
	if pk == "" {
		pk = "id"
	}

	return &Store{
		db:         db,
		dialect:    dialect,
		table:      opts.Table,
		primaryKey: pk,
		schema:     opts.Schema,
		columns:    opts.Schema.ColumnNames(),
		meta:       opts.Meta,
		filters:    opts.Filters,
	}
}

// Table returns the table name
func (s *Store) Table() string {
	return s.table
}

// PrimaryKey returns the primary key column name
func (s *Store) PrimaryKey() string {
	return s.primaryKey
}

// SupportsMeta reports whether the meta side table is available
func (s *Store) SupportsMeta() bool {
	return s.meta
}

// DefaultData returns the default values for a new record: schema column
// defaults passed through the table's default-data filter.
func (s *Store) DefaultData() Record {
	defaults := s.schema.Defaults()
	if s.filters != nil {
		if out, ok := s.filters.ApplyFilters(hooks.DefaultDataFilter(s.table), defaults).(map[string]any); ok {
			defaults = out
		}
	}
	return Record(defaults)
}

// SearchColumns returns the columns searched by Args.Search: the table's
// search-fields filter output, falling back to every text column.
func (s *Store) SearchColumns() []string {
	var fields []string
	if s.filters != nil {
		if out, ok := s.filters.ApplyFilters(hooks.SearchFieldsFilter(s.table), []string{}).([]string); ok {
			fields = out
		}
	}
	if len(fields) == 0 {
		fields = s.schema.TextColumns()
	}
	return fields
}

func (s *Store) knowsColumn(name string) bool {
	if !schema.ValidIdentifier(name) {
		return false
	}
	if len(s.columns) == 0 {
		return true
	}
	for _, col := range s.columns {
		if col == name {
			return true
		}
	}
	return false
}
