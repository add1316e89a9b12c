package entity

import (
	"context"
	"fmt"

	"github.com/eighteen73/custom-tables/internal/orm/crud"
	"github.com/eighteen73/custom-tables/internal/orm/query"
	"github.com/eighteen73/custom-tables/internal/tables"
)

// Query reads records of one registered table. The table handle is resolved
// on every call, so a query created before registration starts working once
// the table is registered.
type Query struct {
	lookup TableLookup
	table  string
}

// NewQuery creates a query facade for table
func NewQuery(lookup TableLookup, table string) *Query {
	return &Query{lookup: lookup, table: table}
}

func (q *Query) resolve() (*tables.Table, error) {
	if q.lookup == nil {
		return nil, fmt.Errorf("%s: %w", q.table, ErrNotRegistered)
	}
	return q.lookup.Lookup(q.table)
}

// Get returns the record with the given primary key
func (q *Query) Get(ctx context.Context, id any) (crud.Record, error) {
	t, err := q.resolve()
	if err != nil {
		return nil, err
	}
	return t.Store.Get(ctx, id)
}

// Query returns the records matching args in the requested output shape
func (q *Query) Query(ctx context.Context, args query.Args, output crud.Output) (*crud.Result, error) {
	t, err := q.resolve()
	if err != nil {
		return nil, err
	}
	return t.Store.Query(ctx, args, output)
}

// Query returns the entity's query facade
func (b *Builder) Query() *Query {
	return NewQuery(b.env.Tables, b.table)
}

// Get returns the entity record with the given primary key
func (b *Builder) Get(ctx context.Context, id any) (crud.Record, error) {
	return b.Query().Get(ctx, id)
}

// Find returns the entity records matching args
func (b *Builder) Find(ctx context.Context, args query.Args, output crud.Output) (*crud.Result, error) {
	return b.Query().Query(ctx, args, output)
}
