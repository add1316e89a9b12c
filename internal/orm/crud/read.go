package crud

import (
	"context"
	"fmt"

	"github.com/eighteen73/custom-tables/internal/orm/codegen"
	"github.com/eighteen73/custom-tables/internal/orm/query"
)

// Get retrieves a record by its primary key
func (s *Store) Get(ctx context.Context, id any) (Record, error) {
	stmt := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		codegen.QuoteIdentifier(s.table),
		codegen.QuoteIdentifier(s.primaryKey),
		s.dialect.Placeholder(1))

	rows, err := s.db.QueryContext(ctx, stmt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find record by id: %w", ConvertDBError(err))
	}
	defer rows.Close()

	result, err := scanRows(rows, OutputAssoc)
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", ConvertDBError(err))
	}
	if len(result.Rows) == 0 {
		return nil, fmt.Errorf("%s %v: %w", s.table, id, ErrNotFound)
	}

	return result.Rows[0], nil
}

// Query retrieves the records matching args in the requested output shape.
// Count queries populate Result.Count instead of rows.
func (s *Store) Query(ctx context.Context, args query.Args, output Output) (*Result, error) {
	builder := query.NewBuilder(s.dialect, s.table, s.columns)
	var searchCols []string
	if args.Search != "" {
		searchCols = s.SearchColumns()
	}

	stmt, binds, err := builder.FromArgs(args, searchCols).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("invalid query for %s: %w", s.table, err)
	}

	if args.Count {
		var count int64
		if err := s.db.QueryRowContext(ctx, stmt, binds...).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count records: %w", ConvertDBError(err))
		}
		return &Result{Output: output, Count: &count}, nil
	}

	rows, err := s.db.QueryContext(ctx, stmt, binds...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", ConvertDBError(err))
	}
	defer rows.Close()

	result, err := scanRows(rows, output)
	if err != nil {
		return nil, fmt.Errorf("failed to scan query results: %w", ConvertDBError(err))
	}

	return result, nil
}
