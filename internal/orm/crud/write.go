package crud

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/eighteen73/custom-tables/internal/orm/codegen"
)

// Insert creates a record from the table's default data overlaid with data,
// and returns the new primary key.
func (s *Store) Insert(ctx context.Context, data Record) (any, error) {
	values := s.DefaultData()
	for k, v := range data {
		values[k] = v
	}

	columns, err := s.sortedColumns(values)
	if err != nil {
		return nil, err
	}

	table := codegen.QuoteIdentifier(s.table)
	var stmt string
	args := make([]any, 0, len(columns))
	if len(columns) == 0 {
		stmt = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table)
	} else {
		quoted := make([]string, len(columns))
		placeholders := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = codegen.QuoteIdentifier(col)
			placeholders[i] = s.dialect.Placeholder(i + 1)
			args = append(args, values[col])
		}
		stmt = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	}

	if s.dialect.SupportsReturning() {
		stmt += " RETURNING " + codegen.QuoteIdentifier(s.primaryKey)
		var id any
		if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert record: %w", ConvertDBError(err))
		}
		return normalizeValue(id), nil
	}

	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", ConvertDBError(err))
	}
	if pk, ok := values[s.primaryKey]; ok {
		return pk, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// Update changes the given columns of the record with primary key id.
// The primary key itself is never updated.
func (s *Store) Update(ctx context.Context, id any, data Record) error {
	values := make(Record, len(data))
	for k, v := range data {
		if k != s.primaryKey {
			values[k] = v
		}
	}

	columns, err := s.sortedColumns(values)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return ErrEmptyUpdate
	}

	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		sets[i] = fmt.Sprintf("%s = %s", codegen.QuoteIdentifier(col), s.dialect.Placeholder(i+1))
		args = append(args, values[col])
	}
	args = append(args, id)

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		codegen.QuoteIdentifier(s.table),
		strings.Join(sets, ", "),
		codegen.QuoteIdentifier(s.primaryKey),
		s.dialect.Placeholder(len(args)))

	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", ConvertDBError(err))
	}
	return requireAffected(res, s.table, id)
}

// Delete removes the record with primary key id and its meta rows
func (s *Store) Delete(ctx context.Context, id any) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		codegen.QuoteIdentifier(s.table),
		codegen.QuoteIdentifier(s.primaryKey),
		s.dialect.Placeholder(1))

	res, err := s.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", ConvertDBError(err))
	}
	if err := requireAffected(res, s.table, id); err != nil {
		return err
	}

	if s.meta {
		if err := s.deleteAllMeta(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) sortedColumns(values Record) ([]string, error) {
	columns := make([]string, 0, len(values))
	for col := range values {
		if !s.knowsColumn(col) {
			return nil, fmt.Errorf("%w: %s.%s", ErrFieldNotFound, s.table, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns, nil
}

func requireAffected(res interface{ RowsAffected() (int64, error) }, table string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", table, id, ErrNotFound)
	}
	return nil
}
