package crud

import (
	"context"
	"fmt"

	"github.com/eighteen73/custom-tables/internal/orm/codegen"
)

func (s *Store) metaStatement(format string) string {
	return fmt.Sprintf(format,
		codegen.QuoteIdentifier(codegen.MetaTableName(s.table)),
		codegen.QuoteIdentifier(codegen.MetaObjectColumn(s.table)))
}

// GetMeta returns every value stored under key for the record
func (s *Store) GetMeta(ctx context.Context, id any, key string) ([]string, error) {
	if !s.meta {
		return nil, ErrMetaNotSupported
	}

	stmt := s.metaStatement(`SELECT "meta_value" FROM %s WHERE %s = `+s.dialect.Placeholder(1)+
		` AND "meta_key" = `+s.dialect.Placeholder(2)+` ORDER BY "meta_id"`)
	rows, err := s.db.QueryContext(ctx, stmt, id, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read meta %s: %w", key, ConvertDBError(err))
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v *string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan meta %s: %w", key, err)
		}
		if v != nil {
			values = append(values, *v)
		} else {
			values = append(values, "")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// AddMeta appends a value under key for the record
func (s *Store) AddMeta(ctx context.Context, id any, key, value string) error {
	if !s.meta {
		return ErrMetaNotSupported
	}

	stmt := s.metaStatement(`INSERT INTO %s (%s, "meta_key", "meta_value") VALUES (` +
		s.dialect.Placeholder(1) + `, ` + s.dialect.Placeholder(2) + `, ` + s.dialect.Placeholder(3) + `)`)
	if _, err := s.db.ExecContext(ctx, stmt, id, key, value); err != nil {
		return fmt.Errorf("failed to add meta %s: %w", key, ConvertDBError(err))
	}
	return nil
}

// UpdateMeta replaces every value under key with a single value
func (s *Store) UpdateMeta(ctx context.Context, id any, key, value string) error {
	if err := s.DeleteMeta(ctx, id, key); err != nil {
		return err
	}
	return s.AddMeta(ctx, id, key, value)
}

// DeleteMeta removes every value under key for the record
func (s *Store) DeleteMeta(ctx context.Context, id any, key string) error {
	if !s.meta {
		return ErrMetaNotSupported
	}

	stmt := s.metaStatement(`DELETE FROM %s WHERE %s = ` + s.dialect.Placeholder(1) +
		` AND "meta_key" = ` + s.dialect.Placeholder(2))
	if _, err := s.db.ExecContext(ctx, stmt, id, key); err != nil {
		return fmt.Errorf("failed to delete meta %s: %w", key, ConvertDBError(err))
	}
	return nil
}

func (s *Store) deleteAllMeta(ctx context.Context, id any) error {
	stmt := s.metaStatement(`DELETE FROM %s WHERE %s = ` + s.dialect.Placeholder(1))
	if _, err := s.db.ExecContext(ctx, stmt, id); err != nil {
		return fmt.Errorf("failed to delete meta: %w", ConvertDBError(err))
	}
	return nil
}
