package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/eighteen73/custom-tables/internal/orm/codegen"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
)

// ErrInvalidColumn is returned for a column name that is malformed or not
// part of the table
var ErrInvalidColumn = errors.New("invalid column")

type condition struct {
	field  string
	op     string
	values []any
}

// Builder provides a fluent API for building SELECT statements against one table.
// Invalid input is recorded and reported by ToSQL.
type Builder struct {
	dialect codegen.Dialect
	table   string
	known   map[string]bool // nil accepts any valid identifier

	columns    []string
	conditions []condition
	search     string
	searchCols []string
	orderBy    []string
	limit      int
	offset     int
	count      bool
	err        error
}

// NewBuilder creates a builder for table. When columns is non-empty every
// referenced column must be one of them.
func NewBuilder(dialect codegen.Dialect, table string, columns []string) *Builder {
	b := &Builder{
		dialect: dialect,
		table:   table,
		limit:   -1,
	}
	if len(columns) > 0 {
		b.known = make(map[string]bool, len(columns))
		for _, col := range columns {
			b.known[col] = true
		}
	}
	return b
}

func (b *Builder) checkColumn(name string) bool {
	if b.err != nil {
		return false
	}
	if !schema.ValidIdentifier(name) {
		b.err = fmt.Errorf("%w: malformed name %q", ErrInvalidColumn, name)
		return false
	}
	if b.known != nil && !b.known[name] {
		b.err = fmt.Errorf("%w: %s does not exist on table %s", ErrInvalidColumn, name, b.table)
		return false
	}
	return true
}

// Select restricts the selected columns
func (b *Builder) Select(columns ...string) *Builder {
	for _, col := range columns {
		if b.checkColumn(col) {
			b.columns = append(b.columns, col)
		}
	}
	return b
}

// Where adds an equality condition
func (b *Builder) Where(field string, value any) *Builder {
	if !b.checkColumn(field) {
		return b
	}
	switch v := value.(type) {
	case nil:
		b.conditions = append(b.conditions, condition{field: field, op: "IS NULL"})
	case []any:
		return b.WhereIn(field, v)
	case []string:
		values := make([]any, len(v))
		for i, s := range v {
			values[i] = s
		}
		return b.WhereIn(field, values)
	default:
		b.conditions = append(b.conditions, condition{field: field, op: "=", values: []any{value}})
	}
	return b
}

// WhereIn adds a WHERE IN condition. An empty list matches nothing.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if !b.checkColumn(field) {
		return b
	}
	b.conditions = append(b.conditions, condition{field: field, op: "IN", values: values})
	return b
}

// WhereMap adds an equality condition per entry, in key order
func (b *Builder) WhereMap(where map[string]any) *Builder {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Where(k, where[k])
	}
	return b
}

// Search matches term against any of the given columns
func (b *Builder) Search(term string, columns ...string) *Builder {
	if term == "" || len(columns) == 0 {
		return b
	}
	for _, col := range columns {
		if !b.checkColumn(col) {
			return b
		}
	}
	b.search = term
	b.searchCols = columns
	return b
}

// OrderBy adds an ORDER BY clause; direction other than DESC means ASC
func (b *Builder) OrderBy(field string, direction string) *Builder {
	if !b.checkColumn(field) {
		return b
	}
	dir := "ASC"
	if strings.EqualFold(direction, "desc") {
		dir = "DESC"
	}
	b.orderBy = append(b.orderBy, codegen.QuoteIdentifier(field)+" "+dir)
	return b
}

// Limit sets the LIMIT clause; negative disables it
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Offset sets the OFFSET clause
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	return b
}

// Count switches the statement to SELECT COUNT(*)
func (b *Builder) Count() *Builder {
	b.count = true
	return b
}

// FromArgs applies query arguments to the builder
func (b *Builder) FromArgs(a Args, searchColumns []string) *Builder {
	b.Select(a.Fields...)
	b.WhereMap(a.Where)
	b.Search(a.Search, searchColumns...)
	if a.Count {
		return b.Count()
	}
	if a.OrderBy != "" {
		b.OrderBy(a.OrderBy, a.Order)
	}
	return b.Limit(a.Limit()).Offset(a.Offset())
}

// ToSQL generates the SQL statement and its bind arguments
func (b *Builder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}

	var sql strings.Builder
	var args []any
	bind := func(v any) string {
		args = append(args, v)
		return b.dialect.Placeholder(len(args))
	}

	switch {
	case b.count:
		sql.WriteString("SELECT COUNT(*)")
	case len(b.columns) > 0:
		quoted := make([]string, len(b.columns))
		for i, col := range b.columns {
			quoted[i] = codegen.QuoteIdentifier(col)
		}
		sql.WriteString("SELECT " + strings.Join(quoted, ", "))
	default:
		sql.WriteString("SELECT *")
	}
	sql.WriteString(" FROM " + codegen.QuoteIdentifier(b.table))

	var where []string
	for _, cond := range b.conditions {
		col := codegen.QuoteIdentifier(cond.field)
		switch cond.op {
		case "IS NULL":
			where = append(where, col+" IS NULL")
		case "IN":
			if len(cond.values) == 0 {
				where = append(where, "1 = 0")
				continue
			}
			placeholders := make([]string, len(cond.values))
			for i, v := range cond.values {
				placeholders[i] = bind(v)
			}
			where = append(where, fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")))
		default:
			where = append(where, fmt.Sprintf("%s %s %s", col, cond.op, bind(cond.values[0])))
		}
	}

	if b.search != "" {
		pattern := "%" + escapeLike(b.search) + "%"
		ors := make([]string, len(b.searchCols))
		for i, col := range b.searchCols {
			ors[i] = fmt.Sprintf("%s %s %s ESCAPE '\\'", codegen.QuoteIdentifier(col), b.dialect.LikeOperator(), bind(pattern))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	if len(where) > 0 {
		sql.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	if b.count {
		return sql.String(), args, nil
	}

	if len(b.orderBy) > 0 {
		sql.WriteString(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}
	if b.limit >= 0 {
		sql.WriteString(" LIMIT " + bind(b.limit))
		if b.offset > 0 {
			sql.WriteString(" OFFSET " + bind(b.offset))
		}
	}

	return sql.String(), args, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
