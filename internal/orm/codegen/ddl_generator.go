package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eighteen73/custom-tables/internal/orm/schema"
)

// DDLGenerator generates CREATE/ALTER statements for custom tables
type DDLGenerator struct {
	dialect Dialect
}

// NewDDLGenerator creates a new DDL generator for the given dialect
func NewDDLGenerator(dialect Dialect) *DDLGenerator {
	return &DDLGenerator{dialect: dialect}
}

// Dialect returns the generator's dialect
func (g *DDLGenerator) Dialect() Dialect {
	return g.dialect
}

// GenerateCreateTable generates a CREATE TABLE IF NOT EXISTS statement.
// Raw schemas are used verbatim as the column body; declarative columns keep
// their declared order.
func (g *DDLGenerator) GenerateCreateTable(table string, s *schema.Schema) (string, error) {
	if s == nil {
		return "", fmt.Errorf("schema cannot be nil")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdentifier(table)))

	if s.IsRaw() {
		b.WriteString("  ")
		b.WriteString(strings.TrimSpace(s.Raw))
		b.WriteString("\n);")
		return b.String(), nil
	}

	defs := make([]string, 0, len(s.Columns)+1)
	inlinePK := false
	for _, col := range s.Columns {
		def, err := g.columnDefinition(col, true)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col.Name, err)
		}
		if col.PrimaryKey && col.AutoIncrement {
			inlinePK = true
		}
		defs = append(defs, def)
	}

	if pk := s.PrimaryKey(); pk != "" && !inlinePK {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", QuoteIdentifier(pk)))
	}

	for i, def := range defs {
		b.WriteString("  ")
		b.WriteString(def)
		if i < len(defs)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")

	return b.String(), nil
}

// GenerateAddColumn generates an ALTER TABLE ... ADD COLUMN statement
func (g *DDLGenerator) GenerateAddColumn(table string, col *schema.Column) (string, error) {
	def, err := g.columnDefinition(col, false)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", col.Name, err)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", QuoteIdentifier(table), def), nil
}

// GenerateMetaTable generates the key/value side table used by the "meta"
// supports flag: {table}_meta(meta_id, {table}_id, meta_key, meta_value).
func (g *DDLGenerator) GenerateMetaTable(table string) string {
	metaTable := MetaTableName(table)
	idCol := &schema.Column{Name: "meta_id", Type: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true}
	objectType, _ := g.dialect.ColumnType(&schema.Column{Type: schema.TypeBigInt})

	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  %s,
  %s %s NOT NULL,
  %s VARCHAR(255) NULL,
  %s TEXT NULL
);`,
		QuoteIdentifier(metaTable),
		g.dialect.AutoIncrementColumn(idCol),
		QuoteIdentifier(MetaObjectColumn(table)), objectType,
		QuoteIdentifier("meta_key"),
		QuoteIdentifier("meta_value"),
	)
}

// MetaTableName returns the name of a table's meta side table
func MetaTableName(table string) string {
	return table + "_meta"
}

// MetaObjectColumn returns the meta table column referencing the parent row
func MetaObjectColumn(table string) string {
	return table + "_id"
}

func (g *DDLGenerator) columnDefinition(col *schema.Column, allowPK bool) (string, error) {
	if allowPK && col.PrimaryKey && col.AutoIncrement {
		return g.dialect.AutoIncrementColumn(col), nil
	}

	colType, err := g.dialect.ColumnType(col)
	if err != nil {
		return "", err
	}

	parts := []string{QuoteIdentifier(col.Name), colType}
	if col.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}

	if col.Default != nil {
		parts = append(parts, "DEFAULT "+FormatDefault(col.Default))
	} else if !col.Nullable && !allowPK {
		// ADD COLUMN ... NOT NULL needs a default for existing rows
		parts = append(parts, "DEFAULT "+zeroDefault(col.Type))
	}

	if col.Unique && !col.PrimaryKey {
		parts = append(parts, "UNIQUE")
	}

	return strings.Join(parts, " "), nil
}

// FormatDefault renders a Go value as a SQL literal
func FormatDefault(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		if strings.EqualFold(val, "CURRENT_TIMESTAMP") {
			return "CURRENT_TIMESTAMP"
		}
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(val), "'", "''") + "'"
	}
}

func zeroDefault(t schema.ColumnType) string {
	switch t {
	case schema.TypeBigInt, schema.TypeInt, schema.TypeFloat, schema.TypeDecimal:
		return "0"
	case schema.TypeBool:
		return "FALSE"
	case schema.TypeDate:
		return "'1970-01-01'"
	case schema.TypeDateTime, schema.TypeTimestamp:
		return "'1970-01-01 00:00:00'"
	default:
		return "''"
	}
}
