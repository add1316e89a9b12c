package migrate

import (
	"github.com/eighteen73/custom-tables/internal/orm/schema"
)

// ChangeType represents the type of schema change
type ChangeType int

const (
	ChangeAddColumn ChangeType = iota
	ChangeDropColumn
	ChangeModifyColumn
)

// String returns the string representation of the change type
func (c ChangeType) String() string {
	switch c {
	case ChangeAddColumn:
		return "add_column"
	case ChangeDropColumn:
		return "drop_column"
	case ChangeModifyColumn:
		return "modify_column"
	default:
		return "unknown"
	}
}

// SchemaChange represents a detected change between two schema versions
type SchemaChange struct {
	Type   ChangeType
	Column string
	New    *schema.Column // set for add and modify
}

// Diff compares two declarative schemas. Changes are ordered by the new
// schema's column order, then dropped columns in the old schema's order.
func Diff(prev, next *schema.Schema) []SchemaChange {
	var changes []SchemaChange

	for _, col := range next.Columns {
		old, ok := prev.Column(col.Name)
		switch {
		case !ok:
			changes = append(changes, SchemaChange{Type: ChangeAddColumn, Column: col.Name, New: col})
		case columnModified(old, col):
			changes = append(changes, SchemaChange{Type: ChangeModifyColumn, Column: col.Name, New: col})
		}
	}

	if prev != nil {
		for _, col := range prev.Columns {
			if _, ok := next.Column(col.Name); !ok {
				changes = append(changes, SchemaChange{Type: ChangeDropColumn, Column: col.Name})
			}
		}
	}

	return changes
}

func columnModified(a, b *schema.Column) bool {
	return a.Type != b.Type ||
		a.Length != b.Length ||
		a.Precision != b.Precision ||
		a.Scale != b.Scale ||
		a.Nullable != b.Nullable ||
		a.Unique != b.Unique
}
