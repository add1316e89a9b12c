package migrate

import (
	"testing"

	"github.com/eighteen73/custom-tables/internal/orm/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	prev := schema.Declarative(
		&schema.Column{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true},
		&schema.Column{Name: "title", Type: schema.TypeVarchar, Length: 50},
		&schema.Column{Name: "legacy", Type: schema.TypeText},
	)
	next := schema.Declarative(
		&schema.Column{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true},
		&schema.Column{Name: "title", Type: schema.TypeVarchar, Length: 120},
		&schema.Column{Name: "capacity", Type: schema.TypeInt},
	)

	changes := Diff(prev, next)
	require.Len(t, changes, 3)

	assert.Equal(t, ChangeModifyColumn, changes[0].Type)
	assert.Equal(t, "title", changes[0].Column)
	assert.Equal(t, ChangeAddColumn, changes[1].Type)
	assert.Equal(t, "capacity", changes[1].Column)
	assert.Equal(t, schema.TypeInt, changes[1].New.Type)
	assert.Equal(t, ChangeDropColumn, changes[2].Type)
	assert.Equal(t, "legacy", changes[2].Column)
}

func TestDiff_FromEmpty(t *testing.T) {
	next := schema.Declarative(&schema.Column{Name: "id", Type: schema.TypeInt})

	changes := Diff(&schema.Schema{}, next)
	require.Len(t, changes, 1)
	assert.Equal(t, "add_column", changes[0].Type.String())
}

func TestDiff_NoChanges(t *testing.T) {
	s := schema.Declarative(&schema.Column{Name: "id", Type: schema.TypeInt})
	assert.Empty(t, Diff(s, s))
}
