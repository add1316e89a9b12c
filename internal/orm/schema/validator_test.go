package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate("events", eventsSchema()))
	assert.NoError(t, Validate("logs", Raw("id bigint NOT NULL")))
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		schema  *Schema
		problem string
	}{
		{"nil schema", "events", nil, "schema is empty"},
		{"empty schema", "events", &Schema{}, "schema is empty"},
		{"bad table name", "events; drop", eventsSchema(), "not a valid identifier"},
		{
			"raw and declarative",
			"events",
			&Schema{Raw: "id int", Columns: []*Column{{Name: "id", Type: TypeInt}}},
			"both raw and declarative",
		},
		{
			"duplicate column",
			"events",
			Declarative(&Column{Name: "a", Type: TypeInt}, &Column{Name: "a", Type: TypeText}),
			"declared more than once",
		},
		{
			"auto increment on text",
			"events",
			Declarative(&Column{Name: "id", Type: TypeVarchar, PrimaryKey: true, AutoIncrement: true}),
			"requires an integer type",
		},
		{
			"two primary keys",
			"events",
			Declarative(
				&Column{Name: "a", Type: TypeInt, PrimaryKey: true},
				&Column{Name: "b", Type: TypeInt, PrimaryKey: true},
			),
			"more than one primary key",
		},
		{
			"decimal scale",
			"events",
			Declarative(&Column{Name: "price", Type: TypeDecimal, Precision: 2, Scale: 4}),
			"exceeds precision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.table, tt.schema)
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.table, cfgErr.Table)
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestConfigurationError_MultipleProblems(t *testing.T) {
	err := Validate("bad name", &Schema{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "\n  - ")
}
