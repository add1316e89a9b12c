// Package schema describes the storage layout of a custom table.
// A Schema is either declarative (an ordered list of columns the registry
// turns into DDL and migrates between versions) or raw (an opaque SQL column
// body passed through to CREATE TABLE untouched).
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ColumnType represents the storage type of a column
type ColumnType int

const (
	TypeBigInt ColumnType = iota
	TypeInt
	TypeVarchar
	TypeText
	TypeLongText
	TypeBool
	TypeFloat
	TypeDecimal
	TypeDate
	TypeDateTime
	TypeTimestamp
	TypeJSON
)

var columnTypeNames = map[ColumnType]string{
	TypeBigInt:    "bigint",
	TypeInt:       "int",
	TypeVarchar:   "varchar",
	TypeText:      "text",
	TypeLongText:  "longtext",
	TypeBool:      "bool",
	TypeFloat:     "float",
	TypeDecimal:   "decimal",
	TypeDate:      "date",
	TypeDateTime:  "datetime",
	TypeTimestamp: "timestamp",
	TypeJSON:      "json",
}

// String returns the string representation of the column type
func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseColumnType converts a string to a ColumnType.
// Common aliases (integer, string, boolean, tinyint...) are accepted.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bigint":
		return TypeBigInt, nil
	case "int", "integer", "smallint", "mediumint":
		return TypeInt, nil
	case "varchar", "string", "char":
		return TypeVarchar, nil
	case "text", "mediumtext":
		return TypeText, nil
	case "longtext":
		return TypeLongText, nil
	case "bool", "boolean", "tinyint":
		return TypeBool, nil
	case "float", "double", "real":
		return TypeFloat, nil
	case "decimal", "numeric":
		return TypeDecimal, nil
	case "date":
		return TypeDate, nil
	case "datetime":
		return TypeDateTime, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "json", "jsonb":
		return TypeJSON, nil
	default:
		return 0, fmt.Errorf("unknown column type: %s", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *ColumnType) UnmarshalText(text []byte) error {
	parsed, err := ParseColumnType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsInteger returns true for integer column types
func (t ColumnType) IsInteger() bool {
	return t == TypeBigInt || t == TypeInt
}

// IsText returns true for column types that hold free text
func (t ColumnType) IsText() bool {
	return t == TypeVarchar || t == TypeText || t == TypeLongText
}

// Column is a single declarative column definition
type Column struct {
	Name          string     `json:"name" yaml:"name"`
	Type          ColumnType `json:"type" yaml:"type"`
	Length        int        `json:"length,omitempty" yaml:"length,omitempty"`
	Precision     int        `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale         int        `json:"scale,omitempty" yaml:"scale,omitempty"`
	Nullable      bool       `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Default       any        `json:"default,omitempty" yaml:"default,omitempty"`
	AutoIncrement bool       `json:"auto_increment,omitempty" yaml:"auto_increment,omitempty"`
	PrimaryKey    bool       `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Unique        bool       `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// Schema is the storage definition of a custom table
type Schema struct {
	Columns []*Column `json:"columns,omitempty" yaml:"columns,omitempty"`
	Raw     string    `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// Declarative creates a schema from an ordered list of columns
func Declarative(columns ...*Column) *Schema {
	return &Schema{Columns: columns}
}

// Raw creates an opaque schema from a prebuilt SQL column body
func Raw(body string) *Schema {
	return &Schema{Raw: body}
}

// IsRaw reports whether the schema is an opaque SQL body
func (s *Schema) IsRaw() bool {
	return s != nil && s.Raw != ""
}

// Column returns the column with the given name
func (s *Schema) Column(name string) (*Column, bool) {
	if s == nil {
		return nil, false
	}
	for _, col := range s.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return nil, false
}

// ColumnNames returns the declared column names in order.
// Raw schemas return nil because their columns are unknown.
func (s *Schema) ColumnNames() []string {
	if s == nil || s.IsRaw() {
		return nil
	}
	names := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		names = append(names, col.Name)
	}
	return names
}

// PrimaryKey returns the primary key column name, or "" when none is declared
func (s *Schema) PrimaryKey() string {
	if s == nil {
		return ""
	}
	for _, col := range s.Columns {
		if col.PrimaryKey {
			return col.Name
		}
	}
	return ""
}

// TextColumns returns the names of declared free-text columns
func (s *Schema) TextColumns() []string {
	if s == nil {
		return nil
	}
	var names []string
	for _, col := range s.Columns {
		if col.Type.IsText() {
			names = append(names, col.Name)
		}
	}
	return names
}

// Defaults returns the declared column defaults keyed by column name.
// Auto-increment columns and columns without a default are left out.
func (s *Schema) Defaults() map[string]any {
	defaults := make(map[string]any)
	if s == nil {
		return defaults
	}
	for _, col := range s.Columns {
		if col.AutoIncrement || col.Default == nil {
			continue
		}
		defaults[col.Name] = col.Default
	}
	return defaults
}

// Encode serializes the schema to JSON for version tracking
func (s *Schema) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode schema: %w", err)
	}
	return string(data), nil
}

// Decode parses a schema previously produced by Encode
func Decode(data string) (*Schema, error) {
	if data == "" {
		return &Schema{}, nil
	}
	var s Schema
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	return &s, nil
}
