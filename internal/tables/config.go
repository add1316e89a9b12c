package tables

import (
	"encoding/json"

	"github.com/eighteen73/custom-tables/internal/orm/schema"
)

// Registration defaults
const (
	DefaultEngine     = "InnoDB"
	DefaultPerPage    = 40
	DefaultAddColumns = 2
	DefaultVersion    = 1
)

// SupportsMeta is the supports flag that adds a {table}_meta side table
const SupportsMeta = "meta"

// Config is the registration configuration of a custom table
type Config struct {
	Singular   string         `json:"singular" yaml:"singular"`
	Plural     string         `json:"plural" yaml:"plural"`
	ShowUI     bool           `json:"show_ui" yaml:"show_ui"`
	ShowInREST bool           `json:"show_in_rest" yaml:"show_in_rest"`
	RESTBase   string         `json:"rest_base,omitempty" yaml:"rest_base,omitempty"`
	Version    int            `json:"version" yaml:"version"`
	PrimaryKey string         `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Schema     *schema.Schema `json:"schema" yaml:"schema"`
	Engine     string         `json:"engine" yaml:"engine"`
	Views      Views          `json:"views" yaml:"views"`
	Supports   []string       `json:"supports,omitempty" yaml:"supports,omitempty"`
}

// Views holds the admin view options
type Views struct {
	Add  AddView  `json:"add" yaml:"add"`
	List ListView `json:"list" yaml:"list"`
}

// AddView configures the add/edit screen
type AddView struct {
	Columns int `json:"columns" yaml:"columns"`
}

// ListView configures the list screen
type ListView struct {
	PerPage    int          `json:"per_page" yaml:"per_page"`
	Columns    []ListColumn `json:"columns,omitempty" yaml:"columns,omitempty"`
	ParentSlug string       `json:"parent_slug,omitempty" yaml:"parent_slug,omitempty"`
	MenuTitle  string       `json:"menu_title,omitempty" yaml:"menu_title,omitempty"`
}

// Column returns the list column with the given name
func (v ListView) Column(name string) (ListColumn, bool) {
	for _, col := range v.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ListColumn{}, false
}

// ListColumn is a list view column hint
type ListColumn struct {
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label" yaml:"label"`
	Sortable *Sort  `json:"sortable" yaml:"sortable,omitempty"`
}

// Sort is a sortable column descriptor: the column to order by and whether
// the initial order is ascending.
type Sort struct {
	Column    string
	Ascending bool
}

// MarshalJSON encodes the descriptor as a [column, ascending] pair
func (s Sort) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Column, s.Ascending})
}

// HasSupport reports whether the supports list contains flag
func (c Config) HasSupport(flag string) bool {
	for _, s := range c.Supports {
		if s == flag {
			return true
		}
	}
	return false
}

// withDefaults fills unset options for a table named name
func (c Config) withDefaults(name string) Config {
	if c.Version <= 0 {
		c.Version = DefaultVersion
	}
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	if c.RESTBase == "" {
		c.RESTBase = name
	}
	if c.PrimaryKey == "" {
		c.PrimaryKey = c.Schema.PrimaryKey()
	}
	if c.Views.Add.Columns <= 0 {
		c.Views.Add.Columns = DefaultAddColumns
	}
	if c.Views.List.PerPage <= 0 {
		c.Views.List.PerPage = DefaultPerPage
	}
	if c.Views.List.MenuTitle == "" {
		c.Views.List.MenuTitle = c.Plural
	}
	return c
}
