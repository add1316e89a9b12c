// Package definitions reads entity definitions from YAML and turns them into
// entity builders.
//
//	entities:
//	  - table: events
//	    singular: Event
//	    plural: Events
//	    version: 2
//	    schema:
//	      columns:
//	        - {name: id, type: bigint, primary_key: true, auto_increment: true}
//	        - {name: title, type: varchar, length: 120}
//	    columns:
//	      - {column: title, label: Title, sortable: true, direction: desc}
//	    metaboxes:
//	      - name: details
//	        label: Details
//	        fields:
//	          - {column: title, type: text}
package definitions

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eighteen73/custom-tables/internal/entity"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
)

// File is a set of entity definitions with optional translations
type File struct {
	// Translations maps locale to source text to translation
	Translations map[string]map[string]string `yaml:"translations,omitempty"`
	Entities     []Definition                 `yaml:"entities"`
}

// Definition describes one entity
type Definition struct {
	Table        string              `yaml:"table"`
	Singular     string              `yaml:"singular"`
	Plural       string              `yaml:"plural"`
	Version      int                 `yaml:"version,omitempty"`
	Parent       string              `yaml:"parent,omitempty"`
	ShowUI       *bool               `yaml:"show_ui,omitempty"`
	ShowInREST   bool                `yaml:"show_in_rest,omitempty"`
	SupportsMeta bool                `yaml:"supports_meta,omitempty"`
	Schema       *schema.Schema      `yaml:"schema"`
	Columns      []entity.ColumnSpec `yaml:"columns,omitempty"`
	Metaboxes    []Metabox           `yaml:"metaboxes,omitempty"`
	Fields       []map[string]any    `yaml:"fields,omitempty"`
	Searchable   []string            `yaml:"searchable,omitempty"`
	Defaults     map[string]any      `yaml:"defaults,omitempty"`
	Filters      []map[string]any    `yaml:"filters,omitempty"`
}

// Metabox declares a metabox and its fields
type Metabox struct {
	Name    string           `yaml:"name"`
	Label   string           `yaml:"label,omitempty"`
	Context string           `yaml:"context,omitempty"`
	Fields  []map[string]any `yaml:"fields,omitempty"`
}

// Parse decodes a definitions document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse entity definitions: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads and parses a definitions file
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity definitions: %w", err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Encode renders the file as YAML
func (f *File) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("failed to encode entity definitions: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the file as YAML to path
func (f *File) WriteFile(path string) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks that every definition is complete and table names are unique
func (f *File) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(f.Entities))
	for i, d := range f.Entities {
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entity %d: %w", i, err))
			continue
		}
		if seen[d.Table] {
			errs = append(errs, fmt.Errorf("entity %d: table %s is defined more than once", i, d.Table))
		}
		seen[d.Table] = true
	}
	return errors.Join(errs...)
}

// Validate checks the required keys of a definition. The schema itself is
// validated when the table is registered.
func (d Definition) Validate() error {
	var missing []string
	if d.Table == "" {
		missing = append(missing, "table")
	}
	if d.Singular == "" {
		missing = append(missing, "singular")
	}
	if d.Plural == "" {
		missing = append(missing, "plural")
	}
	if d.Schema == nil {
		missing = append(missing, "schema")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %v", missing)
	}
	for i, m := range d.Metaboxes {
		if m.Name == "" {
			return fmt.Errorf("%s metabox %d: missing name", d.Table, i)
		}
	}
	return nil
}

// Add appends a definition, replacing an existing one for the same table
func (f *File) Add(d Definition) {
	for i := range f.Entities {
		if f.Entities[i].Table == d.Table {
			f.Entities[i] = d
			return
		}
	}
	f.Entities = append(f.Entities, d)
}

// Find returns the definition of table
func (f *File) Find(table string) (Definition, bool) {
	for _, d := range f.Entities {
		if d.Table == table {
			return d, true
		}
	}
	return Definition{}, false
}
