// Package panels is the registry of field panels rendered on custom table
// edit screens. A panel is a titled group of fields attached to a screen
// context ("normal", "side") for one or more object types.
package panels

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"
)

var (
	// ErrMissingPanelID is returned when a panel is created without an id
	ErrMissingPanelID = errors.New("panel id is required")

	// ErrMissingFieldID is returned when a field has no string "id"
	ErrMissingFieldID = errors.New("field id is required")
)

// Options describes a panel
type Options struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ObjectTypes []string `json:"object_types"`
	Context     string   `json:"context"`
}

// Field is the configuration of a single panel field. Keys other than id,
// name and desc are passed through to the field renderer untouched.
type Field map[string]any

// ID returns the field id
func (f Field) ID() string {
	id, _ := f["id"].(string)
	return id
}

// FieldSpec is the typed view of the keys a renderer commonly reads
type FieldSpec struct {
	ID      string         `mapstructure:"id"`
	Name    string         `mapstructure:"name"`
	Desc    *string        `mapstructure:"desc"`
	Type    string         `mapstructure:"type"`
	Column  string         `mapstructure:"column"`
	Default any            `mapstructure:"default"`
	Options map[string]any `mapstructure:"options"`
	Extra   map[string]any `mapstructure:",remain"`
}

// Spec decodes the field into a FieldSpec
func (f Field) Spec() (FieldSpec, error) {
	var spec FieldSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &spec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return spec, err
	}
	if err := decoder.Decode(map[string]any(f)); err != nil {
		return spec, fmt.Errorf("failed to decode field %s: %w", f.ID(), err)
	}
	return spec, nil
}

// Panel is a titled group of fields
type Panel struct {
	mu     sync.RWMutex
	opts   Options
	fields []Field
	index  map[string]int
}

// NewPanel creates an unpublished panel. The context defaults to "normal".
func NewPanel(opts Options) (*Panel, error) {
	if opts.ID == "" {
		return nil, ErrMissingPanelID
	}
	if opts.Context == "" {
		opts.Context = "normal"
	}
	return &Panel{
		opts:  opts,
		index: make(map[string]int),
	}, nil
}

// ID returns the panel id
func (p *Panel) ID() string {
	return p.opts.ID
}

// Options returns the panel options
func (p *Panel) Options() Options {
	return p.opts
}

// AddField adds a field to the panel. A field with an id already present
// replaces the earlier one in place.
func (p *Panel) AddField(f Field) error {
	id := f.ID()
	if id == "" {
		return fmt.Errorf("panel %s: %w", p.opts.ID, ErrMissingFieldID)
	}

	field := make(Field, len(f))
	for k, v := range f {
		field[k] = v
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if i, ok := p.index[id]; ok {
		p.fields[i] = field
		return nil
	}
	p.index[id] = len(p.fields)
	p.fields = append(p.fields, field)
	return nil
}

// Fields returns the panel fields in insertion order
func (p *Panel) Fields() []Field {
	p.mu.RLock()
	defer p.mu.RUnlock()

	fields := make([]Field, len(p.fields))
	copy(fields, p.fields)
	return fields
}

// Field returns the field with the given id
func (p *Panel) Field(id string) (Field, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i, ok := p.index[id]
	if !ok {
		return nil, false
	}
	return p.fields[i], true
}

// AppliesTo reports whether the panel is shown for objectType
func (p *Panel) AppliesTo(objectType string) bool {
	for _, t := range p.opts.ObjectTypes {
		if t == objectType {
			return true
		}
	}
	return false
}
