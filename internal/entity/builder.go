// Package entity provides the declarative builder for custom table entities.
//
// A Builder accumulates an entity's configuration through chained setters:
// schema, list columns, field metaboxes, search fields, defaults and filters.
// Init registers the table with the table registry, installs the
// default-data and search-fields filters and hooks panel rendering onto the
// panels-init action. The host fires that action whenever it renders an
// admin screen, possibly many times; each run recreates the same panels.
//
// Builders are safe for concurrent use. Setters called after Init leave the
// configuration unchanged and record ErrAlreadyInitialized, reported by Err.
package entity

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eighteen73/custom-tables/internal/orm/hooks"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
	"github.com/eighteen73/custom-tables/internal/panels"
	"github.com/eighteen73/custom-tables/internal/tables"
	strs "github.com/eighteen73/custom-tables/internal/util/strings"
)

// Environment holds the collaborators a builder forwards to
type Environment struct {
	Tables     TableRegistry
	Panels     PanelRegistry
	Hooks      HookBus
	Translator Translator
	Logger     *zap.Logger
}

// Option configures a Builder at construction
type Option func(*Builder)

// WithVersion sets the schema version. Bumping it upgrades the table on the
// next Init.
func WithVersion(version int) Option {
	return func(b *Builder) {
		b.version = version
	}
}

// WithFilterRenderer replaces the no-op filter renderer
func WithFilterRenderer(fn FilterRenderer) Option {
	return func(b *Builder) {
		if fn != nil {
			b.renderFilter = fn
		}
	}
}

// Builder accumulates the configuration of one custom table entity
type Builder struct {
	mu     sync.RWMutex
	env    Environment
	logger *zap.Logger

	table    string
	singular string
	plural   string
	schema   *schema.Schema
	version  int

	parentSlug string
	showUI     bool
	showInREST bool
	supports   []string
	columns    []tables.ListColumn
	groups     groupSet
	search     []string
	defaults   map[string]any
	filters    []Filter

	renderFilter FilterRenderer

	active bool
	handle *tables.Table
	errs   []error
}

// New creates a builder for table. The table name cannot be changed later.
func New(env Environment, table, singular, plural string, s *schema.Schema, opts ...Option) *Builder {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Builder{
		env:          env,
		logger:       logger.With(zap.String("table", table)),
		table:        table,
		singular:     singular,
		plural:       plural,
		schema:       s,
		version:      tables.DefaultVersion,
		showUI:       true,
		renderFilter: noopFilterRenderer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// mutate applies fn unless the builder is active
func (b *Builder) mutate(op string, fn func()) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active {
		b.errs = append(b.errs, fmt.Errorf("%s on %s: %w", op, b.table, ErrAlreadyInitialized))
		return b
	}
	fn()
	return b
}

// Parent sets the admin menu slug the entity is listed under
func (b *Builder) Parent(slug string) *Builder {
	return b.mutate("Parent", func() {
		b.parentSlug = slug
	})
}

// Schema replaces the table schema. The schema is validated by the table
// registry at Init.
func (b *Builder) Schema(s *schema.Schema) *Builder {
	return b.mutate("Schema", func() {
		b.schema = s
	})
}

// Filters replaces the list view filters
func (b *Builder) Filters(filters []Filter) *Builder {
	return b.mutate("Filters", func() {
		b.filters = append([]Filter(nil), filters...)
	})
}

// SupportsMeta enables the {table}_meta side table
func (b *Builder) SupportsMeta() *Builder {
	return b.mutate("SupportsMeta", func() {
		for _, s := range b.supports {
			if s == tables.SupportsMeta {
				return
			}
		}
		b.supports = append(b.supports, tables.SupportsMeta)
	})
}

// ShowUI sets whether the entity gets admin screens
func (b *Builder) ShowUI(show bool) *Builder {
	return b.mutate("ShowUI", func() {
		b.showUI = show
	})
}

// ShowInREST sets whether the entity is published on the REST routes
func (b *Builder) ShowInREST(show bool) *Builder {
	return b.mutate("ShowInREST", func() {
		b.showInREST = show
	})
}

// Columns adds list view columns in order. An entry without a direction
// sorts ascending.
func (b *Builder) Columns(columns []ColumnSpec) *Builder {
	for _, c := range columns {
		direction := c.Direction
		if direction == "" {
			direction = DirectionAsc
		}
		b.Column(c.Column, c.Label, c.Sortable, direction)
	}
	return b
}

// Column adds or replaces a list view column. A sortable column sorts by
// its own name, ascending only when direction is "asc" in any case.
func (b *Builder) Column(name, label string, sortable bool, direction string) *Builder {
	return b.mutate("Column", func() {
		col := tables.ListColumn{Name: name, Label: label}
		if sortable {
			col.Sortable = &tables.Sort{
				Column:    name,
				Ascending: strings.EqualFold(direction, DirectionAsc),
			}
		}

		for i := range b.columns {
			if b.columns[i].Name == name {
				b.columns[i] = col
				return
			}
		}
		b.columns = append(b.columns, col)
	})
}

// Fields adds fields to a metabox. Each entry is named by its "column" key
// and used whole as the field configuration.
func (b *Builder) Fields(fields []FieldConfig, opts ...Placement) *Builder {
	p := resolvePlacement(opts)
	return b.mutate("Fields", func() {
		for i, cfg := range fields {
			name, _ := cfg["column"].(string)
			if name == "" {
				b.errs = append(b.errs, fmt.Errorf("%s field %d: %w", b.table, i, ErrMissingColumnKey))
				continue
			}
			b.setField(name, cfg, p)
		}
	})
}

// Field adds or replaces a field. The metabox is created on first use with
// its title-cased name as label.
func (b *Builder) Field(name string, cfg FieldConfig, opts ...Placement) *Builder {
	p := resolvePlacement(opts)
	return b.mutate("Field", func() {
		b.setField(name, cfg, p)
	})
}

func (b *Builder) setField(name string, cfg FieldConfig, p placement) {
	group := b.groups.getOrCreate(p.context, p.metabox, func() string {
		return strs.Title(p.metabox)
	})

	copied := make(FieldConfig, len(cfg))
	for k, v := range cfg {
		copied[k] = v
	}
	group.set(name, copied)
}

// Metabox declares a metabox ahead of its fields, fixing its label and
// position. Declaring an existing metabox again only changes its label.
func (b *Builder) Metabox(name, label string, opts ...Placement) *Builder {
	p := resolvePlacement(opts)
	return b.mutate("Metabox", func() {
		if g := b.groups.find(p.context, name); g != nil {
			g.Label = label
			return
		}
		b.groups.getOrCreate(p.context, name, func() string { return label })
	})
}

// Searchable replaces the searched fields
func (b *Builder) Searchable(fields []string) *Builder {
	return b.mutate("Searchable", func() {
		b.search = append([]string(nil), fields...)
	})
}

// Defaults replaces the default values of new records
func (b *Builder) Defaults(defaults map[string]any) *Builder {
	return b.mutate("Defaults", func() {
		b.defaults = make(map[string]any, len(defaults))
		for k, v := range defaults {
			b.defaults[k] = v
		}
	})
}

// Table returns the table name
func (b *Builder) Table() string {
	return b.table
}

// Active reports whether Init has succeeded
func (b *Builder) Active() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// Handle returns the registered table handle, or nil before Init
func (b *Builder) Handle() *tables.Table {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handle
}

// Err returns the configuration errors recorded by setters
func (b *Builder) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return errors.Join(b.errs...)
}

// Groups returns a snapshot of the metaboxes in creation order
func (b *Builder) Groups() []*FieldGroup {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotGroups()
}

func (b *Builder) snapshotGroups() []*FieldGroup {
	groups := make([]*FieldGroup, len(b.groups.groups))
	for i, g := range b.groups.groups {
		groups[i] = g.clone()
	}
	return groups
}

// Config returns the registration configuration built from the current state
func (b *Builder) Config() tables.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config()
}

func (b *Builder) config() tables.Config {
	return tables.Config{
		Singular:   b.singular,
		Plural:     b.plural,
		ShowUI:     b.showUI,
		ShowInREST: b.showInREST,
		Version:    b.version,
		Schema:     b.schema,
		Engine:     tables.DefaultEngine,
		Views: tables.Views{
			List: tables.ListView{
				PerPage:    tables.DefaultPerPage,
				Columns:    append([]tables.ListColumn(nil), b.columns...),
				ParentSlug: b.parentSlug,
				MenuTitle:  b.plural,
			},
		},
		Supports: append([]string(nil), b.supports...),
	}
}

// Init registers the entity's table, installs its filters and hooks panel
// rendering onto the panels-init action. Registration errors are returned
// as reported by the table registry and leave the builder configurable.
func (b *Builder) Init(ctx context.Context) error {
	b.mu.Lock()
	if b.active {
		b.mu.Unlock()
		return fmt.Errorf("%s: %w", b.table, ErrAlreadyInitialized)
	}
	if b.env.Tables == nil || b.env.Hooks == nil {
		b.mu.Unlock()
		return fmt.Errorf("%s: %w", b.table, ErrIncompleteEnvironment)
	}

	handle, err := b.env.Tables.Register(ctx, b.table, b.config())
	if err != nil {
		b.mu.Unlock()
		return err
	}
	b.handle = handle
	b.active = true

	defaults := b.defaults
	search := b.search
	filters := b.filters
	b.mu.Unlock()

	if len(defaults) > 0 {
		b.env.Hooks.AddFilter(hooks.DefaultDataFilter(b.table), mergeDefaults(defaults))
	}
	if len(search) > 0 {
		b.env.Hooks.AddFilter(hooks.SearchFieldsFilter(b.table), mergeSearchFields(search))
	}
	// The table is registered at this point, so panels are hooked even when
	// a filter fails to render.
	b.env.Hooks.AddAction(hooks.PanelsInit, b.RenderPanels)

	if len(filters) > 0 {
		if err := b.renderFilters(ctx, filters); err != nil {
			return err
		}
	}

	b.logger.Info("entity initialized",
		zap.Int("version", b.version),
		zap.Int("columns", len(handle.Config.Views.List.Columns)),
		zap.Int("filters", len(filters)))

	return nil
}

func (b *Builder) renderFilters(ctx context.Context, filters []Filter) error {
	for i, f := range filters {
		if err := b.renderFilter(ctx, b.table, f); err != nil {
			return fmt.Errorf("failed to render filter %d of %s: %w", i, b.table, err)
		}
	}
	return nil
}

// mergeDefaults returns a default-data filter that lays stored over the
// incoming defaults
func mergeDefaults(stored map[string]any) hooks.FilterFunc {
	return func(value any) any {
		incoming, _ := value.(map[string]any)
		merged := make(map[string]any, len(stored)+len(incoming))
		for k, v := range incoming {
			merged[k] = v
		}
		for k, v := range stored {
			merged[k] = v
		}
		return merged
	}
}

// mergeSearchFields returns a search-fields filter that lays stored over the
// incoming list by position: the stored fields, then the incoming fields
// past the stored length
func mergeSearchFields(stored []string) hooks.FilterFunc {
	return func(value any) any {
		incoming, _ := value.([]string)
		merged := make([]string, 0, max(len(stored), len(incoming)))
		merged = append(merged, stored...)
		if len(incoming) > len(stored) {
			merged = append(merged, incoming[len(stored):]...)
		}
		return merged
	}
}

// RenderPanels creates one panel per metabox, named {table}-{context}-{name},
// and adds the metabox fields in order. It runs on every panels-init action.
func (b *Builder) RenderPanels(ctx context.Context) error {
	if b.env.Panels == nil {
		return fmt.Errorf("%s: %w", b.table, ErrIncompleteEnvironment)
	}

	b.mu.RLock()
	groups := b.snapshotGroups()
	b.mu.RUnlock()

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		panel, err := panels.NewPanel(panels.Options{
			ID:          g.PanelID(b.table),
			Title:       b.translate(g.Label),
			ObjectTypes: []string{b.table},
			Context:     g.Context,
		})
		if err != nil {
			return fmt.Errorf("failed to create panel for %s: %w", g.Name, err)
		}

		for _, f := range g.Fields() {
			if err := panel.AddField(panelField(f)); err != nil {
				return err
			}
		}

		// readers only ever see the panel with all of its fields
		if err := b.env.Panels.Publish(panel); err != nil {
			return fmt.Errorf("failed to publish panel for %s: %w", g.Name, err)
		}
	}

	b.logger.Debug("panels rendered", zap.Int("panels", len(groups)))
	return nil
}

// panelField lays a field's configuration over the synthesized id, name and
// desc. The id always stays the field name.
func panelField(f Field) panels.Field {
	field := panels.Field{
		"name": html.EscapeString(strs.Humanize(f.Name)),
		"desc": nil,
	}
	for k, v := range f.Config {
		field[k] = v
	}
	field["id"] = f.Name
	return field
}

func (b *Builder) translate(s string) string {
	if b.env.Translator == nil {
		return s
	}
	return b.env.Translator.Translate(s)
}
