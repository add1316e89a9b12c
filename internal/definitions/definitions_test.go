package definitions

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eighteen73/custom-tables/internal/entity"
	"github.com/eighteen73/custom-tables/internal/orm/hooks"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
	"github.com/eighteen73/custom-tables/internal/panels"
	"github.com/eighteen73/custom-tables/internal/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsYAML = `
translations:
  fr:
    Details: Détails
entities:
  - table: events
    singular: Event
    plural: Events
    version: 2
    parent: calendar
    show_in_rest: true
    supports_meta: true
    schema:
      columns:
        - {name: id, type: bigint, primary_key: true, auto_increment: true}
        - {name: title, type: varchar, length: 120}
        - {name: status, type: varchar, length: 20, default: draft}
    columns:
      - {column: title, label: Title, sortable: true, direction: desc}
      - {column: status, label: Status}
    metaboxes:
      - name: details
        label: Details
        context: side
        fields:
          - {column: status, type: select, options: {draft: Draft, published: Published}}
    fields:
      - {column: title, type: text, name: Event title}
    searchable: [title]
    defaults:
      status: draft
    filters:
      - {column: status}
  - table: logs
    singular: Log
    plural: Logs
    show_ui: false
    schema:
      raw: '"log_id" INTEGER PRIMARY KEY, "message" TEXT'
`

type recordingTables struct {
	configs map[string]tables.Config
}

func (r *recordingTables) Register(_ context.Context, name string, cfg tables.Config) (*tables.Table, error) {
	if r.configs == nil {
		r.configs = make(map[string]tables.Config)
	}
	r.configs[name] = cfg
	return &tables.Table{Name: name, Config: cfg}, nil
}

func (r *recordingTables) Lookup(name string) (*tables.Table, error) {
	return nil, tables.ErrNotRegistered
}

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(eventsYAML))
	require.NoError(t, err)
	require.Len(t, f.Entities, 2)

	events := f.Entities[0]
	assert.Equal(t, "events", events.Table)
	assert.Equal(t, 2, events.Version)
	require.Len(t, events.Schema.Columns, 3)
	assert.Equal(t, schema.TypeVarchar, events.Schema.Columns[1].Type)
	assert.Equal(t, "draft", events.Schema.Columns[2].Default)
	assert.Equal(t, entity.ColumnSpec{Column: "title", Label: "Title", Sortable: true, Direction: "desc"}, events.Columns[0])
	assert.Equal(t, "side", events.Metaboxes[0].Context)
	assert.Equal(t, map[string]any{"status": "draft"}, events.Defaults)

	logs, ok := f.Find("logs")
	require.True(t, ok)
	assert.True(t, logs.Schema.IsRaw())
	require.NotNil(t, logs.ShowUI)
	assert.False(t, *logs.ShowUI)
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Entities)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "entities:\n  - table: events\n    colour: red\n",
		"missing keys":     "entities:\n  - table: events\n",
		"duplicate tables": "entities:\n  - {table: a, singular: A, plural: As, schema: {raw: x}}\n  - {table: a, singular: A, plural: As, schema: {raw: x}}\n",
		"unnamed metabox":  "entities:\n  - {table: a, singular: A, plural: As, schema: {raw: x}, metaboxes: [{label: L}]}\n",
		"bad column type":  "entities:\n  - {table: a, singular: A, plural: As, schema: {columns: [{name: id, type: blob}]}}\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestDefinition_Builder(t *testing.T) {
	f, err := Parse(strings.NewReader(eventsYAML))
	require.NoError(t, err)

	rec := &recordingTables{}
	bus := hooks.NewBus()
	pr := panels.NewRegistry()
	env := entity.Environment{Tables: rec, Panels: pr, Hooks: bus}

	builders := f.Builders(env)
	require.Len(t, builders, 2)
	for _, b := range builders {
		require.NoError(t, b.Err())
		require.NoError(t, b.Init(context.Background()))
	}

	cfg := rec.configs["events"]
	assert.Equal(t, 2, cfg.Version)
	assert.Equal(t, "calendar", cfg.Views.List.ParentSlug)
	assert.True(t, cfg.ShowUI)
	assert.True(t, cfg.ShowInREST)
	assert.Equal(t, []string{"meta"}, cfg.Supports)
	require.Len(t, cfg.Views.List.Columns, 2)
	assert.Equal(t, &tables.Sort{Column: "title", Ascending: false}, cfg.Views.List.Columns[0].Sortable)
	assert.Nil(t, cfg.Views.List.Columns[1].Sortable)

	assert.False(t, rec.configs["logs"].ShowUI)
	assert.Equal(t, 1, rec.configs["logs"].Version)

	groups := builders[0].Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "details", groups[0].Name)
	assert.Equal(t, "side", groups[0].Context)
	assert.Equal(t, "default", groups[1].Name)

	assert.Equal(t, map[string]any{"status": "draft", "author": "x"},
		bus.ApplyFilters(hooks.DefaultDataFilter("events"), map[string]any{"author": "x"}))
	assert.Equal(t, []string{"title"}, bus.ApplyFilters(hooks.SearchFieldsFilter("events"), []string{}))

	require.NoError(t, bus.DoAction(context.Background(), hooks.PanelsInit))
	panel, err := pr.Get("events-side-details")
	require.NoError(t, err)
	status, ok := panel.Field("status")
	require.True(t, ok)
	assert.Equal(t, "select", status["type"])
}

func TestFile_ApplyTranslations(t *testing.T) {
	f, err := Parse(strings.NewReader(eventsYAML))
	require.NoError(t, err)

	l, err := panels.NewLocalizer("fr")
	require.NoError(t, err)
	require.NoError(t, f.ApplyTranslations(l))
	assert.Equal(t, "Détails", l.Translate("Details"))
}

func TestFile_WriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.yml")

	f := &File{}
	f.Add(Definition{
		Table:    "venues",
		Singular: "Venue",
		Plural:   "Venues",
		Schema: schema.Declarative(
			&schema.Column{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true},
			&schema.Column{Name: "name", Type: schema.TypeVarchar, Length: 80},
		),
		Searchable: []string{"name"},
	})
	f.Add(Definition{Table: "venues", Singular: "Place", Plural: "Places", Schema: schema.Raw(`"id" INTEGER`)})
	require.Len(t, f.Entities, 1)
	f.Entities[0].Schema = schema.Declarative(&schema.Column{Name: "id", Type: schema.TypeInt})

	require.NoError(t, f.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "type: int")

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Entities, 1)
	assert.Equal(t, "Place", loaded.Entities[0].Singular)
	assert.Equal(t, schema.TypeInt, loaded.Entities[0].Schema.Columns[0].Type)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
