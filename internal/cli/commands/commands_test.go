package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eighteen73/custom-tables/internal/definitions"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
)

const entitiesYAML = `
entities:
  - table: events
    singular: Event
    plural: Events
    show_in_rest: true
    schema:
      columns:
        - {name: id, type: bigint, primary_key: true, auto_increment: true}
        - {name: title, type: varchar, length: 120}
    columns:
      - {column: title, label: Title, sortable: true}
    fields:
      - {column: title, type: text}
  - table: venues
    singular: Venue
    plural: Venues
    show_ui: false
    supports_meta: true
    schema:
      columns:
        - {name: id, type: bigint, primary_key: true, auto_increment: true}
        - {name: name, type: varchar, length: 80}
`

// newProject writes a config and definitions file into a temp dir
func newProject(t *testing.T, entities string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "database:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "app.db") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "customtables.yml"), []byte(cfg), 0o644))
	if entities != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "entities.yml"), []byte(entities), 0o644))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "customtables", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"version", "serve", "migrate", "tables", "scaffold"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	GitCommit = "abc123"
	t.Cleanup(func() { Version, GitCommit = "dev", "unknown" })

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "customtables version: 1.2.3")
	assert.Contains(t, out, "Git commit: abc123")
}

func TestTablesCommand(t *testing.T) {
	dir := newProject(t, entitiesYAML)

	out, _, err := run(t, "-C", dir, "tables")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "TABLE")
	assert.Regexp(t, `^events\s+Event\s+Events\s+1\s+yes\s+yes\s+no$`, lines[2])
	assert.Regexp(t, `^venues\s+Venue\s+Venues\s+1\s+no\s+no\s+yes$`, lines[3])
}

func TestTablesShowCommand(t *testing.T) {
	dir := newProject(t, entitiesYAML)

	out, _, err := run(t, "-C", dir, "tables", "show", "events")
	require.NoError(t, err)
	assert.Contains(t, out, "Events\n")
	assert.Regexp(t, `REST:\s+yes`, out)
	assert.Regexp(t, `title\s+varchar\(120\)\s+no`, out)
	assert.Regexp(t, `id\s+bigint\s+no\s+primary`, out)

	_, stderr, err := run(t, "-C", dir, "tables", "show", "evnts")
	require.Error(t, err)
	assert.Contains(t, stderr, "Did you mean: events?")
}

func TestMigrateCommand(t *testing.T) {
	dir := newProject(t, entitiesYAML)

	out, _, err := run(t, "-C", dir, "migrate")
	require.NoError(t, err)
	assert.Regexp(t, `events\s+1\s+created`, out)
	assert.Regexp(t, `venues\s+1\s+created`, out)
	assert.Contains(t, out, "✓ 2 tables up to date")

	out, _, err = run(t, "-C", dir, "migrate", "events")
	require.NoError(t, err)
	assert.Regexp(t, `events\s+1\s+unchanged`, out)
	assert.NotContains(t, out, "venues")
}

func TestMigrateCommand_Upgrade(t *testing.T) {
	dir := newProject(t, entitiesYAML)
	_, _, err := run(t, "-C", dir, "migrate")
	require.NoError(t, err)

	upgraded := strings.Replace(entitiesYAML,
		"    show_in_rest: true\n",
		"    show_in_rest: true\n    version: 2\n", 1)
	upgraded = strings.Replace(upgraded,
		"        - {name: title, type: varchar, length: 120}\n",
		"        - {name: title, type: varchar, length: 120}\n        - {name: notes, type: text, nullable: true}\n", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "entities.yml"), []byte(upgraded), 0o644))

	out, _, err := run(t, "-C", dir, "migrate", "events")
	require.NoError(t, err)
	assert.Regexp(t, `events\s+1 → 2\s+upgraded\s+notes\s+0`, out)
}

func TestMigrateCommand_UnknownTable(t *testing.T) {
	dir := newProject(t, entitiesYAML)

	_, stderr, err := run(t, "-C", dir, "migrate", "venue")
	require.Error(t, err)
	assert.Contains(t, stderr, "TABLE NOT FOUND: venue")
	assert.Contains(t, stderr, "Did you mean: venues?")
}

func TestMigrateCommand_InvalidSchema(t *testing.T) {
	dir := newProject(t, `
entities:
  - table: broken
    singular: Broken
    plural: Broken
    schema:
      columns:
        - {name: "bad name", type: int}
`)

	_, _, err := run(t, "-C", dir, "migrate")
	require.Error(t, err)
	var cfgErr *schema.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestScaffoldCommand(t *testing.T) {
	dir := newProject(t, "")

	out, _, err := run(t, "-C", dir, "scaffold", "categories",
		"--columns", "name:varchar(80),description:text?,position:int", "--rest")
	require.NoError(t, err)
	assert.Contains(t, out, "Added categories")

	file, err := definitions.LoadFile(filepath.Join(dir, "entities.yml"))
	require.NoError(t, err)
	def, ok := file.Find("categories")
	require.True(t, ok)
	assert.Equal(t, "Category", def.Singular)
	assert.Equal(t, "Categories", def.Plural)
	assert.True(t, def.ShowInREST)
	require.Len(t, def.Schema.Columns, 4)
	assert.Equal(t, "id", def.Schema.Columns[0].Name)

	_, _, err = run(t, "-C", dir, "scaffold", "categories", "--columns", "name:text")
	assert.ErrorContains(t, err, "already declared")

	out, _, err = run(t, "-C", dir, "migrate")
	require.NoError(t, err)
	assert.Regexp(t, `categories\s+1\s+created`, out)
}

func TestParseColumns(t *testing.T) {
	columns, err := parseColumns("title:varchar, body:text?, count:int(11)")
	require.NoError(t, err)
	require.Len(t, columns, 4)

	assert.Equal(t, &schema.Column{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true}, columns[0])
	assert.Equal(t, &schema.Column{Name: "title", Type: schema.TypeVarchar, Length: 255}, columns[1])
	assert.Equal(t, &schema.Column{Name: "body", Type: schema.TypeText, Nullable: true}, columns[2])
	assert.Equal(t, &schema.Column{Name: "count", Type: schema.TypeInt, Length: 11}, columns[3])

	columns, err = parseColumns("id:int,name:string")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.True(t, columns[0].PrimaryKey)
	assert.True(t, columns[0].AutoIncrement)

	for _, bad := range []string{"", "title", "title:widget", "9lives:int", " , "} {
		_, err := parseColumns(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildDefinition(t *testing.T) {
	def, err := buildDefinition(scaffoldAnswers{
		Table:   "event_categories",
		Columns: "name:varchar(80),enabled:bool,notes:text?",
		Meta:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Event Category", def.Singular)
	assert.Equal(t, "Event Categories", def.Plural)
	assert.True(t, def.SupportsMeta)
	require.Len(t, def.Columns, 3)
	assert.True(t, def.Columns[0].Sortable)
	assert.Equal(t, "Name", def.Columns[0].Label)
	assert.False(t, def.Columns[2].Sortable)
	assert.Equal(t, []string{"name", "notes"}, def.Searchable)
	assert.Equal(t, "checkbox", def.Fields[1]["type"])
	assert.Equal(t, "textarea", def.Fields[2]["type"])

	_, err = buildDefinition(scaffoldAnswers{Table: "bad-name", Columns: "a:int"})
	assert.Error(t, err)
}

func TestSingularize(t *testing.T) {
	assert.Equal(t, "Category", singularize("Categories"))
	assert.Equal(t, "Box", singularize("Boxes"))
	assert.Equal(t, "Event", singularize("Events"))
	assert.Equal(t, "Address", singularize("Address"))
}
