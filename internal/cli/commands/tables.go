package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eighteen73/custom-tables/internal/cli/config"
	"github.com/eighteen73/custom-tables/internal/cli/ui"
	"github.com/eighteen73/custom-tables/internal/definitions"
)

// NewTablesCommand creates the tables command
func NewTablesCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the declared entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := loadDefinitions(opts.dir)
			if err != nil {
				return err
			}
			renderDefinitions(cmd, defs, opts.noColor)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <table>",
		Short: "Show the declaration of one entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := loadDefinitions(opts.dir)
			if err != nil {
				return err
			}
			d, ok := defs.Find(args[0])
			if !ok {
				ui.TableNotFound(args[0], tableNames(defs), opts.noColor).Write(cmd.ErrOrStderr())
				return fmt.Errorf("unknown table %s", args[0])
			}
			renderDefinition(cmd, d, opts.noColor)
			return nil
		},
	})

	return cmd
}

func loadDefinitions(dir string) (*definitions.File, error) {
	cfg, err := config.LoadFrom(dir)
	if err != nil {
		return nil, err
	}
	return definitions.LoadFile(cfg.Entities.Path)
}

func renderDefinitions(cmd *cobra.Command, defs *definitions.File, noColor bool) {
	out := cmd.OutOrStdout()
	if len(defs.Entities) == 0 {
		fmt.Fprintln(out, "No entities declared.")
		return
	}

	table := ui.NewTable(out, noColor, "TABLE", "SINGULAR", "PLURAL", "VERSION", "UI", "REST", "META")
	for _, d := range defs.Entities {
		table.AddRow(d.Table, d.Singular, d.Plural, strconv.Itoa(max(d.Version, 1)),
			yesNo(d.ShowUI == nil || *d.ShowUI), yesNo(d.ShowInREST), yesNo(d.SupportsMeta))
	}
	table.Render()
}

func renderDefinition(cmd *cobra.Command, d definitions.Definition, noColor bool) {
	out := cmd.OutOrStdout()
	ui.Header(out, d.Plural, noColor)

	kv := ui.NewKeyValueTable(out, noColor)
	kv.AddRow("Table", d.Table)
	kv.AddRow("Singular", d.Singular)
	kv.AddRow("Version", strconv.Itoa(max(d.Version, 1)))
	if d.Parent != "" {
		kv.AddRow("Parent", d.Parent)
	}
	kv.AddRow("Admin UI", yesNo(d.ShowUI == nil || *d.ShowUI))
	kv.AddRow("REST", yesNo(d.ShowInREST))
	kv.AddRow("Meta", yesNo(d.SupportsMeta))
	if len(d.Searchable) > 0 {
		kv.AddRow("Searchable", strings.Join(d.Searchable, ", "))
	}
	kv.Render()
	fmt.Fprintln(out)

	if d.Schema.IsRaw() {
		fmt.Fprintln(out, "Raw schema:")
		fmt.Fprintln(out, d.Schema.Raw)
		return
	}

	columns := ui.NewTable(out, noColor, "COLUMN", "TYPE", "NULL", "DEFAULT", "KEY")
	for _, col := range d.Schema.Columns {
		typ := col.Type.String()
		if col.Length > 0 {
			typ = fmt.Sprintf("%s(%d)", typ, col.Length)
		}
		var key string
		switch {
		case col.PrimaryKey:
			key = "primary"
		case col.Unique:
			key = "unique"
		}
		var def string
		if col.Default != nil {
			def = fmt.Sprint(col.Default)
		}
		columns.AddRow(col.Name, typ, yesNo(col.Nullable), def, key)
	}
	columns.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
