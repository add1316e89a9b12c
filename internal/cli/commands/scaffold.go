package commands

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/eighteen73/custom-tables/internal/cli/config"
	"github.com/eighteen73/custom-tables/internal/cli/ui"
	"github.com/eighteen73/custom-tables/internal/definitions"
	"github.com/eighteen73/custom-tables/internal/entity"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
	strs "github.com/eighteen73/custom-tables/internal/util/strings"
)

// scaffoldAnswers are the inputs of a scaffolded entity
type scaffoldAnswers struct {
	Table      string
	Singular   string
	Plural     string
	Columns    string
	ShowInREST bool
	Meta       bool
}

var columnSpecPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*):([a-z]+)(?:\((\d+)\))?(\?)?$`)

// NewScaffoldCommand creates the scaffold command
func NewScaffoldCommand(opts *globalOptions) *cobra.Command {
	var answers scaffoldAnswers
	var interactive bool

	cmd := &cobra.Command{
		Use:   "scaffold [table]",
		Short: "Add an entity to the definitions file",
		Long: `Add an entity declaration to the definitions file.

Columns are given as a comma separated list of name:type pairs. A length
may follow the type and a trailing ? makes the column nullable:

  customtables scaffold events --columns "title:varchar(120),starts_at:datetime,notes:text?"

An auto-increment id primary key is added unless a column named id is given.
Without --columns the command prompts for every value.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				answers.Table = args[0]
			}
			if interactive || answers.Columns == "" {
				if err := askScaffold(&answers); err != nil {
					return err
				}
			}

			def, err := buildDefinition(answers)
			if err != nil {
				return err
			}

			cfg, err := config.LoadFrom(opts.dir)
			if err != nil {
				return err
			}
			if err := appendDefinition(cfg.Entities.Path, def); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(
				fmt.Sprintf("Added %s to %s", def.Table, cfg.Entities.Path), opts.noColor))
			return nil
		},
	}

	cmd.Flags().StringVar(&answers.Singular, "singular", "", "Singular label")
	cmd.Flags().StringVar(&answers.Plural, "plural", "", "Plural label")
	cmd.Flags().StringVar(&answers.Columns, "columns", "", "Columns as name:type pairs")
	cmd.Flags().BoolVar(&answers.ShowInREST, "rest", false, "Publish the table on the REST routes")
	cmd.Flags().BoolVar(&answers.Meta, "meta", false, "Create a meta side table")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for every value")

	return cmd
}

func askScaffold(answers *scaffoldAnswers) error {
	questions := []*survey.Question{
		{
			Name:     "table",
			Prompt:   &survey.Input{Message: "Table name:", Default: answers.Table},
			Validate: survey.ComposeValidators(survey.Required, validateIdentifier),
		},
		{
			Name:     "columns",
			Prompt:   &survey.Input{Message: "Columns:", Default: answers.Columns, Help: "name:type pairs, e.g. title:varchar(120),notes:text?"},
			Validate: survey.ComposeValidators(survey.Required, validateColumns),
		},
		{
			Name:   "showInREST",
			Prompt: &survey.Confirm{Message: "Publish on the REST routes?", Default: answers.ShowInREST},
		},
		{
			Name:   "meta",
			Prompt: &survey.Confirm{Message: "Create a meta table?", Default: answers.Meta},
		},
	}
	if err := survey.Ask(questions, answers); err != nil {
		return err
	}

	labels := []*survey.Question{
		{
			Name:     "singular",
			Prompt:   &survey.Input{Message: "Singular label:", Default: orDefault(answers.Singular, singularize(strs.Humanize(answers.Table)))},
			Validate: survey.Required,
		},
		{
			Name:     "plural",
			Prompt:   &survey.Input{Message: "Plural label:", Default: orDefault(answers.Plural, strs.Humanize(answers.Table))},
			Validate: survey.Required,
		},
	}
	return survey.Ask(labels, answers)
}

func validateIdentifier(v any) error {
	if s, _ := v.(string); !schema.ValidIdentifier(s) {
		return fmt.Errorf("%q is not a valid table name", s)
	}
	return nil
}

func validateColumns(v any) error {
	s, _ := v.(string)
	_, err := parseColumns(s)
	return err
}

// buildDefinition turns scaffold answers into an entity definition with a
// list column and an edit field per non-key column.
func buildDefinition(a scaffoldAnswers) (definitions.Definition, error) {
	if !schema.ValidIdentifier(a.Table) {
		return definitions.Definition{}, fmt.Errorf("%q is not a valid table name", a.Table)
	}
	columns, err := parseColumns(a.Columns)
	if err != nil {
		return definitions.Definition{}, err
	}

	def := definitions.Definition{
		Table:        a.Table,
		Singular:     orDefault(a.Singular, singularize(strs.Humanize(a.Table))),
		Plural:       orDefault(a.Plural, strs.Humanize(a.Table)),
		Version:      1,
		ShowInREST:   a.ShowInREST,
		SupportsMeta: a.Meta,
		Schema:       schema.Declarative(columns...),
	}

	sorted := false
	for _, col := range columns {
		if col.PrimaryKey {
			continue
		}
		spec := entity.ColumnSpec{Column: col.Name, Label: strs.Humanize(col.Name)}
		if !sorted && col.Type.IsText() {
			spec.Sortable, spec.Direction = true, "asc"
			sorted = true
		}
		def.Columns = append(def.Columns, spec)
		def.Fields = append(def.Fields, map[string]any{
			"column": col.Name,
			"type":   fieldType(col.Type),
		})
		if col.Type.IsText() {
			def.Searchable = append(def.Searchable, col.Name)
		}
	}

	return def, def.Validate()
}

// parseColumns parses a name:type[(length)][?] list
func parseColumns(spec string) ([]*schema.Column, error) {
	var columns []*schema.Column
	hasID := false

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := columnSpecPattern.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("invalid column %q, expected name:type", part)
		}
		typ, err := schema.ParseColumnType(m[2])
		if err != nil {
			return nil, err
		}
		col := &schema.Column{Name: m[1], Type: typ, Nullable: m[4] == "?"}
		if m[3] != "" {
			col.Length, _ = strconv.Atoi(m[3])
		} else if typ == schema.TypeVarchar {
			col.Length = 255
		}
		if col.Name == "id" {
			hasID = true
			col.PrimaryKey = true
			col.AutoIncrement = typ.IsInteger()
			col.Nullable = false
		}
		columns = append(columns, col)
	}

	if len(columns) == 0 {
		return nil, errors.New("at least one column is required")
	}
	if !hasID {
		id := &schema.Column{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true}
		columns = append([]*schema.Column{id}, columns...)
	}
	return columns, nil
}

func fieldType(t schema.ColumnType) string {
	switch t {
	case schema.TypeText, schema.TypeLongText, schema.TypeJSON:
		return "textarea"
	case schema.TypeBool:
		return "checkbox"
	case schema.TypeInt, schema.TypeBigInt, schema.TypeFloat, schema.TypeDecimal:
		return "text_small"
	case schema.TypeDate:
		return "text_date"
	case schema.TypeDateTime, schema.TypeTimestamp:
		return "text_datetime_timestamp"
	default:
		return "text"
	}
}

// appendDefinition adds def to the definitions file at path, creating it
// when missing. An existing entity for the same table is an error.
func appendDefinition(path string, def definitions.Definition) error {
	file := &definitions.File{}
	if _, err := os.Stat(path); err == nil {
		if file, err = definitions.LoadFile(path); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if _, exists := file.Find(def.Table); exists {
		return fmt.Errorf("table %s is already declared in %s", def.Table, path)
	}
	file.Add(def)
	return file.WriteFile(path)
}

func singularize(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "ses"), strings.HasSuffix(s, "xes"):
		return strings.TrimSuffix(s, "es")
	case strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss"):
		return strings.TrimSuffix(s, "s")
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
