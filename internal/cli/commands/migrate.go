package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eighteen73/custom-tables/internal/cli/ui"
	"github.com/eighteen73/custom-tables/internal/entity"
	"github.com/eighteen73/custom-tables/internal/orm/migrate"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [table...]",
		Short: "Create or upgrade the declared tables",
		Long: `Register the declared entities, creating missing tables and
upgrading tables whose declared version is ahead of the database.

New declarative columns are added. Dropped or changed columns are
reported and left for manual review.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.dir)
			if err != nil {
				return err
			}
			defer a.close()

			known := tableNames(a.defs)
			for _, name := range args {
				if _, ok := a.defs.Find(name); !ok {
					ui.TableNotFound(name, known, opts.noColor).Write(cmd.ErrOrStderr())
					return fmt.Errorf("unknown table %s", name)
				}
			}

			done, initErr := a.initEntities(cmd.Context(), args...)
			renderOutcomes(cmd, done, opts.noColor)
			if initErr != nil {
				return fmt.Errorf("migration failed: %w", initErr)
			}
			return nil
		},
	}
}

func renderOutcomes(cmd *cobra.Command, builders []*entity.Builder, noColor bool) {
	out := cmd.OutOrStdout()
	if len(builders) == 0 {
		fmt.Fprintln(out, "No tables migrated.")
		return
	}

	table := ui.NewTable(out, noColor, "TABLE", "VERSION", "ACTION", "ADDED", "SKIPPED")
	var skipped []string
	for _, b := range builders {
		outcome := b.Handle().Outcome
		table.AddRow(
			outcome.Table,
			versionRange(outcome),
			string(outcome.Action),
			strings.Join(outcome.Added, ", "),
			fmt.Sprint(len(outcome.Skipped)),
		)
		for _, change := range outcome.Skipped {
			skipped = append(skipped, fmt.Sprintf("%s.%s: %s not applied", outcome.Table, change.Column, change.Type))
		}
	}
	table.Render()

	for _, s := range skipped {
		ui.Warning(s, noColor).Write(cmd.ErrOrStderr())
	}
	fmt.Fprintln(out, ui.Success(fmt.Sprintf("%d tables up to date", len(builders)), noColor))
}

func versionRange(o *migrate.Outcome) string {
	if o.Action == migrate.ActionUpgraded {
		return fmt.Sprintf("%d → %d", o.FromVersion, o.ToVersion)
	}
	return fmt.Sprint(o.ToVersion)
}
