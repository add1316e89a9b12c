package schema

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ConfigurationError reports a malformed table definition
type ConfigurationError struct {
	Table    string
	Problems []string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid configuration for table %s: %s", e.Table, e.Problems[0])
	}
	return fmt.Sprintf("invalid configuration for table %s:\n  - %s",
		e.Table, strings.Join(e.Problems, "\n  - "))
}

// ValidIdentifier reports whether name is usable as a table or column name
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Validate checks a table name and its schema, collecting every problem
// found into a single ConfigurationError.
func Validate(table string, s *Schema) error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !ValidIdentifier(table) {
		addf("table name %q is not a valid identifier", table)
	}

	switch {
	case s == nil || (s.Raw == "" && len(s.Columns) == 0):
		addf("schema is empty")
	case s.Raw != "" && len(s.Columns) > 0:
		addf("schema cannot be both raw and declarative")
	case s.Raw == "":
		problems = append(problems, validateColumns(s.Columns)...)
	}

	if len(problems) > 0 {
		return &ConfigurationError{Table: table, Problems: problems}
	}
	return nil
}

func validateColumns(columns []*Column) []string {
	var problems []string
	seen := make(map[string]bool, len(columns))
	primaryKeys := 0

	for i, col := range columns {
		if col == nil {
			problems = append(problems, fmt.Sprintf("column %d is nil", i))
			continue
		}
		if !ValidIdentifier(col.Name) {
			problems = append(problems, fmt.Sprintf("column %q is not a valid identifier", col.Name))
		}
		if seen[col.Name] {
			problems = append(problems, fmt.Sprintf("column %q is declared more than once", col.Name))
		}
		seen[col.Name] = true

		if col.PrimaryKey {
			primaryKeys++
		}
		if col.AutoIncrement && !col.Type.IsInteger() {
			problems = append(problems, fmt.Sprintf("column %q: auto_increment requires an integer type, got %s", col.Name, col.Type))
		}
		if col.AutoIncrement && !col.PrimaryKey {
			problems = append(problems, fmt.Sprintf("column %q: auto_increment requires primary_key", col.Name))
		}
		if col.Length < 0 {
			problems = append(problems, fmt.Sprintf("column %q: length must not be negative", col.Name))
		}
		if col.Type == TypeDecimal && col.Scale > col.Precision {
			problems = append(problems, fmt.Sprintf("column %q: scale %d exceeds precision %d", col.Name, col.Scale, col.Precision))
		}
	}

	if primaryKeys > 1 {
		problems = append(problems, "more than one primary key column declared")
	}

	return problems
}
