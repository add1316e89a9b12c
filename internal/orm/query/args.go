// Package query turns list/query arguments into parameterized SQL for a
// single custom table.
package query

import "strings"

// DefaultPerPage is the page size used when Args.PerPage is zero
const DefaultPerPage = 20

// Args are the arguments accepted by a table query
type Args struct {
	// Where holds equality conditions; slice values become IN, nil becomes IS NULL
	Where map[string]any `json:"where,omitempty" mapstructure:"where"`
	// Search is matched with LIKE against the search columns
	Search string `json:"search,omitempty" mapstructure:"search"`
	// OrderBy is the column to sort by
	OrderBy string `json:"orderby,omitempty" mapstructure:"orderby"`
	// Order is ASC or DESC (case-insensitive); anything else means ASC
	Order string `json:"order,omitempty" mapstructure:"order"`
	// PerPage limits the page size; -1 disables paging
	PerPage int `json:"per_page,omitempty" mapstructure:"per_page"`
	// Page is the 1-based page number
	Page int `json:"paged,omitempty" mapstructure:"paged"`
	// Fields restricts the selected columns
	Fields []string `json:"fields,omitempty" mapstructure:"fields"`
	// Count returns the number of matching rows instead of the rows
	Count bool `json:"count,omitempty" mapstructure:"count"`
}

// Limit returns the effective page size, or -1 when unlimited
func (a Args) Limit() int {
	switch {
	case a.PerPage < 0:
		return -1
	case a.PerPage == 0:
		return DefaultPerPage
	default:
		return a.PerPage
	}
}

// Offset returns the row offset of the requested page
func (a Args) Offset() int {
	limit := a.Limit()
	if limit < 0 || a.Page <= 1 {
		return 0
	}
	return (a.Page - 1) * limit
}

// Descending reports whether Order asks for descending order
func (a Args) Descending() bool {
	return strings.EqualFold(a.Order, "desc")
}
