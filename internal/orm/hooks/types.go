// Package hooks provides the named filter and action hooks that entities
// use to publish their defaults, search fields and panel callbacks.
package hooks

import "context"

// FilterFunc transforms a hook value and returns the new value
type FilterFunc func(value any) any

// ActionFunc is a callback fired by a named event
type ActionFunc func(ctx context.Context) error

// PanelsInit is the action fired by the host each time admin panels are built.
// Callbacks may run many times per process and must be safe to repeat.
const PanelsInit = "panels-init"

// DefaultDataFilter returns the filter name that supplies default record data
func DefaultDataFilter(table string) string {
	return "default-data:" + table
}

// SearchFieldsFilter returns the filter name that supplies searchable columns
func SearchFieldsFilter(table string) string {
	return "search-fields:" + table
}
