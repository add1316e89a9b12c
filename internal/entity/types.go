package entity

import (
	"context"

	"github.com/eighteen73/custom-tables/internal/orm/hooks"
	"github.com/eighteen73/custom-tables/internal/panels"
	"github.com/eighteen73/custom-tables/internal/tables"
)

// Default placement of fields and metaboxes
const (
	DefaultContext = "normal"
	DefaultMetabox = "default"
)

// DirectionAsc is the sort direction that makes a sortable column ascending
const DirectionAsc = "asc"

// TableLookup resolves registered table handles
type TableLookup interface {
	Lookup(name string) (*tables.Table, error)
}

// TableRegistry registers tables and resolves their handles.
// *tables.Registry implements it.
type TableRegistry interface {
	TableLookup
	Register(ctx context.Context, name string, cfg tables.Config) (*tables.Table, error)
}

// PanelRegistry publishes fully built panels. *panels.Registry implements it.
type PanelRegistry interface {
	Publish(panel *panels.Panel) error
}

// HookBus registers filters and actions. *hooks.Bus implements it.
type HookBus interface {
	AddFilter(name string, fn hooks.FilterFunc)
	AddAction(name string, fn hooks.ActionFunc)
}

// Translator localizes panel titles. *panels.Localizer implements it.
type Translator interface {
	Translate(s string) string
}

// ColumnSpec is a list view column entry as accepted by Builder.Columns
type ColumnSpec struct {
	Column    string `json:"column" yaml:"column" mapstructure:"column"`
	Label     string `json:"label" yaml:"label" mapstructure:"label"`
	Sortable  bool   `json:"sortable" yaml:"sortable" mapstructure:"sortable"`
	Direction string `json:"direction" yaml:"direction" mapstructure:"direction"`
}

// FieldConfig is the renderer configuration of a field
type FieldConfig map[string]any

// Filter is a list view filter descriptor
type Filter map[string]any

// FilterRenderer renders one list view filter of table. The default
// renderer does nothing.
type FilterRenderer func(ctx context.Context, table string, filter Filter) error

func noopFilterRenderer(context.Context, string, Filter) error { return nil }

// Placement selects the context and metabox of a field
type Placement func(*placement)

type placement struct {
	context string
	metabox string
}

// InContext places a field or metabox in a screen context such as "side"
func InContext(context string) Placement {
	return func(p *placement) {
		if context != "" {
			p.context = context
		}
	}
}

// InMetabox places a field in the named metabox
func InMetabox(metabox string) Placement {
	return func(p *placement) {
		if metabox != "" {
			p.metabox = metabox
		}
	}
}

func resolvePlacement(opts []Placement) placement {
	p := placement{context: DefaultContext, metabox: DefaultMetabox}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
