package definitions

import (
	"github.com/eighteen73/custom-tables/internal/entity"
)

// Translator receives the file's translations. *panels.Localizer implements it.
type Translator interface {
	SetAll(locale string, translations map[string]string) error
}

// Builders creates a builder per definition, in file order
func (f *File) Builders(env entity.Environment, opts ...entity.Option) []*entity.Builder {
	builders := make([]*entity.Builder, 0, len(f.Entities))
	for _, d := range f.Entities {
		builders = append(builders, d.Builder(env, opts...))
	}
	return builders
}

// Builder configures an entity builder from the definition
func (d Definition) Builder(env entity.Environment, opts ...entity.Option) *entity.Builder {
	if d.Version > 0 {
		opts = append([]entity.Option{entity.WithVersion(d.Version)}, opts...)
	}

	b := entity.New(env, d.Table, d.Singular, d.Plural, d.Schema, opts...)

	if d.Parent != "" {
		b.Parent(d.Parent)
	}
	if d.ShowUI != nil {
		b.ShowUI(*d.ShowUI)
	}
	if d.ShowInREST {
		b.ShowInREST(true)
	}
	if d.SupportsMeta {
		b.SupportsMeta()
	}
	if len(d.Columns) > 0 {
		b.Columns(d.Columns)
	}

	for _, m := range d.Metaboxes {
		if m.Label != "" {
			b.Metabox(m.Name, m.Label, entity.InContext(m.Context))
		}
		if len(m.Fields) > 0 {
			b.Fields(fieldConfigs(m.Fields), entity.InContext(m.Context), entity.InMetabox(m.Name))
		}
	}
	if len(d.Fields) > 0 {
		b.Fields(fieldConfigs(d.Fields))
	}

	if len(d.Searchable) > 0 {
		b.Searchable(d.Searchable)
	}
	if len(d.Defaults) > 0 {
		b.Defaults(d.Defaults)
	}
	if len(d.Filters) > 0 {
		filters := make([]entity.Filter, len(d.Filters))
		for i, f := range d.Filters {
			filters[i] = entity.Filter(f)
		}
		b.Filters(filters)
	}

	return b
}

// ApplyTranslations loads the file's translations into t
func (f *File) ApplyTranslations(t Translator) error {
	for locale, translations := range f.Translations {
		if err := t.SetAll(locale, translations); err != nil {
			return err
		}
	}
	return nil
}

func fieldConfigs(fields []map[string]any) []entity.FieldConfig {
	configs := make([]entity.FieldConfig, len(fields))
	for i, f := range fields {
		configs[i] = entity.FieldConfig(f)
	}
	return configs
}
