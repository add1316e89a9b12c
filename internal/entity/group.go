package entity

// FieldGroup is a metabox: a labelled, ordered set of fields shown in one
// screen context.
type FieldGroup struct {
	Context string
	Name    string
	Label   string

	names   []string
	configs map[string]FieldConfig
}

// Field is a field of a group with its configuration
type Field struct {
	Name   string
	Config FieldConfig
}

func newFieldGroup(context, name, label string) *FieldGroup {
	return &FieldGroup{
		Context: context,
		Name:    name,
		Label:   label,
		configs: make(map[string]FieldConfig),
	}
}

// set stores a field configuration, replacing any earlier one for name
func (g *FieldGroup) set(name string, cfg FieldConfig) {
	if _, ok := g.configs[name]; !ok {
		g.names = append(g.names, name)
	}
	g.configs[name] = cfg
}

// Fields returns the group's fields in insertion order
func (g *FieldGroup) Fields() []Field {
	fields := make([]Field, 0, len(g.names))
	for _, name := range g.names {
		fields = append(fields, Field{Name: name, Config: g.configs[name]})
	}
	return fields
}

// Len returns the number of fields
func (g *FieldGroup) Len() int {
	return len(g.names)
}

// PanelID returns the id of the panel rendered for the group
func (g *FieldGroup) PanelID(table string) string {
	return table + "-" + g.Context + "-" + g.Name
}

func (g *FieldGroup) clone() *FieldGroup {
	c := newFieldGroup(g.Context, g.Name, g.Label)
	c.names = append(c.names, g.names...)
	for k, v := range g.configs {
		c.configs[k] = v
	}
	return c
}

// groupSet is the ordered get-or-create map of field groups keyed by
// (context, name)
type groupSet struct {
	groups []*FieldGroup
}

func (s *groupSet) find(context, name string) *FieldGroup {
	for _, g := range s.groups {
		if g.Context == context && g.Name == name {
			return g
		}
	}
	return nil
}

func (s *groupSet) getOrCreate(context, name string, label func() string) *FieldGroup {
	if g := s.find(context, name); g != nil {
		return g
	}
	g := newFieldGroup(context, name, label())
	s.groups = append(s.groups, g)
	return g
}
