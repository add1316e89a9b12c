package panels

import (
	"fmt"
	"sync"
)

// Registry holds the panels created by rendering callbacks
type Registry struct {
	mu     sync.RWMutex
	panels map[string]*Panel
	order  []string
}

// NewRegistry creates an empty panel registry
func NewRegistry() *Registry {
	return &Registry{panels: make(map[string]*Panel)}
}

// CreatePanel creates an empty panel and publishes it
func (r *Registry) CreatePanel(opts Options) (*Panel, error) {
	panel, err := NewPanel(opts)
	if err != nil {
		return nil, err
	}
	if err := r.Publish(panel); err != nil {
		return nil, err
	}
	return panel, nil
}

// Publish makes panel visible to readers. A panel with an id that already
// exists replaces the earlier one in place, so rendering the same
// definitions again produces the same panels. Fields are meant to be added
// before publishing.
func (r *Registry) Publish(panel *Panel) error {
	if panel == nil || panel.opts.ID == "" {
		return ErrMissingPanelID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.panels[panel.opts.ID]; !exists {
		r.order = append(r.order, panel.opts.ID)
	}
	r.panels[panel.opts.ID] = panel
	return nil
}

// Get returns the panel with the given id
func (r *Registry) Get(id string) (*Panel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	panel, ok := r.panels[id]
	if !ok {
		return nil, fmt.Errorf("panel %s not found", id)
	}
	return panel, nil
}

// ForObjectType returns the panels shown for objectType in creation order
func (r *Registry) ForObjectType(objectType string) []*Panel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var panels []*Panel
	for _, id := range r.order {
		if p := r.panels[id]; p.AppliesTo(objectType) {
			panels = append(panels, p)
		}
	}
	return panels
}

// Len returns the number of panels
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.panels)
}
