package hooks

import (
	"context"
	"fmt"
	"sync"
)

// Bus holds registered filters and actions by hook name.
// Callbacks run in registration order.
type Bus struct {
	mu      sync.RWMutex
	filters map[string][]FilterFunc
	actions map[string][]ActionFunc
}

// NewBus creates an empty hook bus
func NewBus() *Bus {
	return &Bus{
		filters: make(map[string][]FilterFunc),
		actions: make(map[string][]ActionFunc),
	}
}

// AddFilter registers a filter under name
func (b *Bus) AddFilter(name string, fn FilterFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters[name] = append(b.filters[name], fn)
}

// HasFilter returns true if any filter is registered under name
func (b *Bus) HasFilter(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.filters[name]) > 0
}

// ApplyFilters passes value through every filter registered under name
func (b *Bus) ApplyFilters(name string, value any) any {
	b.mu.RLock()
	filters := append([]FilterFunc(nil), b.filters[name]...)
	b.mu.RUnlock()

	for _, fn := range filters {
		value = fn(value)
	}
	return value
}

// AddAction registers an action callback under name
func (b *Bus) AddAction(name string, fn ActionFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actions[name] = append(b.actions[name], fn)
}

// HasAction returns true if any action is registered under name
func (b *Bus) HasAction(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.actions[name]) > 0
}

// DoAction fires every action registered under name.
// The first failing callback stops the chain.
func (b *Bus) DoAction(ctx context.Context, name string) error {
	b.mu.RLock()
	actions := append([]ActionFunc(nil), b.actions[name]...)
	b.mu.RUnlock()

	for i, fn := range actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx); err != nil {
			return fmt.Errorf("action %s (callback %d) failed: %w", name, i, err)
		}
	}
	return nil
}

// Clear removes every filter and action registered under name
func (b *Bus) Clear(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.filters, name)
	delete(b.actions, name)
}

// ApplyMap runs a map-valued filter. A filter returning a non-map value
// yields the original input.
func ApplyMap(b *Bus, name string, value map[string]any) map[string]any {
	if out, ok := b.ApplyFilters(name, value).(map[string]any); ok {
		return out
	}
	return value
}

// ApplyStrings runs a string-slice filter. A filter returning a non-slice
// value yields the original input.
func ApplyStrings(b *Bus, name string, value []string) []string {
	if out, ok := b.ApplyFilters(name, value).([]string); ok {
		return out
	}
	return value
}
