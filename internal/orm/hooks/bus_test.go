package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_ApplyFiltersInOrder(t *testing.T) {
	bus := NewBus()
	bus.AddFilter("greeting", func(v any) any { return v.(string) + " world" })
	bus.AddFilter("greeting", func(v any) any { return v.(string) + "!" })

	assert.True(t, bus.HasFilter("greeting"))
	assert.Equal(t, "hello world!", bus.ApplyFilters("greeting", "hello"))
}

func TestBus_ApplyFiltersWithoutFilters(t *testing.T) {
	bus := NewBus()

	assert.False(t, bus.HasFilter("nothing"))
	assert.Equal(t, 7, bus.ApplyFilters("nothing", 7))
}

func TestApplyMap(t *testing.T) {
	bus := NewBus()
	name := DefaultDataFilter("events")
	bus.AddFilter(name, func(v any) any {
		in := v.(map[string]any)
		in["status"] = "draft"
		return in
	})

	out := ApplyMap(bus, name, map[string]any{})
	assert.Equal(t, map[string]any{"status": "draft"}, out)

	bus.AddFilter(name, func(v any) any { return "not a map" })
	in := map[string]any{"a": 1}
	assert.Equal(t, in, ApplyMap(bus, name, in))
}

func TestApplyStrings(t *testing.T) {
	bus := NewBus()
	name := SearchFieldsFilter("events")
	bus.AddFilter(name, func(v any) any { return append(v.([]string), "title") })

	assert.Equal(t, []string{"slug", "title"}, ApplyStrings(bus, name, []string{"slug"}))
}

func TestBus_DoAction(t *testing.T) {
	bus := NewBus()
	var calls []int
	bus.AddAction(PanelsInit, func(ctx context.Context) error {
		calls = append(calls, 1)
		return nil
	})
	bus.AddAction(PanelsInit, func(ctx context.Context) error {
		calls = append(calls, 2)
		return nil
	})

	require.NoError(t, bus.DoAction(context.Background(), PanelsInit))
	require.NoError(t, bus.DoAction(context.Background(), PanelsInit))
	assert.Equal(t, []int{1, 2, 1, 2}, calls)
}

func TestBus_DoActionStopsOnError(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	called := false
	bus.AddAction("evt", func(ctx context.Context) error { return boom })
	bus.AddAction("evt", func(ctx context.Context) error {
		called = true
		return nil
	})

	err := bus.DoAction(context.Background(), "evt")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestBus_DoActionCancelledContext(t *testing.T) {
	bus := NewBus()
	bus.AddAction("evt", func(ctx context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.DoAction(ctx, "evt"), context.Canceled)
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus()
	bus.AddFilter("x", func(v any) any { return v })
	bus.AddAction("x", func(ctx context.Context) error { return nil })

	bus.Clear("x")
	assert.False(t, bus.HasFilter("x"))
	assert.False(t, bus.HasAction("x"))
}

func TestHookNames(t *testing.T) {
	assert.Equal(t, "default-data:events", DefaultDataFilter("events"))
	assert.Equal(t, "search-fields:events", SearchFieldsFilter("events"))
}
