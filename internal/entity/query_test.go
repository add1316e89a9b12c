package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/eighteen73/custom-tables/internal/orm/crud"
	"github.com/eighteen73/custom-tables/internal/orm/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_GetBeforeInit(t *testing.T) {
	env, _, _, _ := sqliteEnv(t)
	b := New(env, "events", "Event", "Events", eventsSchema())

	_, err := b.Get(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotRegistered))

	_, err = b.Find(context.Background(), query.Args{}, crud.OutputObject)
	assert.True(t, errors.Is(err, ErrNotRegistered))
}

func TestQuery_WithoutLookup(t *testing.T) {
	_, err := NewQuery(nil, "events").Get(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNotRegistered))
}

func TestQuery_DelegatesToStore(t *testing.T) {
	env, _, _, _ := sqliteEnv(t)
	ctx := context.Background()

	b := New(env, "events", "Event", "Events", eventsSchema()).
		Defaults(map[string]any{"status": "draft"}).
		Searchable([]string{"title"})
	require.NoError(t, b.Init(ctx))

	store := b.Handle().Store
	assert.Equal(t, crud.Record{"status": "draft"}, store.DefaultData())

	id, err := store.Insert(ctx, crud.Record{"title": "Summer Gala", "author": "x"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, crud.Record{"title": "Winter Fair", "status": "published"})
	require.NoError(t, err)

	rec, err := b.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Summer Gala", rec["title"])
	assert.Equal(t, "draft", rec["status"])

	res, err := b.Find(ctx, query.Args{Search: "gala"}, crud.OutputAssoc)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Summer Gala", res.Rows[0]["title"])

	res, err = b.Find(ctx, query.Args{Where: map[string]any{"status": "published"}}, crud.OutputObject)
	require.NoError(t, err)
	require.Len(t, res.Objects, 1)
	title, ok := res.Objects[0].Get("title")
	require.True(t, ok)
	assert.Equal(t, "Winter Fair", title)

	res, err = b.Find(ctx, query.Args{Count: true}, crud.OutputObject)
	require.NoError(t, err)
	require.NotNil(t, res.Count)
	assert.EqualValues(t, 2, *res.Count)

	_, err = b.Get(ctx, 999)
	assert.True(t, crud.IsNotFound(err))
}
