package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/eighteen73/custom-tables/internal/entity"
	"github.com/eighteen73/custom-tables/internal/orm/codegen"
	"github.com/eighteen73/custom-tables/internal/orm/hooks"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
	"github.com/eighteen73/custom-tables/internal/panels"
	"github.com/eighteen73/custom-tables/internal/tables"
)

type fixture struct {
	host   *Host
	tables *tables.Registry
	bus    *hooks.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	bus := hooks.NewBus()
	reg := tables.NewRegistry(db, codegen.SQLite{}, bus, nil)
	pr := panels.NewRegistry()
	env := entity.Environment{Tables: reg, Panels: pr, Hooks: bus}

	events := entity.New(env, "events", "Event", "Events", schema.Declarative(
		&schema.Column{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true},
		&schema.Column{Name: "title", Type: schema.TypeVarchar, Length: 120},
		&schema.Column{Name: "status", Type: schema.TypeVarchar, Length: 20, Nullable: true},
		&schema.Column{Name: "seats", Type: schema.TypeInt, Nullable: true},
	)).
		ShowInREST(true).
		Column("title", "Title", true, "desc").
		Column("seats", "Seats", true, "asc").
		Column("status", "Status", false, "").
		Field("title", entity.FieldConfig{"type": "text"}).
		Field("status", entity.FieldConfig{"type": "select"}, entity.InContext("side"), entity.InMetabox("publish")).
		Defaults(map[string]any{"status": "draft"})
	require.NoError(t, events.Init(context.Background()))

	hidden := entity.New(env, "audit", "Audit", "Audits", schema.Declarative(
		&schema.Column{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true},
	)).ShowUI(false)
	require.NoError(t, hidden.Init(context.Background()))

	host := NewHost(reg, pr, bus, Options{})
	return &fixture{host: host, tables: reg, bus: bus}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.host.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (f *fixture) insert(t *testing.T, body string) float64 {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/admin/events", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]any](t, rec)["id"].(float64)
}

func TestHost_Menu(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decode[map[string]map[string][]MenuEntry](t, rec)
	assert.Equal(t, []MenuEntry{{Table: "events", Title: "Events", Path: "/admin/events"}}, body["menu"][""])
}

func TestHost_AddViewFiresPanelsInit(t *testing.T) {
	f := newFixture(t)
	fired := 0
	f.bus.AddAction(hooks.PanelsInit, func(context.Context) error {
		fired++
		return nil
	})

	rec := f.do(t, http.MethodGet, "/admin/events/new", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, fired)

	view := decode[EditView](t, rec)
	assert.Equal(t, "Add Event", view.Title)
	assert.Equal(t, 2, view.Columns)
	assert.Equal(t, "draft", view.Data["status"])
	require.Len(t, view.Panels, 2)
	assert.Equal(t, "events-normal-default", view.Panels[0].ID)
	assert.Equal(t, "events-side-publish", view.Panels[1].ID)
	assert.Equal(t, "side", view.Panels[1].Context)
	require.Len(t, view.Panels[0].Fields, 1)
	assert.Equal(t, "title", view.Panels[0].Fields[0]["id"])
	assert.Equal(t, "Title", view.Panels[0].Fields[0]["name"])
	assert.Equal(t, "text", view.Panels[0].Fields[0]["type"])

	f.do(t, http.MethodGet, "/admin/events/new", "")
	assert.Equal(t, 2, fired)
}

func TestHost_PanelsInitFailure(t *testing.T) {
	f := newFixture(t)
	f.bus.AddAction(hooks.PanelsInit, func(context.Context) error {
		return errors.New("boom")
	})

	rec := f.do(t, http.MethodGet, "/admin/events/new", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHost_RecordLifecycle(t *testing.T) {
	f := newFixture(t)

	id := f.insert(t, `{"title":"Launch","seats":12}`)

	rec := f.do(t, http.MethodGet, "/admin/events/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[EditView](t, rec)
	assert.Equal(t, "Edit Event", view.Title)
	assert.Equal(t, id, view.ID)
	assert.Equal(t, "Launch", view.Data["title"])
	assert.Equal(t, "draft", view.Data["status"])
	assert.EqualValues(t, 12, view.Data["seats"])

	rec = f.do(t, http.MethodPut, "/admin/events/1", `{"status":"published"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "published", decode[map[string]any](t, rec)["status"])

	rec = f.do(t, http.MethodDelete, "/admin/events/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/events/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHost_WriteErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"malformed body", http.MethodPost, "/admin/events", `{"title":`, http.StatusBadRequest},
		{"null body", http.MethodPost, "/admin/events", `null`, http.StatusBadRequest},
		{"unknown column", http.MethodPost, "/admin/events", `{"title":"x","nope":1}`, http.StatusBadRequest},
		{"missing required column", http.MethodPost, "/admin/events", `{"seats":1}`, http.StatusUnprocessableEntity},
		{"update missing record", http.MethodPut, "/admin/events/99", `{"title":"x"}`, http.StatusNotFound},
		{"empty update", http.MethodPut, "/admin/events/99", `{}`, http.StatusBadRequest},
		{"delete missing record", http.MethodDelete, "/admin/events/99", "", http.StatusNotFound},
		{"unknown table", http.MethodPost, "/admin/nope", `{}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHost_ListView(t *testing.T) {
	f := newFixture(t)
	f.insert(t, `{"title":"Alpha","seats":30}`)
	f.insert(t, `{"title":"Bravo","seats":10}`)
	f.insert(t, `{"title":"Charlie","seats":20}`)

	rec := f.do(t, http.MethodGet, "/admin/events", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[map[string]any](t, rec)
	assert.Equal(t, "Events", view["title"])
	assert.Equal(t, "title", view["orderby"])
	assert.Equal(t, "desc", view["order"])
	assert.EqualValues(t, 40, view["per_page"])
	assert.EqualValues(t, 3, view["total"])

	items := view["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "Charlie", items[0].(map[string]any)["title"])

	columns := view["columns"].([]any)
	require.Len(t, columns, 3)
	assert.Equal(t, []any{"title", false}, columns[0].(map[string]any)["sortable"])
	assert.Nil(t, columns[2].(map[string]any)["sortable"])
}

func TestHost_ListViewParams(t *testing.T) {
	f := newFixture(t)
	f.insert(t, `{"title":"Alpha","seats":30}`)
	f.insert(t, `{"title":"Bravo","seats":10}`)
	f.insert(t, `{"title":"Alpine","seats":20}`)

	rec := f.do(t, http.MethodGet, "/admin/events?orderby=seats", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[ListView](t, rec)
	assert.Equal(t, "asc", view.Order)
	assert.Equal(t, "Bravo", view.Items[0]["title"])

	rec = f.do(t, http.MethodGet, "/admin/events?s=alp&orderby=seats&order=desc", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decode[ListView](t, rec)
	assert.EqualValues(t, 2, view.Total)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Alpha", view.Items[0]["title"])

	rec = f.do(t, http.MethodGet, "/admin/events?paged=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[ListView](t, rec)
	assert.Equal(t, 2, view.Page)
	assert.Empty(t, view.Items)
	assert.EqualValues(t, 3, view.Total)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/admin/events?orderby=status", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/admin/events?paged=zero", "").Code)
}

func TestHost_HiddenTables(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/admin/audit", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/admin/audit/new", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/admin/missing", "").Code)
}

func TestHost_REST(t *testing.T) {
	f := newFixture(t)
	f.insert(t, `{"title":"Alpha","seats":30}`)

	rec := f.do(t, http.MethodGet, "/rest/events", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	items := decode[[]map[string]any](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "Alpha", items[0]["title"])

	rec = f.do(t, http.MethodGet, "/rest/events/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alpha", decode[map[string]any](t, rec)["title"])

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/rest/events/2", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/rest/audit", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/rest/events?page=x", "").Code)
}

func TestHost_RESTDisabled(t *testing.T) {
	f := newFixture(t)
	host := NewHost(f.tables, nil, nil, Options{AdminPrefix: "manage/", RESTPrefix: "-"})

	rec := httptest.NewRecorder()
	host.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rest/events", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	host.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manage/events/new", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[EditView](t, rec).Panels)
}

func TestListOrder(t *testing.T) {
	list := tables.ListView{Columns: []tables.ListColumn{
		{Name: "status", Label: "Status"},
		{Name: "title", Label: "Title", Sortable: &tables.Sort{Column: "title", Ascending: true}},
	}}

	orderBy, order, err := listOrder(list, "", "")
	require.NoError(t, err)
	assert.Equal(t, "title", orderBy)
	assert.Equal(t, "asc", order)

	orderBy, order, err = listOrder(list, "title", "desc")
	require.NoError(t, err)
	assert.Equal(t, "title", orderBy)
	assert.Equal(t, "desc", order)

	_, _, err = listOrder(list, "status", "")
	assert.Error(t, err)

	orderBy, _, err = listOrder(tables.ListView{}, "", "")
	require.NoError(t, err)
	assert.Empty(t, orderBy)
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, int64(42), recordID("42"))
	assert.Equal(t, "abc-1", recordID("abc-1"))
}
