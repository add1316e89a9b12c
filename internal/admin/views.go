package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eighteen73/custom-tables/internal/orm/crud"
	"github.com/eighteen73/custom-tables/internal/orm/query"
	"github.com/eighteen73/custom-tables/internal/panels"
	"github.com/eighteen73/custom-tables/internal/tables"
	"github.com/eighteen73/custom-tables/internal/web/response"
)

// MenuEntry is one table in the admin menu
type MenuEntry struct {
	Table string `json:"table"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// ListView is the list screen of a table
type ListView struct {
	Table   string              `json:"table"`
	Title   string              `json:"title"`
	Columns []tables.ListColumn `json:"columns"`
	OrderBy string              `json:"orderby,omitempty"`
	Order   string              `json:"order,omitempty"`
	Search  string              `json:"s,omitempty"`
	Page    int                 `json:"paged"`
	PerPage int                 `json:"per_page"`
	Total   int64               `json:"total"`
	Items   []crud.Record       `json:"items"`
}

// EditView is the add or edit screen of a table
type EditView struct {
	Table   string        `json:"table"`
	Title   string        `json:"title"`
	Columns int           `json:"columns"`
	ID      any           `json:"id,omitempty"`
	Data    crud.Record   `json:"data"`
	Panels  []PanelLayout `json:"panels"`
}

// PanelLayout describes a panel and its fields
type PanelLayout struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Context string         `json:"context"`
	Fields  []panels.Field `json:"fields"`
}

func (h *Host) handleMenu(w http.ResponseWriter, r *http.Request) {
	menu := make(map[string][]MenuEntry)
	for parent, group := range h.tables.Menu() {
		for _, t := range group {
			menu[parent] = append(menu[parent], MenuEntry{
				Table: t.Name,
				Title: t.Config.Views.List.MenuTitle,
				Path:  h.opts.AdminPrefix + "/" + t.Name,
			})
		}
	}
	response.RenderJSON(w, http.StatusOK, map[string]any{"menu": menu})
}

func (h *Host) handleList(w http.ResponseWriter, r *http.Request) {
	t, err := h.adminTable(r)
	if err != nil {
		response.RenderStoreError(w, err)
		return
	}

	list := t.Config.Views.List
	params := r.URL.Query()
	args := query.Args{
		Search:  params.Get("s"),
		PerPage: list.PerPage,
		Page:    1,
	}

	if paged := params.Get("paged"); paged != "" {
		page, err := strconv.Atoi(paged)
		if err != nil || page < 1 {
			response.RenderBadRequest(w, fmt.Sprintf("invalid page %q", paged))
			return
		}
		args.Page = page
	}

	args.OrderBy, args.Order, err = listOrder(list, params.Get("orderby"), params.Get("order"))
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}

	result, err := t.Store.Query(r.Context(), args, crud.OutputAssoc)
	if err != nil {
		h.storeError(w, t.Name, err)
		return
	}

	countArgs := args
	countArgs.Count = true
	count, err := t.Store.Query(r.Context(), countArgs, crud.OutputAssoc)
	if err != nil {
		h.storeError(w, t.Name, err)
		return
	}

	items := result.Records()
	if items == nil {
		items = []crud.Record{}
	}

	response.RenderJSON(w, http.StatusOK, ListView{
		Table:   t.Name,
		Title:   t.Config.Plural,
		Columns: list.Columns,
		OrderBy: args.OrderBy,
		Order:   args.Order,
		Search:  args.Search,
		Page:    args.Page,
		PerPage: args.Limit(),
		Total:   *count.Count,
		Items:   items,
	})
}

// listOrder picks the sort column of a list request. Only sortable columns
// may be requested; without a request the first sortable column is used in
// its declared direction.
func listOrder(list tables.ListView, orderBy, order string) (string, string, error) {
	if orderBy == "" {
		for _, col := range list.Columns {
			if col.Sortable == nil {
				continue
			}
			if order == "" {
				order = "asc"
				if !col.Sortable.Ascending {
					order = "desc"
				}
			}
			return col.Sortable.Column, order, nil
		}
		return "", order, nil
	}

	col, ok := list.Column(orderBy)
	if !ok || col.Sortable == nil {
		return "", "", fmt.Errorf("column %q is not sortable", orderBy)
	}
	if order == "" {
		order = "asc"
		if !col.Sortable.Ascending {
			order = "desc"
		}
	}
	return col.Sortable.Column, order, nil
}

func (h *Host) handleAdd(w http.ResponseWriter, r *http.Request) {
	t, err := h.adminTable(r)
	if err != nil {
		response.RenderStoreError(w, err)
		return
	}

	layout, err := h.panelLayout(r, t.Name)
	if err != nil {
		h.renderFailed(w, t.Name, err)
		return
	}

	response.RenderJSON(w, http.StatusOK, EditView{
		Table:   t.Name,
		Title:   "Add " + t.Config.Singular,
		Columns: t.Config.Views.Add.Columns,
		Data:    t.Store.DefaultData(),
		Panels:  layout,
	})
}

func (h *Host) handleEdit(w http.ResponseWriter, r *http.Request) {
	t, err := h.adminTable(r)
	if err != nil {
		response.RenderStoreError(w, err)
		return
	}

	id := recordID(chi.URLParam(r, "id"))
	record, err := t.Store.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, t.Name, err)
		return
	}

	layout, err := h.panelLayout(r, t.Name)
	if err != nil {
		h.renderFailed(w, t.Name, err)
		return
	}

	response.RenderJSON(w, http.StatusOK, EditView{
		Table:   t.Name,
		Title:   "Edit " + t.Config.Singular,
		Columns: t.Config.Views.Add.Columns,
		ID:      id,
		Data:    record,
		Panels:  layout,
	})
}

// panelLayout fires panels-init and collects the panels of table
func (h *Host) panelLayout(r *http.Request, table string) ([]PanelLayout, error) {
	if err := h.initPanels(r.Context()); err != nil {
		return nil, err
	}

	layout := []PanelLayout{}
	if h.panels == nil {
		return layout, nil
	}
	for _, p := range h.panels.ForObjectType(table) {
		opts := p.Options()
		layout = append(layout, PanelLayout{
			ID:      opts.ID,
			Title:   opts.Title,
			Context: opts.Context,
			Fields:  p.Fields(),
		})
	}
	return layout, nil
}

func (h *Host) renderFailed(w http.ResponseWriter, table string, err error) {
	h.logger.Error("panel init failed", zap.String("table", table), zap.Error(err))
	response.RenderError(w, http.StatusInternalServerError, errors.New("failed to build panels"))
}

func (h *Host) storeError(w http.ResponseWriter, table string, err error) {
	if response.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error("store operation failed", zap.String("table", table), zap.Error(err))
	}
	response.RenderStoreError(w, err)
}

// recordID converts a URL id to an integer when it is numeric
func recordID(raw string) any {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id
	}
	return raw
}
