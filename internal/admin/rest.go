package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eighteen73/custom-tables/internal/orm/crud"
	"github.com/eighteen73/custom-tables/internal/orm/query"
	"github.com/eighteen73/custom-tables/internal/web/response"
)

func (h *Host) handleRESTList(w http.ResponseWriter, r *http.Request) {
	t, err := h.tables.LookupREST(chi.URLParam(r, "base"))
	if err != nil {
		response.RenderStoreError(w, err)
		return
	}

	params := r.URL.Query()
	args := query.Args{
		Search:  params.Get("search"),
		OrderBy: params.Get("orderby"),
		Order:   params.Get("order"),
	}
	for key, target := range map[string]*int{"per_page": &args.PerPage, "page": &args.Page} {
		raw := params.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RenderBadRequest(w, "invalid "+key)
			return
		}
		*target = n
	}

	result, err := t.Store.Query(r.Context(), args, crud.OutputAssoc)
	if err != nil {
		h.storeError(w, t.Name, err)
		return
	}

	items := result.Records()
	if items == nil {
		items = []crud.Record{}
	}
	response.RenderJSON(w, http.StatusOK, items)
}

func (h *Host) handleRESTGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.tables.LookupREST(chi.URLParam(r, "base"))
	if err != nil {
		response.RenderStoreError(w, err)
		return
	}

	record, err := t.Store.Get(r.Context(), recordID(chi.URLParam(r, "id")))
	if err != nil {
		h.storeError(w, t.Name, err)
		return
	}
	response.RenderJSON(w, http.StatusOK, record)
}
