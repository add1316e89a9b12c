package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eighteen73/custom-tables/internal/orm/crud"
	"github.com/eighteen73/custom-tables/internal/web/response"
)

const maxBodyBytes = 1 << 20

func (h *Host) handleInsert(w http.ResponseWriter, r *http.Request) {
	t, err := h.adminTable(r)
	if err != nil {
		response.RenderStoreError(w, err)
		return
	}

	data, err := decodeRecord(r)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}

	id, err := t.Store.Insert(r.Context(), data)
	if err != nil {
		h.storeError(w, t.Name, err)
		return
	}

	response.RenderJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Host) handleUpdate(w http.ResponseWriter, r *http.Request) {
	t, err := h.adminTable(r)
	if err != nil {
		response.RenderStoreError(w, err)
		return
	}

	data, err := decodeRecord(r)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}

	id := recordID(chi.URLParam(r, "id"))
	if err := t.Store.Update(r.Context(), id, data); err != nil {
		h.storeError(w, t.Name, err)
		return
	}

	record, err := t.Store.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, t.Name, err)
		return
	}
	response.RenderJSON(w, http.StatusOK, record)
}

func (h *Host) handleDelete(w http.ResponseWriter, r *http.Request) {
	t, err := h.adminTable(r)
	if err != nil {
		response.RenderStoreError(w, err)
		return
	}

	if err := t.Store.Delete(r.Context(), recordID(chi.URLParam(r, "id"))); err != nil {
		h.storeError(w, t.Name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeRecord reads a JSON object body. Whole numbers decode to int64.
func decodeRecord(r *http.Request) (crud.Record, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("body must be a JSON object")
	}

	record := make(crud.Record, len(raw))
	for k, v := range raw {
		record[k] = normalizeNumber(v)
	}
	return record, nil
}

func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
