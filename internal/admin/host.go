// Package admin serves the admin screens of every registered custom table
// as JSON descriptors, plus the read-only REST routes of REST-enabled tables.
package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eighteen73/custom-tables/internal/orm/hooks"
	"github.com/eighteen73/custom-tables/internal/panels"
	"github.com/eighteen73/custom-tables/internal/tables"
	"github.com/eighteen73/custom-tables/internal/web/middleware"
)

// Default route prefixes
const (
	DefaultAdminPrefix = "/admin"
	DefaultRESTPrefix  = "/rest"
)

// ActionRunner fires named actions; *hooks.Bus implements it
type ActionRunner interface {
	DoAction(ctx context.Context, name string) error
}

// Options configures a Host
type Options struct {
	AdminPrefix string
	// RESTPrefix mounts the REST routes; "-" disables them
	RESTPrefix string
	Logger     *zap.Logger
}

// Host routes admin and REST requests to the registered tables
type Host struct {
	tables  *tables.Registry
	panels  *panels.Registry
	actions ActionRunner
	opts    Options
	logger  *zap.Logger
	router  chi.Router
}

// NewHost creates a host over the table and panel registries. Actions may
// be nil, in which case no panel callbacks run before a render.
func NewHost(tbls *tables.Registry, pnls *panels.Registry, actions ActionRunner, opts Options) *Host {
	if opts.AdminPrefix == "" {
		opts.AdminPrefix = DefaultAdminPrefix
	}
	if opts.RESTPrefix == "" {
		opts.RESTPrefix = DefaultRESTPrefix
	}
	opts.AdminPrefix = "/" + strings.Trim(opts.AdminPrefix, "/")
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	h := &Host{
		tables:  tbls,
		panels:  pnls,
		actions: actions,
		opts:    opts,
		logger:  opts.Logger,
	}
	h.router = h.routes()
	return h
}

func (h *Host) routes() chi.Router {
	r := chi.NewRouter()

	r.Route(h.opts.AdminPrefix, func(r chi.Router) {
		r.Get("/", h.handleMenu)
		r.Route("/{table}", func(r chi.Router) {
			r.Get("/", h.handleList)
			r.Post("/", h.handleInsert)
			r.Get("/new", h.handleAdd)
			r.Get("/{id}", h.handleEdit)
			r.Put("/{id}", h.handleUpdate)
			r.Delete("/{id}", h.handleDelete)
		})
	})

	if h.opts.RESTPrefix != "-" {
		r.Route("/"+strings.Trim(h.opts.RESTPrefix, "/"), func(r chi.Router) {
			r.Get("/{base}", h.handleRESTList)
			r.Get("/{base}/{id}", h.handleRESTGet)
		})
	}

	return r
}

// Handler returns the routed handler wrapped with request id, logging and
// panic recovery middleware.
func (h *Host) Handler() http.Handler {
	return middleware.NewChain(
		middleware.RequestID(),
		middleware.Logging(h.logger),
		middleware.Recovery(h.logger),
	).Then(h.router)
}

// initPanels fires the panels-init action so entities (re)build their panels
func (h *Host) initPanels(ctx context.Context) error {
	if h.actions == nil {
		return nil
	}
	return h.actions.DoAction(ctx, hooks.PanelsInit)
}

// adminTable resolves the {table} URL parameter to a table shown in the UI
func (h *Host) adminTable(r *http.Request) (*tables.Table, error) {
	name := chi.URLParam(r, "table")
	t, err := h.tables.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !t.Config.ShowUI {
		return nil, fmt.Errorf("%s is hidden from the admin: %w", name, tables.ErrNotRegistered)
	}
	return t, nil
}
