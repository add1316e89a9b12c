// Package tables is the process-wide registry of custom tables. Registering
// a table validates its schema, brings the database table up to the declared
// version and publishes a handle whose store serves record operations.
package tables

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/eighteen73/custom-tables/internal/orm/codegen"
	"github.com/eighteen73/custom-tables/internal/orm/crud"
	"github.com/eighteen73/custom-tables/internal/orm/migrate"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
)

var (
	// ErrNotRegistered is returned when a table has no registration
	ErrNotRegistered = errors.New("table not registered")

	// ErrDuplicateRegistration is returned when a table name is registered twice
	ErrDuplicateRegistration = errors.New("table already registered")
)

// Table is the handle of a registered custom table
type Table struct {
	Name    string
	Config  Config
	Store   *crud.Store
	Outcome *migrate.Outcome
}

// Registry holds every registered table of the process
type Registry struct {
	mu       sync.RWMutex
	db       *sql.DB
	dialect  codegen.Dialect
	migrator *migrate.Migrator
	filters  crud.FilterApplier
	logger   *zap.Logger
	tables   map[string]*Table
	order    []string
}

// NewRegistry creates a table registry backed by db. Filters, usually the
// hook bus, supplies the default-data and search-fields filters to stores.
func NewRegistry(db *sql.DB, dialect codegen.Dialect, filters crud.FilterApplier, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		db:       db,
		dialect:  dialect,
		migrator: migrate.NewMigrator(db, dialect, logger),
		filters:  filters,
		logger:   logger,
		tables:   make(map[string]*Table),
	}
}

// Register validates cfg, migrates the table to cfg.Version and publishes
// its handle. A name can be registered once per registry.
func (r *Registry) Register(ctx context.Context, name string, cfg Config) (*Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tables[name]; exists {
		return nil, fmt.Errorf("%s: %w", name, ErrDuplicateRegistration)
	}

	if err := schema.Validate(name, cfg.Schema); err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults(name)
	if err := r.checkRESTBase(name, cfg); err != nil {
		return nil, err
	}

	outcome, err := r.migrator.Apply(ctx, name, cfg.Version, cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate table %s: %w", name, err)
	}

	meta := cfg.HasSupport(SupportsMeta)
	if meta {
		if err := r.migrator.EnsureMeta(ctx, name); err != nil {
			return nil, err
		}
	}

	table := &Table{
		Name:   name,
		Config: cfg,
		Store: crud.NewStore(r.db, r.dialect, crud.Options{
			Table:      name,
			PrimaryKey: cfg.PrimaryKey,
			Schema:     cfg.Schema,
			Meta:       meta,
			Filters:    r.filters,
		}),
		Outcome: outcome,
	}

	r.tables[name] = table
	r.order = append(r.order, name)

	r.logger.Info("table registered",
		zap.String("table", name),
		zap.Int("version", cfg.Version),
		zap.Bool("meta", meta),
		zap.String("migration", string(outcome.Action)))

	return table, nil
}

func (r *Registry) checkRESTBase(name string, cfg Config) error {
	if !cfg.ShowInREST {
		return nil
	}
	for _, t := range r.tables {
		if t.Config.ShowInREST && t.Config.RESTBase == cfg.RESTBase {
			return &schema.ConfigurationError{
				Table:    name,
				Problems: []string{fmt.Sprintf("rest base %q is already used by %s", cfg.RESTBase, t.Name)},
			}
		}
	}
	return nil
}

// Lookup returns the handle of a registered table
func (r *Registry) Lookup(name string) (*Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	return table, nil
}

// LookupREST returns the REST-enabled table published under base
func (r *Registry) LookupREST(base string) (*Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tables {
		if t.Config.ShowInREST && t.Config.RESTBase == base {
			return t, nil
		}
	}
	return nil, fmt.Errorf("rest base %s: %w", base, ErrNotRegistered)
}

// Unregister removes a table handle. The database table is left untouched.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[name]; !ok {
		return false
	}
	delete(r.tables, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// All returns the registered tables in registration order
func (r *Registry) All() []*Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Table, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.tables[name])
	}
	return all
}

// Menu groups the tables shown in the admin UI by parent slug. Tables
// without a parent are listed under the empty slug.
func (r *Registry) Menu() map[string][]*Table {
	menu := make(map[string][]*Table)
	for _, t := range r.All() {
		if !t.Config.ShowUI {
			continue
		}
		parent := t.Config.Views.List.ParentSlug
		menu[parent] = append(menu[parent], t)
	}
	for _, group := range menu {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Config.Views.List.MenuTitle < group[j].Config.Views.List.MenuTitle
		})
	}
	return menu
}

// IsNotRegistered reports whether err is a missing registration
func IsNotRegistered(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}

// IsDuplicateRegistration reports whether err is a repeated registration
func IsDuplicateRegistration(err error) bool {
	return errors.Is(err, ErrDuplicateRegistration)
}
