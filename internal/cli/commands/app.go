package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eighteen73/custom-tables/internal/cli/config"
	"github.com/eighteen73/custom-tables/internal/database"
	"github.com/eighteen73/custom-tables/internal/definitions"
	"github.com/eighteen73/custom-tables/internal/entity"
	"github.com/eighteen73/custom-tables/internal/logging"
	"github.com/eighteen73/custom-tables/internal/orm/hooks"
	"github.com/eighteen73/custom-tables/internal/panels"
	"github.com/eighteen73/custom-tables/internal/tables"
)

// app is the wired process: database, registries, hook bus and the
// entity builders declared in the definitions file.
type app struct {
	config    *config.Config
	logger    *zap.Logger
	db        *sql.DB
	bus       *hooks.Bus
	tables    *tables.Registry
	panels    *panels.Registry
	localizer *panels.Localizer
	defs      *definitions.File
	builders  []*entity.Builder
}

// newApp loads the configuration and definitions in dir and opens the database
func newApp(ctx context.Context, dir string) (*app, error) {
	cfg, err := config.LoadFrom(dir)
	if err != nil {
		return nil, err
	}
	logger := logging.Must(cfg.Log)

	defs, err := definitions.LoadFile(cfg.Entities.Path)
	if err != nil {
		return nil, err
	}

	localizer, err := panels.NewLocalizer(cfg.Locale)
	if err != nil {
		return nil, err
	}
	if err := defs.ApplyTranslations(localizer); err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	db, dialect, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:    cfg,
		logger:    logger,
		db:        db,
		bus:       hooks.NewBus(),
		panels:    panels.NewRegistry(),
		localizer: localizer,
		defs:      defs,
	}
	a.tables = tables.NewRegistry(db, dialect, a.bus, logger)

	env := entity.Environment{
		Tables:     a.tables,
		Panels:     a.panels,
		Hooks:      a.bus,
		Translator: localizer,
		Logger:     logger,
	}
	a.builders = defs.Builders(env)
	return a, nil
}

// initEntities initializes the builders, optionally restricted to only.
// Every builder is attempted; failures are joined.
func (a *app) initEntities(ctx context.Context, only ...string) ([]*entity.Builder, error) {
	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = true
	}

	var done []*entity.Builder
	var errs []error
	for _, b := range a.builders {
		if len(wanted) > 0 && !wanted[b.Table()] {
			continue
		}
		if err := b.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Table(), err))
			continue
		}
		if err := b.Init(ctx); err != nil {
			a.logger.Error("entity init failed", zap.String("table", b.Table()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		done = append(done, b)
	}
	return done, errors.Join(errs...)
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// tableNames returns the tables declared in the definitions file
func tableNames(defs *definitions.File) []string {
	names := make([]string, len(defs.Entities))
	for i, d := range defs.Entities {
		names[i] = d.Table
	}
	return names
}
