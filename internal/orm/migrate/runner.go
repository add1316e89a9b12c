package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/eighteen73/custom-tables/internal/orm/codegen"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
	"github.com/eighteen73/custom-tables/internal/orm/transaction"
)

// Action describes what Apply did to a table
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpgraded  Action = "upgraded"
	ActionUnchanged Action = "unchanged"
)

// Outcome reports the result of applying a table schema
type Outcome struct {
	Table       string
	Action      Action
	FromVersion int
	ToVersion   int
	Added       []string
	Skipped     []SchemaChange // drops and modifications left for manual review
}

// Migrator creates and upgrades custom tables
type Migrator struct {
	db     *sql.DB
	tx     *transaction.Manager
	ddl    *codegen.DDLGenerator
	logger *zap.Logger

	mu          sync.Mutex
	initialized bool
}

// NewMigrator creates a new migrator
func NewMigrator(db *sql.DB, dialect codegen.Dialect, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{
		db:     db,
		tx:     transaction.NewManager(db, transaction.DefaultRetryConfig(), logger),
		ddl:    codegen.NewDDLGenerator(dialect),
		logger: logger,
	}
}

// Apply brings table up to version. A table seen for the first time is
// created; a tracked table with a lower version receives the columns added
// since; a table at or above version is left alone. The work runs in one
// transaction, retried on transient conflicts.
func (m *Migrator) Apply(ctx context.Context, table string, version int, s *schema.Schema) (*Outcome, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	var outcome *Outcome
	err := m.tx.WithRetry(ctx, func(tx *sql.Tx) error {
		var err error
		outcome, err = m.apply(ctx, tx, table, version, s)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", table, err)
	}

	if outcome.Action != ActionUnchanged {
		m.logger.Info("table schema applied",
			zap.String("table", table),
			zap.String("action", string(outcome.Action)),
			zap.Int("from_version", outcome.FromVersion),
			zap.Int("to_version", version),
			zap.Strings("added", outcome.Added))
	}

	return outcome, nil
}

func (m *Migrator) apply(ctx context.Context, tx *sql.Tx, table string, version int, s *schema.Schema) (*Outcome, error) {
	tracker := NewTracker(tx, m.ddl.Dialect())
	current, err := tracker.Get(ctx, table)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Table: table, ToVersion: version}
	switch {
	case current == nil:
		if err := m.create(ctx, tx, table, s); err != nil {
			return nil, err
		}
		outcome.Action = ActionCreated

	case current.Version >= version:
		outcome.Action = ActionUnchanged
		outcome.FromVersion = current.Version
		if current.Version > version {
			m.logger.Warn("table version is ahead of its definition",
				zap.String("table", table),
				zap.Int("tracked_version", current.Version),
				zap.Int("declared_version", version))
		}
		return outcome, nil

	default:
		outcome.FromVersion = current.Version
		outcome.Action = ActionUpgraded
		if err := m.upgrade(ctx, tx, table, current, s, outcome); err != nil {
			return nil, err
		}
	}

	encoded, err := s.Encode()
	if err != nil {
		return nil, err
	}
	if err := tracker.Save(ctx, TableVersion{Table: table, Version: version, Schema: encoded}); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (m *Migrator) initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if err := NewTracker(m.db, m.ddl.Dialect()).Initialize(ctx); err != nil {
		return err
	}
	m.initialized = true
	return nil
}

// EnsureMeta creates the table's meta side table if it does not exist
func (m *Migrator) EnsureMeta(ctx context.Context, table string) error {
	if _, err := m.db.ExecContext(ctx, m.ddl.GenerateMetaTable(table)); err != nil {
		return fmt.Errorf("failed to create meta table for %s: %w", table, err)
	}
	return nil
}

func (m *Migrator) create(ctx context.Context, tx *sql.Tx, table string, s *schema.Schema) error {
	stmt, err := m.ddl.GenerateCreateTable(table, s)
	if err != nil {
		return fmt.Errorf("failed to generate DDL for %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

func (m *Migrator) upgrade(ctx context.Context, tx *sql.Tx, table string, current *TableVersion, s *schema.Schema, outcome *Outcome) error {
	if s.IsRaw() {
		m.logger.Info("raw schema version bumped; columns are not diffed",
			zap.String("table", table),
			zap.Int("version", outcome.ToVersion))
		return nil
	}

	prev, err := schema.Decode(current.Schema)
	if err != nil {
		return err
	}

	for _, change := range Diff(prev, s) {
		if change.Type != ChangeAddColumn {
			outcome.Skipped = append(outcome.Skipped, change)
			m.logger.Warn("schema change requires manual migration",
				zap.String("table", table),
				zap.String("change", change.Type.String()),
				zap.String("column", change.Column))
			continue
		}

		stmt, err := m.ddl.GenerateAddColumn(table, change.New)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add column %s.%s: %w", table, change.Column, err)
		}
		outcome.Added = append(outcome.Added, change.Column)
	}

	return nil
}
