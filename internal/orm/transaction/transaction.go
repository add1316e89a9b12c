// Package transaction runs schema and record work inside database
// transactions, retrying the whole unit when the database reports a
// transient conflict.
package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrRetriesExhausted is returned when a retryable failure persists past MaxRetries
var ErrRetriesExhausted = errors.New("transaction retries exhausted")

const (
	// DefaultMaxRetries is the default number of attempts for a retried transaction
	DefaultMaxRetries = 3
	// DefaultBaseBackoff is the default delay before the second attempt
	DefaultBaseBackoff = 50 * time.Millisecond
)

// RetryConfig configures retry behavior for transactions
type RetryConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  DefaultMaxRetries,
		BaseBackoff: DefaultBaseBackoff,
	}
}

// Manager manages database transactions
type Manager struct {
	db     *sql.DB
	retry  RetryConfig
	logger *zap.Logger
}

// NewManager creates a transaction manager
func NewManager(db *sql.DB, retry RetryConfig, logger *zap.Logger) *Manager {
	if retry.MaxRetries <= 0 {
		retry.MaxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{db: db, retry: retry, logger: logger}
}

// WithTransaction runs fn in a transaction. It commits when fn returns nil
// and rolls back on error or panic.
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WithRetry runs fn in a transaction, starting over with exponential
// backoff while the failure is retryable. fn must be safe to repeat.
func (m *Manager) WithRetry(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error

	for attempt := 0; attempt < m.retry.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("transaction cancelled before attempt %d: %w", attempt+1, ctx.Err())
		}

		err := m.WithTransaction(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		lastErr = err

		backoff := m.retry.BaseBackoff * time.Duration(1<<uint(attempt))
		m.logger.Warn("retrying transaction",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction cancelled during retry: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, m.retry.MaxRetries, lastErr)
}
