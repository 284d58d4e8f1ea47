// Package storepg is an optional persistent adapter for the Vehicle
// catalogue, satisfying the same narrow read/write contract as
// internal/store's in-memory Store without requiring it (Go generics
// don't mix cleanly with pgx's row-scanning API, so this is a
// hand-written adapter rather than a Store[T] instantiation).
package storepg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionManager begins a pgx transaction with a bounded lock wait:
// a writer that can't acquire its row locks within lockTimeout aborts
// rather than queuing indefinitely.
type TransactionManager struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTransactionManager builds a TransactionManager over pool. A
// lockTimeout of 0 disables the bound.
func NewTransactionManager(pool *pgxpool.Pool, lockTimeout time.Duration) *TransactionManager {
	return &TransactionManager{pool: pool, lockTimeout: lockTimeout}
}

// BeginTx starts a transaction with the configured lock_timeout applied
// for its duration.
func (m *TransactionManager) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if m.lockTimeout > 0 {
		timeoutMs := int(m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeoutMs)); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	return tx, nil
}
