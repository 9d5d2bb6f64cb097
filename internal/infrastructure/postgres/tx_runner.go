package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool           *pgxpool.Pool
	clock          ports.Clock
	nearExpiryDays int
}

// NewTxRunner construye el runner con el pool. nearExpiryDays se usa al recalcular
// los derivados de vencimiento en cada lectura de lote.
func NewTxRunner(pool *pgxpool.Pool, nearExpiryDays int) *TxRunner {
	if nearExpiryDays <= 0 {
		nearExpiryDays = entity.DefaultNearExpiryDays
	}
	return &TxRunner{pool: pool, clock: ports.SystemClock, nearExpiryDays: nearExpiryDays}
}

// WithClock reemplaza el reloj (tests).
func (r *TxRunner) WithClock(c ports.Clock) *TxRunner {
	r.clock = c
	return r
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(r.repos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("transaction", "", fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (r *TxRunner) repos(q Querier) repository.Repos {
	batches := NewBatchRepository(q, r.clock, r.nearExpiryDays)
	return repository.Repos{
		Batches:       batches,
		BatchWriter:   batches,
		Movements:     NewMovementRepository(q),
		Outstanding:   NewOutstandingRepository(q),
		Allocations:   NewPaymentAllocationRepository(q),
		Journals:      NewJournalRepository(q),
		Periods:       NewPeriodRepository(q),
		Parties:       NewPartyRepository(q),
		Orders:        NewSalesOrderRepository(q),
		Notifications: NewNotificationRepository(q),
	}
}
