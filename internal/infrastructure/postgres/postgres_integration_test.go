//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/inventario-ledger/internal/application/accounting"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	domainacc "github.com/jhoicas/inventario-ledger/internal/domain/accounting"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const tenant = "t1"

var now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// newPool levanta un PostgreSQL efímero con el esquema de testdata.
func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.WithInitScripts(filepath.Join("testdata", "schema.sql")),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newRecorder(runner ports.TxRunner) *inventory.MovementRecorder {
	return inventory.NewMovementRecorder(runner, entity.DefaultNearExpiryDays, clock, ports.NopMetrics{}, logger.NewNop())
}

func purchase(t *testing.T, rec *inventory.MovementRecorder, product, lot, qty string, expiry time.Time) *entity.Batch {
	t.Helper()
	_, b, err := rec.Record(context.Background(), inventory.MovementInput{
		TenantID:   tenant,
		UserID:     "u1",
		Type:       entity.MovementPurchase,
		ProductID:  product,
		QuantityIn: d(qty),
		NewBatch:   &inventory.NewBatchInput{LotCode: lot, ExpiryDate: expiry},
	})
	require.NoError(t, err)
	return b
}

// ── Lotes y movimientos ──────────────────────────────────────────────────────

func TestPostgres_MovimientosMantienenInvarianteDelLote(t *testing.T) {
	pool := newPool(t)
	runner := postgres.NewTxRunner(pool, 30).WithClock(clock)
	rec := newRecorder(runner)
	ctx := context.Background()

	b := purchase(t, rec, "P1", "L-01", "10", day("2025-03-20"))

	_, _, err := rec.Record(ctx, inventory.MovementInput{
		TenantID: tenant, UserID: "u1", Type: entity.MovementSales, ProductID: "P1",
		BatchID: b.ID, QuantityOut: d("4"), ReferenceType: "sales_order", ReferenceID: "SO-1",
	})
	require.NoError(t, err)

	// Vender más de lo disponible se rechaza sin dejar rastro.
	_, _, err = rec.Record(ctx, inventory.MovementInput{
		TenantID: tenant, UserID: "u1", Type: entity.MovementSales, ProductID: "P1",
		BatchID: b.ID, QuantityOut: d("7"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidMovement))

	require.NoError(t, runner.Run(ctx, func(r repository.Repos) error {
		got, err := r.Batches.GetByID(ctx, tenant, b.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.QuantityAvailable.Equal(d("6")))
		assert.True(t, got.QuantitySold.Equal(d("4")))
		assert.True(t, got.Consistent())
		assert.Equal(t, 19, got.DaysToExpiry)
		assert.True(t, got.NearExpiry)

		movs, err := r.Movements.ListByBatch(ctx, tenant, b.ID)
		require.NoError(t, err)
		assert.Len(t, movs, 2)

		byRef, err := r.Movements.ListByReference(ctx, tenant, "sales_order", "SO-1")
		require.NoError(t, err)
		assert.Len(t, byRef, 1)
		return nil
	}))
}

func TestPostgres_LockNoWaitDevuelveContencion(t *testing.T) {
	pool := newPool(t)
	runner := postgres.NewTxRunner(pool, 0).WithClock(clock)
	b := purchase(t, newRecorder(runner), "P1", "L-01", "5", time.Time{})
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, func(r repository.Repos) error {
			if _, err := r.Batches.LockNoWait(ctx, tenant, b.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	err := runner.Run(ctx, func(r repository.Repos) error {
		_, err := r.Batches.LockNoWait(ctx, tenant, b.ID)
		return err
	})
	close(release)
	require.NoError(t, <-done)

	var contention *domain.LockContentionError
	require.ErrorAs(t, err, &contention)
	assert.Equal(t, "batch", contention.Resource)
	assert.True(t, domain.IsRetryable(err))
}

func TestPostgres_AsignacionFEFO(t *testing.T) {
	pool := newPool(t)
	runner := postgres.NewTxRunner(pool, 0).WithClock(clock)
	rec := newRecorder(runner)
	purchase(t, rec, "P1", "L-late", "10", day("2025-09-01"))
	early := purchase(t, rec, "P1", "L-early", "10", day("2025-05-01"))
	purchase(t, rec, "P1", "L-none", "10", time.Time{})

	alloc := inventory.NewAllocateUseCase(runner, rec, ports.NopMetrics{}, logger.NewNop())
	id, err := alloc.Allocate(context.Background(), tenant, "P1", d("3"))
	require.NoError(t, err)
	assert.Equal(t, early.ID, id)
}

// ── Cartera ──────────────────────────────────────────────────────────────────

func TestPostgres_PagoFIFOYClaveUnica(t *testing.T) {
	pool := newPool(t)
	runner := postgres.NewTxRunner(pool, 0).WithClock(clock)
	log := logger.NewNop()
	ctx := context.Background()

	require.NoError(t, runner.Run(ctx, func(r repository.Repos) error {
		return r.Parties.Create(ctx, &entity.Party{ID: "C1", TenantID: tenant, Name: "Cliente", CreditLimit: d("0"), CreatedAt: now, UpdatedAt: now})
	}))

	ledger := receivables.NewLedgerUseCase(runner, nil, receivables.Accounts{}, clock, log)
	payments := receivables.NewPaymentUseCase(runner, nil, receivables.Accounts{}, clock, ports.NopMetrics{}, log)

	post := func(source, date, amount string) {
		_, err := ledger.PostOutstanding(ctx, receivables.PostOutstandingInput{
			TenantID: tenant, UserID: "u1", Kind: entity.OutstandingReceivable, PartyID: "C1",
			SourceType: "sales_order", SourceID: source, DocumentDate: day(date),
			DueDate: day(date).AddDate(0, 0, 30), Amount: d(amount),
		})
		require.NoError(t, err)
	}
	post("A", "2025-01-01", "100")
	post("B", "2025-01-15", "200")
	post("C", "2025-02-01", "150")

	res, err := payments.AllocatePayment(ctx, receivables.PaymentInput{
		TenantID: tenant, UserID: "u1", PaymentID: "PAY-1", PartyID: "C1",
		Kind: entity.OutstandingReceivable, Amount: d("250"), PaymentDate: now,
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 2)
	assert.True(t, res.Allocations[0].AllocatedAmount.Equal(d("100")))
	assert.True(t, res.Allocations[1].AllocatedAmount.Equal(d("150")))
	assert.True(t, res.Unapplied.IsZero())

	require.NoError(t, runner.Run(ctx, func(r repository.Repos) error {
		open, err := r.Outstanding.ListOpenByParty(ctx, tenant, entity.OutstandingReceivable, "C1", false)
		require.NoError(t, err)
		require.Len(t, open, 2)
		assert.Equal(t, "B", open[0].SourceID)
		assert.Equal(t, entity.OutstandingPartial, open[0].Status)
		assert.True(t, open[0].OutstandingAmount.Equal(d("50")))

		allocs, err := r.Allocations.ListByPayment(ctx, tenant, "PAY-1")
		require.NoError(t, err)
		assert.Len(t, allocs, 2)
		return nil
	}))

	// Reenviar el mismo pago no asigna dos veces.
	_, err = payments.AllocatePayment(ctx, receivables.PaymentInput{
		TenantID: tenant, UserID: "u1", PaymentID: "PAY-1", PartyID: "C1",
		Kind: entity.OutstandingReceivable, Amount: d("250"), PaymentDate: now,
	})
	assert.True(t, errors.Is(err, domain.ErrDuplicateAllocation))
}

// ── Contabilidad ─────────────────────────────────────────────────────────────

func TestPostgres_AsientoContabilizadoEsInmutable(t *testing.T) {
	pool := newPool(t)
	runner := postgres.NewTxRunner(pool, 0).WithClock(clock)
	journal := accounting.NewJournalUseCase(runner, domainacc.NewValidator(domainacc.DefaultTolerance, 7),
		clock, ports.NopMetrics{}, logger.NewNop())
	ctx := context.Background()

	draft, err := journal.SaveDraft(ctx, accounting.JournalInput{
		TenantID: tenant, UserID: "u1", EntryDate: now, Description: "venta",
		Lines: []accounting.LineInput{
			{AccountCode: "130505", Debit: d("500")},
			{AccountCode: "413595", Credit: d("500")},
		},
	})
	require.NoError(t, err)

	posted, err := journal.PostDraft(ctx, tenant, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JournalStatusPosted, posted.Status)
	require.Len(t, posted.Lines, 2)

	_, err = journal.ReplaceDraftLines(ctx, tenant, draft.ID, []accounting.LineInput{
		{AccountCode: "130505", Debit: d("1")},
		{AccountCode: "413595", Credit: d("1")},
	})
	assert.True(t, errors.Is(err, domain.ErrImmutable))

	rev, err := journal.ReverseEntry(ctx, tenant, "u1", draft.ID, now)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, rev.ReversalOf)

	_, err = journal.ReverseEntry(ctx, tenant, "u1", draft.ID, now)
	assert.Error(t, err)
}

func TestPostgres_PeriodoCerradoRechazaAsientos(t *testing.T) {
	pool := newPool(t)
	runner := postgres.NewTxRunner(pool, 0).WithClock(clock)
	journal := accounting.NewJournalUseCase(runner, domainacc.NewValidator(domainacc.DefaultTolerance, 3650),
		clock, ports.NopMetrics{}, logger.NewNop())
	ctx := context.Background()

	p, err := journal.OpenPeriod(ctx, tenant, day("2025-01-01"), day("2025-01-31"))
	require.NoError(t, err)
	_, err = journal.SetPeriodStatus(ctx, tenant, p.ID, entity.PeriodClosed)
	require.NoError(t, err)

	_, err = journal.PostJournalEntry(ctx, accounting.JournalInput{
		TenantID: tenant, UserID: "u1", EntryDate: day("2025-01-15"),
		Lines: []accounting.LineInput{
			{AccountCode: "110505", Debit: d("10")},
			{AccountCode: "413595", Credit: d("10")},
		},
	})
	assert.True(t, errors.Is(err, domain.ErrClosedPeriod))
}

// ── Outbox ───────────────────────────────────────────────────────────────────

func TestPostgres_OutboxPendientesYDespachadas(t *testing.T) {
	pool := newPool(t)
	runner := postgres.NewTxRunner(pool, 0).WithClock(clock)
	ctx := context.Background()

	require.NoError(t, runner.Run(ctx, func(r repository.Repos) error {
		for _, id := range []string{"n1", "n2"} {
			if err := r.Notifications.Create(ctx, &entity.Notification{
				ID: id, TenantID: tenant, Kind: entity.NotificationBatchEmptied,
				Payload: []byte(`{"batch_id":"B1"}`), CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, runner.Run(ctx, func(r repository.Repos) error {
		pending, err := r.Notifications.ListPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, "n1", pending[0].ID)
		assert.JSONEq(t, `{"batch_id":"B1"}`, string(pending[0].Payload))
		return r.Notifications.MarkDispatched(ctx, []string{"n1"}, now)
	}))

	require.NoError(t, runner.Run(ctx, func(r repository.Repos) error {
		pending, err := r.Notifications.ListPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "n2", pending[0].ID)
		return nil
	}))
}
