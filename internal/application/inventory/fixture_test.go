package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const tenant = "t1"

var today = time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store    *memory.Store
	recorder *inventory.MovementRecorder
	alloc    *inventory.AllocateUseCase
	status   *inventory.BatchStatusUseCase
	receive  *inventory.ReceiveGoodsUseCase
}

func newFixture() *fixture {
	clock := func() time.Time { return today }
	s := memory.NewStore(memory.WithClock(clock))
	log := logger.NewNop()
	rec := inventory.NewMovementRecorder(s, entity.DefaultNearExpiryDays, clock, ports.NopMetrics{}, log)
	ledger := receivables.NewLedgerUseCase(s, nil, receivables.Accounts{}, clock, log)
	return &fixture{
		store:    s,
		recorder: rec,
		alloc:    inventory.NewAllocateUseCase(s, rec, ports.NopMetrics{}, log),
		status:   inventory.NewBatchStatusUseCase(s, rec, log),
		receive:  inventory.NewReceiveGoodsUseCase(s, rec, ledger, clock),
	}
}

// receiveBatch registra una compra que crea el lote y devuelve su ID.
func (f *fixture) receiveBatch(t *testing.T, product, lot string, qty string, expiry time.Time) string {
	t.Helper()
	_, b, err := f.recorder.Record(context.Background(), inventory.MovementInput{
		TenantID:    tenant,
		UserID:      "u1",
		Type:        entity.MovementPurchase,
		ProductID:   product,
		QuantityIn:  d(qty),
		QuantityOut: decimal.Zero,
		NewBatch:    &inventory.NewBatchInput{LotCode: lot, ExpiryDate: expiry},
	})
	require.NoError(t, err)
	return b.ID
}

func (f *fixture) batch(t *testing.T, id string) entity.Batch {
	t.Helper()
	var out *entity.Batch
	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		var err error
		out, err = r.Batches.GetByID(context.Background(), tenant, id)
		return err
	}))
	require.NotNil(t, out)
	return *out
}

func (f *fixture) notifications(t *testing.T) []entity.Notification {
	t.Helper()
	var out []entity.Notification
	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		var err error
		out, err = r.Notifications.ListByTenant(context.Background(), tenant)
		return err
	}))
	return out
}

func (f *fixture) movements(t *testing.T, batchID string) []entity.Movement {
	t.Helper()
	var out []entity.Movement
	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		var err error
		out, err = r.Movements.ListByBatch(context.Background(), tenant, batchID)
		return err
	}))
	return out
}

func (f *fixture) createParty(t *testing.T, id string, limit string) {
	t.Helper()
	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		return r.Parties.Create(context.Background(), &entity.Party{ID: id, TenantID: tenant, Name: id, CreditLimit: d(limit)})
	}))
}
