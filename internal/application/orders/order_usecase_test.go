package orders_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/credit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/orders"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const tenant = "t1"

var now = time.Date(2024, 12, 1, 8, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store    *memory.Store
	recorder *inventory.MovementRecorder
	ledger   *receivables.LedgerUseCase
	orders   *orders.OrderUseCase
}

func newFixture(t *testing.T, limit string) *fixture {
	t.Helper()
	clock := func() time.Time { return now }
	log := logger.NewNop()
	s := memory.NewStore(memory.WithClock(clock))
	rec := inventory.NewMovementRecorder(s, 90, clock, ports.NopMetrics{}, log)
	ledger := receivables.NewLedgerUseCase(s, nil, receivables.Accounts{}, clock, log)
	uc := orders.NewOrderUseCase(
		s,
		credit.NewCreditUseCase(s, ports.NopMetrics{}, log),
		inventory.NewAllocateUseCase(s, rec, ports.NopMetrics{}, log),
		ledger,
		clock,
		log,
	)
	require.NoError(t, s.Run(context.Background(), func(r repository.Repos) error {
		return r.Parties.Create(context.Background(), &entity.Party{ID: "C1", TenantID: tenant, Name: "Clínica Norte", CreditLimit: d(limit)})
	}))
	return &fixture{store: s, recorder: rec, ledger: ledger, orders: uc}
}

func (f *fixture) stock(t *testing.T, product, lot, qty string, expiry time.Time) string {
	t.Helper()
	_, b, err := f.recorder.Record(context.Background(), inventory.MovementInput{
		TenantID: tenant, UserID: "u1", Type: entity.MovementPurchase, ProductID: product,
		QuantityIn: d(qty), QuantityOut: decimal.Zero,
		NewBatch: &inventory.NewBatchInput{LotCode: lot, ExpiryDate: expiry},
	})
	require.NoError(t, err)
	return b.ID
}

func (f *fixture) create(t *testing.T, lines ...orders.OrderLineInput) *entity.SalesOrder {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), orders.CreateOrderInput{
		TenantID: tenant, UserID: "u1", PartyID: "C1", Lines: lines,
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) order(t *testing.T, id string) *entity.SalesOrder {
	t.Helper()
	var out *entity.SalesOrder
	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		var err error
		out, err = r.Orders.GetByID(context.Background(), tenant, id)
		return err
	}))
	require.NotNil(t, out)
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Control de crédito en la confirmación
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirmOrder_HoldPersisteLaOrden(t *testing.T) {
	f := newFixture(t, "50000")
	_, err := f.ledger.PostOutstanding(context.Background(), receivables.PostOutstandingInput{
		TenantID: tenant, UserID: "u1", Kind: entity.OutstandingReceivable, PartyID: "C1",
		SourceType: "sales_order", SourceID: "previa", DocumentDate: now,
		DueDate: now.AddDate(0, 0, 30), Amount: d("40000"),
	})
	require.NoError(t, err)

	o := f.create(t, orders.OrderLineInput{ProductID: "P1", Quantity: d("10"), UnitPrice: d("2000")})
	conf, err := f.orders.ConfirmOrder(context.Background(), tenant, "u1", o.ID)
	require.NoError(t, err)
	assert.False(t, conf.Decision.Approved())
	assert.True(t, d("60000").Equal(conf.Decision.Exposure))
	assert.Equal(t, entity.OrderStatusCreditHold, f.order(t, o.ID).Status)

	var notes []entity.Notification
	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		var err error
		notes, err = r.Notifications.ListByTenant(context.Background(), tenant)
		return err
	}))
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationCreditHold, notes[0].Kind)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(notes[0].Payload, &payload))
	assert.Equal(t, "C1", payload["party_id"])
	assert.Equal(t, o.ID, payload["order_id"])

	// En hold no se puede despachar.
	_, err = f.orders.FulfillOrder(context.Background(), tenant, "u1", o.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	approved, err := f.orders.ApproveHold(context.Background(), tenant, "u2", o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, approved.Status)
}

func TestConfirmOrder_SoloDesdeBorrador(t *testing.T) {
	f := newFixture(t, "0")
	o := f.create(t, orders.OrderLineInput{ProductID: "P1", Quantity: d("1"), UnitPrice: d("1")})
	_, err := f.orders.ConfirmOrder(context.Background(), tenant, "u1", o.ID)
	require.NoError(t, err)
	_, err = f.orders.ConfirmOrder(context.Background(), tenant, "u1", o.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestOrden_DeBorradorAFacturada(t *testing.T) {
	f := newFixture(t, "0")
	early := f.stock(t, "P1", "L1", "20", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	f.stock(t, "P1", "L2", "50", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	other := f.stock(t, "P2", "M1", "5", time.Time{})

	o := f.create(t,
		orders.OrderLineInput{ProductID: "P1", Quantity: d("15"), UnitPrice: d("1000")},
		orders.OrderLineInput{ProductID: "P2", Quantity: d("5"), UnitPrice: d("300")},
	)
	assert.Equal(t, entity.OrderStatusDraft, o.Status)
	assert.True(t, d("16500").Equal(o.Total))

	conf, err := f.orders.ConfirmOrder(context.Background(), tenant, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, conf.Order.Status)

	fulfilled, err := f.orders.FulfillOrder(context.Background(), tenant, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusFulfilled, fulfilled.Status)
	assert.Equal(t, early, fulfilled.Lines[0].BatchID)
	assert.Equal(t, other, fulfilled.Lines[1].BatchID)

	invoiced, out, err := f.orders.InvoiceOrder(context.Background(), tenant, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusInvoiced, invoiced.Status)
	assert.Equal(t, entity.SourceSalesOrder, out.SourceType)
	assert.Equal(t, o.ID, out.SourceID)
	assert.True(t, d("16500").Equal(out.TotalAmount))
	assert.Equal(t, o.DueDate, out.DueDate)

	var movs []entity.Movement
	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		var err error
		movs, err = r.Movements.ListByReference(context.Background(), tenant, entity.SourceSalesOrder, o.ID)
		return err
	}))
	assert.Len(t, movs, 2)
}

func TestFulfillOrder_SinStockRevierteTodasLasLineas(t *testing.T) {
	f := newFixture(t, "0")
	b1 := f.stock(t, "P1", "L1", "10", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	o := f.create(t,
		orders.OrderLineInput{ProductID: "P1", Quantity: d("5"), UnitPrice: d("1")},
		orders.OrderLineInput{ProductID: "P2", Quantity: d("1"), UnitPrice: d("1")},
	)
	_, err := f.orders.ConfirmOrder(context.Background(), tenant, "u1", o.ID)
	require.NoError(t, err)

	_, err = f.orders.FulfillOrder(context.Background(), tenant, "u1", o.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, entity.OrderStatusConfirmed, f.order(t, o.ID).Status)
	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		b, err := r.Batches.GetByID(context.Background(), tenant, b1)
		require.NoError(t, err)
		assert.True(t, d("10").Equal(b.QuantityAvailable), "la primera línea no quedó aplicada")
		return nil
	}))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t, "0")
	o := f.create(t, orders.OrderLineInput{ProductID: "P1", Quantity: d("1"), UnitPrice: d("1")})
	c, err := f.orders.CancelOrder(context.Background(), tenant, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, c.Status)

	_, err = f.orders.ConfirmOrder(context.Background(), tenant, "u1", o.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateOrder_Validaciones(t *testing.T) {
	f := newFixture(t, "0")
	_, err := f.orders.CreateOrder(context.Background(), orders.CreateOrderInput{TenantID: tenant, PartyID: "C1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.orders.CreateOrder(context.Background(), orders.CreateOrderInput{
		TenantID: tenant, PartyID: "C1",
		Lines: []orders.OrderLineInput{{ProductID: "P1", Quantity: d("0"), UnitPrice: d("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.orders.CreateOrder(context.Background(), orders.CreateOrderInput{
		TenantID: tenant, PartyID: "X",
		Lines: []orders.OrderLineInput{{ProductID: "P1", Quantity: d("1"), UnitPrice: d("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
