package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Bloqueo y vencimiento de lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestBlock_YUnblock(t *testing.T) {
	f := newFixture()
	id := f.receiveBatch(t, "P1", "L1", "3", day("2025-02-01"))

	b, err := f.status.Block(context.Background(), tenant, id)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusBlocked, b.Status)

	_, err = f.status.Block(context.Background(), tenant, id)
	assert.ErrorIs(t, err, domain.ErrConflict)

	b, err = f.status.Unblock(context.Background(), tenant, id)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusActive, b.Status)

	_, err = f.status.Unblock(context.Background(), tenant, id)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBlock_LoteInexistente(t *testing.T) {
	f := newFixture()
	_, err := f.status.Block(context.Background(), tenant, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpireBatches_DaDeBajaElSaldo(t *testing.T) {
	f := newFixture()
	vencido := f.receiveBatch(t, "P1", "L1", "6", day("2024-11-20"))
	vigente := f.receiveBatch(t, "P1", "L2", "6", day("2025-06-01"))

	res, err := f.status.ExpireBatches(context.Background(), tenant, today)
	require.NoError(t, err)
	assert.Equal(t, []string{vencido}, res.Expired)
	assert.Equal(t, 1, res.Movements)

	b := f.batch(t, vencido)
	assert.Equal(t, entity.BatchStatusExpired, b.Status)
	assert.True(t, b.QuantityAvailable.IsZero())
	assert.True(t, d("6").Equal(b.QuantityDamaged))
	assert.True(t, b.Consistent())

	assert.Equal(t, entity.BatchStatusActive, f.batch(t, vigente).Status)

	var kinds []string
	for _, n := range f.notifications(t) {
		kinds = append(kinds, n.Kind)
	}
	assert.Contains(t, kinds, entity.NotificationBatchExpired)

	// Idempotente: un segundo barrido no encuentra nada.
	res, err = f.status.ExpireBatches(context.Background(), tenant, today)
	require.NoError(t, err)
	assert.Empty(t, res.Expired)
}

func TestExpireBatches_LoteSinSaldoSoloCambiaEstado(t *testing.T) {
	f := newFixture()
	id := f.receiveBatch(t, "P1", "L1", "2", day("2024-11-20"))
	_, _, err := f.recorder.Record(context.Background(), inventory.MovementInput{
		TenantID: tenant, UserID: "u1", Type: entity.MovementStockDamage, ProductID: "P1", BatchID: id,
		QuantityIn: decimal.Zero, QuantityOut: d("2"),
	})
	require.NoError(t, err)

	res, err := f.status.ExpireBatches(context.Background(), tenant, today)
	require.NoError(t, err)
	assert.Zero(t, res.Movements)

	b := f.batch(t, id)
	assert.Equal(t, entity.BatchStatusExpired, b.Status)
	assert.Len(t, f.movements(t, id), 2)
}

func TestExpireAll_RecorreTenants(t *testing.T) {
	f := newFixture()
	f.receiveBatch(t, "P1", "L1", "1", day("2024-11-01"))

	n, err := f.status.ExpireAll(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
