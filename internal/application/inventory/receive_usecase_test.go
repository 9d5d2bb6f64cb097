package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Recepción de mercancía
// ──────────────────────────────────────────────────────────────────────────────

func receipt(lines ...inventory.ReceiptLine) inventory.ReceiptInput {
	return inventory.ReceiptInput{
		TenantID:       tenant,
		UserID:         "u1",
		ReceiptID:      "R1",
		SupplierID:     "S1",
		DocumentNumber: "FC-100",
		DocumentDate:   today,
		DueDate:        today.AddDate(0, 0, 30),
		Lines:          lines,
	}
}

func TestReceiveGoods_CreaLotesYSaldoPorPagar(t *testing.T) {
	f := newFixture()
	f.createParty(t, "S1", "0")

	res, err := f.receive.ReceiveGoods(context.Background(), receipt(
		inventory.ReceiptLine{ProductID: "P1", LotCode: "A", ExpiryDate: day("2025-05-01"), Quantity: d("10"), UnitCost: d("2.5")},
		inventory.ReceiptLine{ProductID: "P2", LotCode: "B", ExpiryDate: day("2025-07-01"), Quantity: d("4"), UnitCost: d("10")},
	))
	require.NoError(t, err)
	require.Len(t, res.Batches, 2)
	require.Len(t, res.Movements, 2)
	assert.True(t, d("65").Equal(res.TotalAmount))

	require.NotNil(t, res.Payable)
	assert.Equal(t, entity.OutstandingPayable, res.Payable.Kind)
	assert.Equal(t, inventory.SourcePurchaseReceipt, res.Payable.SourceType)
	assert.Equal(t, "R1", res.Payable.SourceID)
	assert.True(t, d("65").Equal(res.Payable.OutstandingAmount))

	for _, m := range res.Movements {
		assert.Equal(t, inventory.SourcePurchaseReceipt, m.ReferenceType)
		assert.Equal(t, "R1", m.ReferenceID)
	}
}

func TestReceiveGoods_ReponeLoteExistente(t *testing.T) {
	f := newFixture()
	id := f.receiveBatch(t, "P1", "A", "5", day("2025-05-01"))

	in := receipt(inventory.ReceiptLine{ProductID: "P1", BatchID: id, Quantity: d("3"), UnitCost: d("1")})
	in.SupplierID = ""
	res, err := f.receive.ReceiveGoods(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, res.Payable)

	b := f.batch(t, id)
	assert.True(t, d("8").Equal(b.QuantityReceived))
	assert.True(t, d("8").Equal(b.QuantityAvailable))
}

func TestReceiveGoods_TodoONada(t *testing.T) {
	f := newFixture()
	f.createParty(t, "S1", "0")

	_, err := f.receive.ReceiveGoods(context.Background(), receipt(
		inventory.ReceiptLine{ProductID: "P1", LotCode: "A", Quantity: d("10"), UnitCost: d("1")},
		inventory.ReceiptLine{ProductID: "P2", LotCode: "B", Quantity: d("0"), UnitCost: d("1")},
	))
	require.ErrorIs(t, err, domain.ErrInvalidMovement)

	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		movs, err := r.Movements.ListByReference(context.Background(), tenant, inventory.SourcePurchaseReceipt, "R1")
		require.NoError(t, err)
		assert.Empty(t, movs)
		tenants, err := r.Outstanding.ListTenants(context.Background())
		require.NoError(t, err)
		assert.Empty(t, tenants)
		return nil
	}))
}

func TestReceiveGoods_ProveedorInexistenteRevierteLotes(t *testing.T) {
	f := newFixture()

	_, err := f.receive.ReceiveGoods(context.Background(), receipt(
		inventory.ReceiptLine{ProductID: "P1", LotCode: "A", Quantity: d("10"), UnitCost: d("1")},
	))
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		list, err := r.Batches.ListActiveByProduct(context.Background(), tenant, "P1")
		require.NoError(t, err)
		assert.Empty(t, list)
		return nil
	}))
}
