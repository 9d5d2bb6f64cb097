package receivables_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Asignación de pagos
// ──────────────────────────────────────────────────────────────────────────────

func TestAllocatePayment_FIFO(t *testing.T) {
	f := newFixture(day("2025-02-15"))
	f.party(t, "C1")
	o2 := f.invoice(t, "C1", "SO-2", "2025-02-01", "200")
	o1 := f.invoice(t, "C1", "SO-1", "2025-01-01", "100")

	res, err := f.payments.AllocatePayment(context.Background(), receivables.PaymentInput{
		TenantID: tenant, UserID: "u1", PartyID: "C1", PaymentID: "PAY-1", Amount: d("150"),
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 2)
	assert.Equal(t, o1.ID, res.Allocations[0].OutstandingID)
	assert.True(t, d("100").Equal(res.Allocations[0].AllocatedAmount))
	assert.Equal(t, o2.ID, res.Allocations[1].OutstandingID)
	assert.True(t, d("50").Equal(res.Allocations[1].AllocatedAmount))
	assert.True(t, res.Unapplied.IsZero())

	got1 := f.outstanding(t, o1.ID)
	assert.Equal(t, entity.OutstandingPaid, got1.Status)
	assert.True(t, got1.OutstandingAmount.IsZero())

	got2 := f.outstanding(t, o2.ID)
	assert.Equal(t, entity.OutstandingPartial, got2.Status)
	assert.True(t, d("150").Equal(got2.OutstandingAmount))
	assert.True(t, got2.Consistent())

	entries, err := f.journal.EntriesBySource(context.Background(), tenant, "payment", "PAY-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, accounts.Cash, entries[0].Lines[0].AccountCode)
	assert.True(t, d("150").Equal(entries[0].TotalDebit))
}

func TestAllocatePayment_SobranteNoAplicado(t *testing.T) {
	f := newFixture(day("2025-02-15"))
	f.party(t, "C1")
	f.invoice(t, "C1", "SO-1", "2025-01-01", "100")

	res, err := f.payments.AllocatePayment(context.Background(), receivables.PaymentInput{
		TenantID: tenant, PartyID: "C1", Amount: d("130"),
	})
	require.NoError(t, err)
	assert.True(t, d("100").Equal(res.Applied))
	assert.True(t, d("30").Equal(res.Unapplied))
	assert.NotEmpty(t, res.PaymentID)
}

func TestAllocatePayment_Cero(t *testing.T) {
	f := newFixture(day("2025-02-15"))
	f.party(t, "C1")
	f.invoice(t, "C1", "SO-1", "2025-01-01", "100")

	res, err := f.payments.AllocatePayment(context.Background(), receivables.PaymentInput{
		TenantID: tenant, PartyID: "C1", Amount: d("0"),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Allocations)
}

func TestAllocatePayment_Negativo(t *testing.T) {
	f := newFixture(day("2025-02-15"))
	_, err := f.payments.AllocatePayment(context.Background(), receivables.PaymentInput{
		TenantID: tenant, PartyID: "C1", Amount: d("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAllocatePayment_PagoRepetido(t *testing.T) {
	f := newFixture(day("2025-02-15"))
	f.party(t, "C1")
	o := f.invoice(t, "C1", "SO-1", "2025-01-01", "100")

	in := receivables.PaymentInput{TenantID: tenant, PartyID: "C1", PaymentID: "PAY-1", Amount: d("40")}
	_, err := f.payments.AllocatePayment(context.Background(), in)
	require.NoError(t, err)

	_, err = f.payments.AllocatePayment(context.Background(), in)
	var dup *domain.DuplicateAllocationError
	require.ErrorAs(t, err, &dup)

	got := f.outstanding(t, o.ID)
	assert.True(t, d("60").Equal(got.OutstandingAmount), "el segundo intento no aplica nada")
}

func TestAllocatePayment_SoloDelTipoIndicado(t *testing.T) {
	f := newFixture(day("2025-02-15"))
	f.party(t, "S1")
	payable, err := f.ledger.PostOutstanding(context.Background(), receivables.PostOutstandingInput{
		TenantID: tenant, UserID: "u1", Kind: entity.OutstandingPayable, PartyID: "S1",
		SourceType: "purchase_receipt", SourceID: "R1", DocumentDate: day("2025-01-05"),
		DueDate: day("2025-02-05"), Amount: d("70"),
	})
	require.NoError(t, err)

	res, err := f.payments.AllocatePayment(context.Background(), receivables.PaymentInput{
		TenantID: tenant, PartyID: "S1", Kind: entity.OutstandingReceivable, Amount: d("70"),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Allocations)
	assert.True(t, d("70").Equal(res.Unapplied))

	res, err = f.payments.AllocatePayment(context.Background(), receivables.PaymentInput{
		TenantID: tenant, PartyID: "S1", Kind: entity.OutstandingPayable, PaymentID: "OUT-1", Amount: d("70"),
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, payable.ID, res.Allocations[0].OutstandingID)

	entries, err := f.journal.EntriesBySource(context.Background(), tenant, "payment", "OUT-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, accounts.Payable, entries[0].Lines[0].AccountCode)
	assert.Equal(t, accounts.Cash, entries[0].Lines[1].AccountCode)
}

func TestAllocatePayment_ConcurrentesNoSobrepagan(t *testing.T) {
	f := newFixture(day("2025-02-15"))
	f.party(t, "C1")
	o := f.invoice(t, "C1", "SO-1", "2025-01-01", "100")

	var wg sync.WaitGroup
	results := make([]*receivables.PaymentResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.payments.AllocatePayment(context.Background(), receivables.PaymentInput{
				TenantID: tenant, PartyID: "C1", Amount: d("40"),
			})
			if assert.NoError(t, err) {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	applied := d("0")
	for _, r := range results {
		require.NotNil(t, r)
		applied = applied.Add(r.Applied)
	}
	assert.True(t, d("100").Equal(applied))

	got := f.outstanding(t, o.ID)
	assert.True(t, got.OutstandingAmount.IsZero())
	assert.Equal(t, entity.OutstandingPaid, got.Status)
	assert.True(t, got.Consistent())
}
