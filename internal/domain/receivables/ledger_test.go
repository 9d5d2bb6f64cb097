package receivables_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/receivables"
)

func posting(amount string) receivables.Posting {
	return receivables.Posting{
		ID: "o1", TenantID: "t1", Kind: entity.OutstandingReceivable, PartyID: "c1",
		SourceType: "invoice", SourceID: "F-1", Amount: d(amount), DueDate: day("2025-02-01"),
		DocumentDate: day("2025-01-01"),
	}
}

func assertOutstandingInvariant(t *testing.T, o entity.Outstanding) {
	t.Helper()
	assert.True(t, o.Consistent(), "outstanding %s != total %s - paid %s", o.OutstandingAmount, o.TotalAmount, o.PaidAmount)
}

func TestOpen_ValidaEntrada(t *testing.T) {
	p := posting("0")
	_, err := receivables.Open(p, day("2025-01-01"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p = posting("10")
	p.Kind = "loan"
	_, err = receivables.Open(p, day("2025-01-01"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRepost_IdempotenteYDuplicado(t *testing.T) {
	ch, err := receivables.Open(posting("100"), day("2025-01-01"))
	require.NoError(t, err)
	o := ch.Outstanding()
	assert.True(t, ch.Created())

	_, err = receivables.Repost(o, posting("100"), day("2025-01-02"))
	var dup *domain.DuplicateAllocationError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "o1", dup.ExistingID)
	assert.Equal(t, "invoice/F-1", dup.Reference)

	upd, err := receivables.Repost(o, posting("150"), day("2025-01-02"))
	require.NoError(t, err)
	assert.False(t, upd.Created())
	assert.True(t, d("150").Equal(upd.Outstanding().OutstandingAmount))
	assertOutstandingInvariant(t, upd.Outstanding())
}

func TestRepost_TotalMenorQuePagado(t *testing.T) {
	ch, err := receivables.Open(posting("100"), day("2025-01-01"))
	require.NoError(t, err)
	plan := receivables.AllocateFIFO([]entity.Outstanding{ch.Outstanding()}, d("80"), day("2025-01-05"))
	paid := plan.Allocations[0].Change.Outstanding()

	_, err = receivables.Repost(paid, posting("50"), day("2025-01-06"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ch2, err := receivables.Repost(paid, posting("80"), day("2025-01-06"))
	require.NoError(t, err)
	assert.Equal(t, entity.OutstandingPaid, ch2.Outstanding().Status)
}

func TestCancel(t *testing.T) {
	ch, err := receivables.Open(posting("100"), day("2025-01-01"))
	require.NoError(t, err)

	c, err := receivables.Cancel(ch.Outstanding(), day("2025-01-02"))
	require.NoError(t, err)
	assert.Equal(t, entity.OutstandingCancelled, c.Outstanding().Status)

	_, err = receivables.Cancel(c.Outstanding(), day("2025-01-03"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	plan := receivables.AllocateFIFO([]entity.Outstanding{ch.Outstanding()}, d("1"), day("2025-01-05"))
	_, err = receivables.Cancel(plan.Allocations[0].Change.Outstanding(), day("2025-01-06"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}
