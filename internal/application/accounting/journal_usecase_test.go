package accounting_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/accounting"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	domainacc "github.com/jhoicas/inventario-ledger/internal/domain/accounting"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const tenant = "t1"

var today = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type countingMetrics struct {
	ports.NopMetrics
	journal map[string]int
}

func (m *countingMetrics) ObserveJournal(result string) { m.journal[result]++ }

func newJournal() (*accounting.JournalUseCase, *countingMetrics) {
	clock := func() time.Time { return today }
	m := &countingMetrics{journal: map[string]int{}}
	s := memory.NewStore(memory.WithClock(clock))
	v := domainacc.NewValidator(domainacc.DefaultTolerance, domainacc.DefaultBackdateDays)
	return accounting.NewJournalUseCase(s, v, clock, m, logger.NewNop()), m
}

func entry(debit, credit string) accounting.JournalInput {
	return accounting.JournalInput{
		TenantID:    tenant,
		UserID:      "u1",
		EntryDate:   today,
		Description: "venta de contado",
		Lines: []accounting.LineInput{
			{AccountCode: "110505", Debit: d(debit), Credit: decimal.Zero},
			{AccountCode: "413595", Debit: decimal.Zero, Credit: d(credit)},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Contabilización
// ──────────────────────────────────────────────────────────────────────────────

func TestPostJournalEntry_Cuadrado(t *testing.T) {
	uc, m := newJournal()
	e, err := uc.PostJournalEntry(context.Background(), entry("100", "100"))
	require.NoError(t, err)
	assert.Equal(t, entity.JournalStatusPosted, e.Status)
	assert.True(t, d("100").Equal(e.TotalDebit))
	assert.True(t, d("100").Equal(e.TotalCredit))
	assert.False(t, e.FlaggedForAudit)
	assert.NotEmpty(t, e.Number)
	require.NotNil(t, e.PostedAt)
	assert.Equal(t, 1, m.journal[ports.ResultOK])
}

func TestPostJournalEntry_DentroDeTolerancia(t *testing.T) {
	uc, _ := newJournal()
	_, err := uc.PostJournalEntry(context.Background(), entry("100.00", "100.01"))
	assert.NoError(t, err)
}

func TestPostJournalEntry_Descuadrado(t *testing.T) {
	uc, m := newJournal()
	_, err := uc.PostJournalEntry(context.Background(), entry("100", "99.98"))
	var ub *domain.UnbalancedEntryError
	require.ErrorAs(t, err, &ub)
	assert.True(t, d("0.02").Equal(ub.Difference()))
	assert.Equal(t, 1, m.journal[ports.ResultUnbalanced])
}

func TestPostJournalEntry_PeriodoCerrado(t *testing.T) {
	uc, m := newJournal()
	p, err := uc.OpenPeriod(context.Background(), tenant, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = uc.SetPeriodStatus(context.Background(), tenant, p.ID, entity.PeriodClosed)
	require.NoError(t, err)

	_, err = uc.PostJournalEntry(context.Background(), entry("10", "10"))
	var cp *domain.ClosedPeriodError
	require.ErrorAs(t, err, &cp)
	assert.Equal(t, p.ID, cp.PeriodID)
	assert.Equal(t, 1, m.journal[ports.ResultClosedPeriod])

	// Fuera del periodo cerrado sí se admite.
	in := entry("10", "10")
	in.EntryDate = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err = uc.PostJournalEntry(context.Background(), in)
	assert.NoError(t, err)
}

func TestPostJournalEntry_AtrasadoSeMarcaParaAuditoria(t *testing.T) {
	uc, m := newJournal()
	in := entry("50", "50")
	in.EntryDate = today.AddDate(0, 0, -8)
	e, err := uc.PostJournalEntry(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, e.FlaggedForAudit)
	assert.Equal(t, 1, m.journal[ports.ResultFlagged])

	in.EntryDate = today.AddDate(0, 0, -7)
	e, err = uc.PostJournalEntry(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, e.FlaggedForAudit)
}

func TestPostJournalEntry_LineaConAmbosLados(t *testing.T) {
	uc, _ := newJournal()
	in := entry("10", "10")
	in.Lines[0].Credit = d("1")
	_, err := uc.PostJournalEntry(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Borradores
// ──────────────────────────────────────────────────────────────────────────────

func TestReplaceDraftLines_DescuadreNoAlteraCabecera(t *testing.T) {
	uc, _ := newJournal()
	draft, err := uc.SaveDraft(context.Background(), entry("100", "100"))
	require.NoError(t, err)
	assert.Equal(t, entity.JournalStatusDraft, draft.Status)

	_, err = uc.ReplaceDraftLines(context.Background(), tenant, draft.ID, []accounting.LineInput{
		{AccountCode: "110505", Debit: d("100"), Credit: decimal.Zero},
		{AccountCode: "413595", Debit: decimal.Zero, Credit: d("90")},
	})
	require.ErrorIs(t, err, domain.ErrUnbalancedEntry)

	posted, err := uc.PostDraft(context.Background(), tenant, draft.ID)
	require.NoError(t, err)
	assert.True(t, d("100").Equal(posted.TotalDebit))
	assert.Len(t, posted.Lines, 2)
}

func TestReplaceDraftLines_ActualizaTotales(t *testing.T) {
	uc, _ := newJournal()
	draft, err := uc.SaveDraft(context.Background(), entry("100", "100"))
	require.NoError(t, err)

	updated, err := uc.ReplaceDraftLines(context.Background(), tenant, draft.ID, []accounting.LineInput{
		{AccountCode: "110505", Debit: d("60"), Credit: decimal.Zero},
		{AccountCode: "130505", Debit: d("60"), Credit: decimal.Zero},
		{AccountCode: "413595", Debit: decimal.Zero, Credit: d("120")},
	})
	require.NoError(t, err)
	assert.True(t, d("120").Equal(updated.TotalCredit))
	require.Len(t, updated.Lines, 3)
	assert.Equal(t, 3, updated.Lines[2].LineNo)
}

func TestPostDraft_Irreversible(t *testing.T) {
	uc, _ := newJournal()
	draft, err := uc.SaveDraft(context.Background(), entry("5", "5"))
	require.NoError(t, err)
	_, err = uc.PostDraft(context.Background(), tenant, draft.ID)
	require.NoError(t, err)

	_, err = uc.PostDraft(context.Background(), tenant, draft.ID)
	assert.ErrorIs(t, err, domain.ErrImmutable)

	_, err = uc.ReplaceDraftLines(context.Background(), tenant, draft.ID, []accounting.LineInput{
		{AccountCode: "1", Debit: d("1"), Credit: decimal.Zero},
		{AccountCode: "2", Debit: decimal.Zero, Credit: d("1")},
	})
	assert.ErrorIs(t, err, domain.ErrImmutable)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reversos y periodos
// ──────────────────────────────────────────────────────────────────────────────

func TestReverseEntry_Espejo(t *testing.T) {
	uc, _ := newJournal()
	in := entry("100", "100")
	in.SourceType, in.SourceID = "sales_order", "SO-1"
	e, err := uc.PostJournalEntry(context.Background(), in)
	require.NoError(t, err)

	rev, err := uc.ReverseEntry(context.Background(), tenant, "u2", e.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, e.ID, rev.ReversalOf)
	require.Len(t, rev.Lines, 2)
	assert.Equal(t, "110505", rev.Lines[0].AccountCode)
	assert.True(t, d("100").Equal(rev.Lines[0].Credit))
	assert.True(t, rev.Lines[0].Debit.IsZero())

	_, err = uc.ReverseEntry(context.Background(), tenant, "u2", e.ID, time.Time{})
	assert.ErrorIs(t, err, domain.ErrConflict)

	bySource, err := uc.EntriesBySource(context.Background(), tenant, "sales_order", "SO-1")
	require.NoError(t, err)
	assert.Len(t, bySource, 2)
}

func TestReverseEntry_BorradorNoSeRevierte(t *testing.T) {
	uc, _ := newJournal()
	draft, err := uc.SaveDraft(context.Background(), entry("5", "5"))
	require.NoError(t, err)
	_, err = uc.ReverseEntry(context.Background(), tenant, "u1", draft.ID, time.Time{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOpenPeriod_Solapado(t *testing.T) {
	uc, _ := newJournal()
	_, err := uc.OpenPeriod(context.Background(), tenant, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = uc.OpenPeriod(context.Background(), tenant, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSetPeriodStatus_BloqueadoEsDefinitivo(t *testing.T) {
	uc, _ := newJournal()
	p, err := uc.OpenPeriod(context.Background(), tenant, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = uc.SetPeriodStatus(context.Background(), tenant, p.ID, entity.PeriodLocked)
	require.NoError(t, err)
	_, err = uc.SetPeriodStatus(context.Background(), tenant, p.ID, entity.PeriodOpen)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
