package receivables_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/receivables"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ──────────────────────────────────────────────────────────────────────────────
// Antigüedad y prioridad
// ──────────────────────────────────────────────────────────────────────────────

func TestBucket_Limites(t *testing.T) {
	cases := map[int]string{
		0: entity.AgingCurrent, 1: entity.Aging1To30, 30: entity.Aging1To30,
		31: entity.Aging31To60, 60: entity.Aging31To60, 61: entity.Aging61To90,
		90: entity.Aging61To90, 91: entity.Aging91To120, 120: entity.Aging91To120,
		121: entity.AgingOver120, 400: entity.AgingOver120,
	}
	for days, want := range cases {
		assert.Equal(t, want, receivables.Bucket(days), "días %d", days)
	}
}

func TestPriority_PorMoraOMonto(t *testing.T) {
	cases := []struct {
		days   int
		amount string
		want   string
	}{
		{0, "100", entity.PriorityLow},
		{30, "25000", entity.PriorityLow},
		{31, "100", entity.PriorityNormal},
		{0, "25000.01", entity.PriorityNormal},
		{61, "100", entity.PriorityHigh},
		{0, "50001", entity.PriorityHigh},
		{91, "1", entity.PriorityUrgent},
		{0, "100000.01", entity.PriorityUrgent},
		{45, "60000", entity.PriorityHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, receivables.Priority(tc.days, d(tc.amount)), "%d días / %s", tc.days, tc.amount)
	}
}

func TestDaysOverdue_NuncaNegativo(t *testing.T) {
	assert.Equal(t, 0, receivables.DaysOverdue(day("2025-03-01"), day("2025-02-01")))
	assert.Equal(t, 10, receivables.DaysOverdue(day("2025-03-01"), day("2025-03-11")))
	assert.Equal(t, 0, receivables.DaysOverdue(time.Time{}, day("2025-03-11")))
}

func TestRefresh_SeguimientoSeFijaUnaSolaVez(t *testing.T) {
	ch, err := receivables.Open(receivables.Posting{
		ID: "o1", TenantID: "t1", Kind: entity.OutstandingReceivable, PartyID: "c1",
		SourceType: "invoice", SourceID: "F-1", Amount: d("1000"), DueDate: day("2025-01-31"),
	}, day("2025-01-01"))
	require.NoError(t, err)

	o := ch.Outstanding()
	require.NotNil(t, o.NextFollowupDate)
	assert.Equal(t, day("2025-01-15"), *o.NextFollowupDate, "prioridad low = +14 días")
	first := *o.NextFollowupDate

	later := receivables.Refresh(o, day("2025-05-15")).Outstanding()
	assert.Equal(t, 104, later.DaysOverdue)
	assert.Equal(t, entity.Aging91To120, later.AgingBucket)
	assert.Equal(t, entity.PriorityUrgent, later.CollectionPriority)
	assert.Equal(t, first, *later.NextFollowupDate, "no se sobreescribe")
}

func TestRefresh_SinSeguimientoSiEstaPagado(t *testing.T) {
	o := entity.Outstanding{
		ID: "o1", TotalAmount: d("10"), PaidAmount: d("10"), Status: entity.OutstandingPaid,
	}
	got := receivables.Refresh(o, day("2025-01-01")).Outstanding()
	assert.Equal(t, entity.OutstandingPaid, got.Status)
	assert.Nil(t, got.NextFollowupDate)
}
