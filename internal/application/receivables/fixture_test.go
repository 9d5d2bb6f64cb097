package receivables_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/accounting"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	domainacc "github.com/jhoicas/inventario-ledger/internal/domain/accounting"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const tenant = "t1"

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var accounts = receivables.Accounts{
	Receivable: "130505",
	Payable:    "220505",
	Revenue:    "413595",
	Cash:       "110505",
	Inventory:  "143505",
}

type fixture struct {
	now      time.Time
	store    *memory.Store
	journal  *accounting.JournalUseCase
	ledger   *receivables.LedgerUseCase
	payments *receivables.PaymentUseCase
}

func newFixture(now time.Time) *fixture {
	f := &fixture{now: now}
	clock := func() time.Time { return f.now }
	log := logger.NewNop()
	f.store = memory.NewStore(memory.WithClock(clock))
	v := domainacc.NewValidator(domainacc.DefaultTolerance, 3650)
	f.journal = accounting.NewJournalUseCase(f.store, v, clock, ports.NopMetrics{}, log)
	f.ledger = receivables.NewLedgerUseCase(f.store, f.journal, accounts, clock, log)
	f.payments = receivables.NewPaymentUseCase(f.store, f.journal, accounts, clock, ports.NopMetrics{}, log)
	return f
}

func (f *fixture) party(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.store.Run(context.Background(), func(r repository.Repos) error {
		return r.Parties.Create(context.Background(), &entity.Party{ID: id, TenantID: tenant, Name: id, CreditLimit: decimal.Zero})
	}))
}

func (f *fixture) invoice(t *testing.T, party, source, date, amount string) *entity.Outstanding {
	t.Helper()
	o, err := f.ledger.PostOutstanding(context.Background(), receivables.PostOutstandingInput{
		TenantID:     tenant,
		UserID:       "u1",
		Kind:         entity.OutstandingReceivable,
		PartyID:      party,
		SourceType:   "sales_order",
		SourceID:     source,
		SourceNumber: source,
		DocumentDate: day(date),
		DueDate:      day(date).AddDate(0, 0, 30),
		Amount:       d(amount),
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) outstanding(t *testing.T, id string) entity.Outstanding {
	t.Helper()
	o, err := f.ledger.GetOutstanding(context.Background(), tenant, id)
	require.NoError(t, err)
	return *o
}
