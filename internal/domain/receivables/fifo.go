package receivables

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Allocation porción de un pago aplicada a un saldo.
type Allocation struct {
	OutstandingID string
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Change        Change
}

// Plan resultado de distribuir un pago.
type Plan struct {
	Allocations []Allocation
	Applied     decimal.Decimal
	Unapplied   decimal.Decimal
}

// SortFIFO ordena por fecha del documento ascendente y luego por ID.
func SortFIFO(rows []entity.Outstanding) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].DocumentDate.Equal(rows[j].DocumentDate) {
			return rows[i].DocumentDate.Before(rows[j].DocumentDate)
		}
		return rows[i].ID < rows[j].ID
	})
}

// AllocateFIFO reparte amount sobre los saldos abiertos, del más antiguo al más reciente.
// Cada saldo se paga completo mientras alcance; el primero que no alcanza recibe el resto
// y los siguientes quedan intactos. Un pago de cero no genera asignaciones.
func AllocateFIFO(rows []entity.Outstanding, amount decimal.Decimal, today time.Time) Plan {
	plan := Plan{Applied: decimal.Zero, Unapplied: amount}
	if !amount.IsPositive() {
		plan.Unapplied = decimal.Zero
		return plan
	}
	open := make([]entity.Outstanding, 0, len(rows))
	for _, o := range rows {
		if o.Payable() {
			open = append(open, o)
		}
	}
	SortFIFO(open)

	remaining := amount
	for _, o := range open {
		if !remaining.IsPositive() {
			break
		}
		pay := decimal.Min(remaining, o.OutstandingAmount)
		before := o.OutstandingAmount
		o.PaidAmount = o.PaidAmount.Add(pay)
		o.UpdatedAt = today
		ch := Change{o: recompute(o, today)}
		plan.Allocations = append(plan.Allocations, Allocation{
			OutstandingID: o.ID,
			Amount:        pay,
			BalanceBefore: before,
			BalanceAfter:  ch.o.OutstandingAmount,
			Change:        ch,
		})
		remaining = remaining.Sub(pay)
		plan.Applied = plan.Applied.Add(pay)
	}
	plan.Unapplied = remaining
	return plan
}
