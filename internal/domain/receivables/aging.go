package receivables

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Umbrales de prioridad de cobro (días de mora / monto pendiente).
var (
	urgentAmount = decimal.NewFromInt(100_000)
	highAmount   = decimal.NewFromInt(50_000)
	normalAmount = decimal.NewFromInt(25_000)
)

// DaysOverdue max(0, today - due).
func DaysOverdue(due, today time.Time) int {
	if due.IsZero() {
		return 0
	}
	n := entity.DaysBetween(due, today)
	if n < 0 {
		return 0
	}
	return n
}

// Bucket tramo de antigüedad según días de mora.
func Bucket(daysOverdue int) string {
	switch {
	case daysOverdue <= 0:
		return entity.AgingCurrent
	case daysOverdue <= 30:
		return entity.Aging1To30
	case daysOverdue <= 60:
		return entity.Aging31To60
	case daysOverdue <= 90:
		return entity.Aging61To90
	case daysOverdue <= 120:
		return entity.Aging91To120
	default:
		return entity.AgingOver120
	}
}

// Priority prioridad de cobro: función pura de la mora y del saldo pendiente.
func Priority(daysOverdue int, outstanding decimal.Decimal) string {
	switch {
	case daysOverdue > 90 || outstanding.GreaterThan(urgentAmount):
		return entity.PriorityUrgent
	case daysOverdue > 60 || outstanding.GreaterThan(highAmount):
		return entity.PriorityHigh
	case daysOverdue > 30 || outstanding.GreaterThan(normalAmount):
		return entity.PriorityNormal
	default:
		return entity.PriorityLow
	}
}

// FollowupDays días hasta el primer seguimiento según prioridad.
func FollowupDays(priority string) int {
	switch priority {
	case entity.PriorityUrgent:
		return 1
	case entity.PriorityHigh:
		return 3
	case entity.PriorityNormal:
		return 7
	default:
		return 14
	}
}

// Status estado derivado del saldo y del estado de pago; cancelled es terminal.
func Status(o entity.Outstanding) string {
	switch {
	case o.Status == entity.OutstandingCancelled:
		return entity.OutstandingCancelled
	case o.OutstandingAmount.IsZero():
		return entity.OutstandingPaid
	case o.PaidAmount.IsPositive():
		return entity.OutstandingPartial
	default:
		return entity.OutstandingOpen
	}
}

// recompute aplica saldo, estado, antigüedad y primer seguimiento.
func recompute(o entity.Outstanding, today time.Time) entity.Outstanding {
	o.OutstandingAmount = o.TotalAmount.Sub(o.PaidAmount)
	o.Status = Status(o)
	o.DaysOverdue = DaysOverdue(o.DueDate, today)
	o.AgingBucket = Bucket(o.DaysOverdue)
	o.CollectionPriority = Priority(o.DaysOverdue, o.OutstandingAmount)
	if o.NextFollowupDate == nil && (o.Status == entity.OutstandingOpen || o.Status == entity.OutstandingPartial) {
		next := dayOf(today).AddDate(0, 0, FollowupDays(o.CollectionPriority))
		o.NextFollowupDate = &next
	}
	return o
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
