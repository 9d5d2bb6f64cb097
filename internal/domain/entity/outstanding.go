package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de saldo pendiente.
const (
	OutstandingReceivable = "receivable" // por cobrar (ventas)
	OutstandingPayable    = "payable"    // por pagar (compras)
)

// Estados de un saldo pendiente.
const (
	OutstandingOpen      = "open"
	OutstandingPartial   = "partial"
	OutstandingPaid      = "paid"
	OutstandingCancelled = "cancelled"
)

// Tramos de antigüedad.
const (
	AgingCurrent = "current"
	Aging1To30   = "1-30"
	Aging31To60  = "31-60"
	Aging61To90  = "61-90"
	Aging91To120 = "91-120"
	AgingOver120 = "120+"
)

// Prioridades de cobro.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Outstanding saldo pendiente de un documento (factura/orden o compra) con un tercero.
// Clave natural: (TenantID, SourceType, SourceID).
type Outstanding struct {
	ID                 string
	TenantID           string
	Kind               string
	PartyID            string
	SourceType         string
	SourceID           string
	SourceNumber       string
	DocumentDate       time.Time
	TotalAmount        decimal.Decimal
	PaidAmount         decimal.Decimal
	OutstandingAmount  decimal.Decimal
	DueDate            time.Time
	DaysOverdue        int
	AgingBucket        string
	Status             string
	NextFollowupDate   *time.Time
	CollectionPriority string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Consistent verifica outstanding = total - paid >= 0.
func (o *Outstanding) Consistent() bool {
	return o.OutstandingAmount.Equal(o.TotalAmount.Sub(o.PaidAmount)) && !o.OutstandingAmount.IsNegative()
}

// Payable indica si el saldo admite pagos.
func (o *Outstanding) Payable() bool {
	return (o.Status == OutstandingOpen || o.Status == OutstandingPartial) && o.OutstandingAmount.IsPositive()
}
