package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentAllocation vincula un pago con un saldo pendiente y el monto aplicado.
type PaymentAllocation struct {
	ID              string
	TenantID        string
	PaymentID       string
	OutstandingID   string
	AllocatedAmount decimal.Decimal
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	AllocatedAt     time.Time
	CreatedBy       string
}
