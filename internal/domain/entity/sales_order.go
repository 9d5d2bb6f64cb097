package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de venta.
const (
	OrderStatusDraft      = "draft"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusCreditHold = "credit_hold"
	OrderStatusFulfilled  = "fulfilled"
	OrderStatusInvoiced   = "invoiced"
	OrderStatusCancelled  = "cancelled"
)

// SourceSalesOrder tipo de documento origen para movimientos y saldos de una orden.
const SourceSalesOrder = "sales_order"

// SalesOrder cabecera de orden de venta.
type SalesOrder struct {
	ID        string
	TenantID  string
	PartyID   string
	Number    string
	OrderDate time.Time
	DueDate   time.Time
	Total     decimal.Decimal
	Status    string
	Lines     []SalesOrderLine
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SalesOrderLine línea de orden; BatchID se completa al despachar (un lote por línea).
type SalesOrderLine struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	BatchID   string
}

// Subtotal cantidad * precio.
func (l *SalesOrderLine) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Fulfillable solo las órdenes confirmadas pasan a despacho; credit_hold espera aprobación externa.
func (o *SalesOrder) Fulfillable() bool {
	return o.Status == OrderStatusConfirmed
}
