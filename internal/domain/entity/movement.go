package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementPurchase        = "purchase"
	MovementSales           = "sales"
	MovementSalesReturn     = "sales_return"
	MovementStockDamage     = "stock_damage"
	MovementStockExpiry     = "stock_expiry"
	MovementStockCount      = "stock_count"
	MovementStockAdjustment = "stock_adjustment"
)

// MovementTypes tipos aceptados por el diario de movimientos.
var MovementTypes = []string{
	MovementPurchase, MovementSales, MovementSalesReturn, MovementStockDamage,
	MovementStockExpiry, MovementStockCount, MovementStockAdjustment,
}

// IsMovementType indica si t es un tipo de movimiento conocido.
func IsMovementType(t string) bool {
	for _, mt := range MovementTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// Movement registro inmutable de un cambio de stock. Las correcciones son un nuevo movimiento de signo opuesto.
type Movement struct {
	ID            string
	TenantID      string
	Type          string
	ProductID     string
	BatchID       string
	QuantityIn    decimal.Decimal
	QuantityOut   decimal.Decimal
	ReferenceType string // qué lo originó: sales_order, purchase_receipt, stock_count...
	ReferenceID   string
	CreatedBy     string
	CreatedAt     time.Time
}

// Net cantidad neta (entrada - salida).
func (m *Movement) Net() decimal.Decimal {
	return m.QuantityIn.Sub(m.QuantityOut)
}
