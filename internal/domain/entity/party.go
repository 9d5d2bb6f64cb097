package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Party tercero (cliente o proveedor). CreditLimit cero significa "sin límite configurado".
type Party struct {
	ID          string
	TenantID    string
	Name        string
	CreditLimit decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
