package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un lote.
const (
	BatchStatusActive     = "active"
	BatchStatusOutOfStock = "out_of_stock"
	BatchStatusExpired    = "expired"
	BatchStatusBlocked    = "blocked"
)

// DefaultNearExpiryDays umbral por defecto de "próximo a vencer".
const DefaultNearExpiryDays = 90

// Batch representa un lote recibido de un producto (cantidades, vencimiento y estado).
// Las cantidades solo las modifica el manejador de movimientos; nunca se elimina.
type Batch struct {
	ID                string
	TenantID          string
	ProductID         string
	LotCode           string
	ExpiryDate        time.Time
	ManufacturingDate time.Time // cero = desconocida
	QuantityReceived  decimal.Decimal
	QuantityAvailable decimal.Decimal
	QuantitySold      decimal.Decimal
	QuantityDamaged   decimal.Decimal
	QuantityReturned  decimal.Decimal
	Status            string
	DaysToExpiry      int  // derivado, se recalcula en cada lectura/escritura
	NearExpiry        bool // derivado: DaysToExpiry <= umbral
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ExpectedAvailable cantidad disponible que exige el invariante del lote.
func (b *Batch) ExpectedAvailable() decimal.Decimal {
	return b.QuantityReceived.Sub(b.QuantitySold).Sub(b.QuantityDamaged).Add(b.QuantityReturned)
}

// Consistent verifica available = received - sold - damaged + returned >= 0.
func (b *Batch) Consistent() bool {
	return b.QuantityAvailable.Equal(b.ExpectedAvailable()) && !b.QuantityAvailable.IsNegative()
}

// Allocatable indica si el lote puede entregar qty en una venta. Un lote con la fecha de
// vencimiento ya pasada no se asigna aunque el barrido aún no lo haya marcado expired.
func (b *Batch) Allocatable(qty decimal.Decimal) bool {
	return b.Status == BatchStatusActive && !b.PastExpiry() && b.QuantityAvailable.GreaterThanOrEqual(qty)
}

// PastExpiry vencimiento anterior a hoy según DaysToExpiry (recalculado en cada lectura).
func (b *Batch) PastExpiry() bool {
	return !b.ExpiryDate.IsZero() && b.DaysToExpiry < 0
}

// ExpiredAt vencimiento anterior al día de now.
func (b *Batch) ExpiredAt(now time.Time) bool {
	return !b.ExpiryDate.IsZero() && DaysBetween(now, b.ExpiryDate) < 0
}

// RefreshExpiry recalcula DaysToExpiry y NearExpiry con respecto a now.
func (b *Batch) RefreshExpiry(now time.Time, nearExpiryDays int) {
	if nearExpiryDays <= 0 {
		nearExpiryDays = DefaultNearExpiryDays
	}
	if b.ExpiryDate.IsZero() {
		b.DaysToExpiry = 0
		b.NearExpiry = false
		return
	}
	b.DaysToExpiry = DaysBetween(now, b.ExpiryDate)
	b.NearExpiry = b.DaysToExpiry <= nearExpiryDays
}

// DaysBetween días calendario (UTC) de from a to; negativo si to es anterior.
func DaysBetween(from, to time.Time) int {
	f := truncateDay(from)
	t := truncateDay(to)
	return int(t.Sub(f).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
