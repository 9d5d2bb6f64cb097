package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Candidates devuelve, en orden FEFO, los lotes que por sí solos cubren qty:
// estado active, sin vencimiento pasado y disponible >= qty, ordenados por vencimiento
// ascendente y luego por ID.
// Nunca se combina stock de varios lotes para una misma línea.
func Candidates(batches []entity.Batch, qty decimal.Decimal) []entity.Batch {
	out := make([]entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b.Allocatable(qty) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return fefoLess(out[i], out[j])
	})
	return out
}

// SelectFEFO elige el lote que vence primero entre los que cubren qty.
func SelectFEFO(batches []entity.Batch, qty decimal.Decimal) (entity.Batch, bool) {
	c := Candidates(batches, qty)
	if len(c) == 0 {
		return entity.Batch{}, false
	}
	return c[0], true
}

// BestAvailable mayor cantidad disponible en un único lote asignable (contexto de InsufficientStock).
func BestAvailable(batches []entity.Batch) decimal.Decimal {
	best := decimal.Zero
	for _, b := range batches {
		if b.Status == entity.BatchStatusActive && !b.PastExpiry() && b.QuantityAvailable.GreaterThan(best) {
			best = b.QuantityAvailable
		}
	}
	return best
}

// Lotes sin fecha de vencimiento van al final.
func fefoLess(a, b entity.Batch) bool {
	switch {
	case a.ExpiryDate.IsZero() && !b.ExpiryDate.IsZero():
		return false
	case !a.ExpiryDate.IsZero() && b.ExpiryDate.IsZero():
		return true
	case !a.ExpiryDate.Equal(b.ExpiryDate):
		return a.ExpiryDate.Before(b.ExpiryDate)
	}
	return a.ID < b.ID
}
