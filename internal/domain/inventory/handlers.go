package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ValidateContract verifica el contrato de signo/cantidad del tipo de movimiento
// contra el estado actual del lote.
func ValidateContract(_, cur entity.Batch, mov entity.Movement, hc HandlerContext) (entity.Batch, []entity.Event, error) {
	in, out := mov.QuantityIn, mov.QuantityOut
	invalid := func(reason string) error {
		return &domain.InvalidMovementError{Type: mov.Type, Reason: reason}
	}
	if in.IsNegative() || out.IsNegative() {
		return cur, nil, invalid("las cantidades no pueden ser negativas")
	}

	switch mov.Type {
	case entity.MovementPurchase, entity.MovementSalesReturn:
		if !in.IsPositive() || !out.IsZero() {
			return cur, nil, invalid("requiere cantidad de entrada > 0 y salida = 0")
		}
	case entity.MovementSales:
		if !out.IsPositive() || !in.IsZero() {
			return cur, nil, invalid("requiere cantidad de salida > 0 y entrada = 0")
		}
		if cur.Status == entity.BatchStatusExpired || cur.Status == entity.BatchStatusBlocked {
			return cur, nil, invalid("el lote está " + cur.Status)
		}
		if cur.ExpiredAt(hc.Now) {
			return cur, nil, invalid("el lote venció el " + cur.ExpiryDate.Format("2006-01-02"))
		}
		if err := checkReduction(mov, cur, out); err != nil {
			return cur, nil, err
		}
	case entity.MovementStockDamage, entity.MovementStockExpiry:
		if !out.IsPositive() || !in.IsZero() {
			return cur, nil, invalid("requiere cantidad de salida > 0 y entrada = 0")
		}
		if err := checkReduction(mov, cur, out); err != nil {
			return cur, nil, err
		}
	case entity.MovementStockCount, entity.MovementStockAdjustment:
		if in.IsPositive() == out.IsPositive() {
			return cur, nil, invalid("exactamente una de entrada/salida debe ser > 0")
		}
		if out.IsPositive() {
			if err := checkReduction(mov, cur, out); err != nil {
				return cur, nil, err
			}
		}
	default:
		return cur, nil, invalid("tipo de movimiento desconocido")
	}
	return cur, nil, nil
}

func checkReduction(mov entity.Movement, b entity.Batch, out decimal.Decimal) error {
	if out.GreaterThan(b.QuantityAvailable) {
		return &domain.InvalidMovementError{
			Type:      mov.Type,
			Reason:    "la salida supera la cantidad disponible",
			Available: b.QuantityAvailable,
			Requested: out,
		}
	}
	return nil
}

// ApplyQuantities aplica el efecto de stock. Las bajas (vencimiento, conteo o ajuste negativo)
// se acumulan en quantity_damaged y las altas de conteo/ajuste en quantity_received.
func ApplyQuantities(_, cur entity.Batch, mov entity.Movement, _ HandlerContext) (entity.Batch, []entity.Event, error) {
	in, out := mov.QuantityIn, mov.QuantityOut
	var events []entity.Event

	switch mov.Type {
	case entity.MovementPurchase:
		cur.QuantityReceived = cur.QuantityReceived.Add(in)
		cur.QuantityAvailable = cur.QuantityAvailable.Add(in)
	case entity.MovementSales:
		cur.QuantitySold = cur.QuantitySold.Add(out)
		cur.QuantityAvailable = cur.QuantityAvailable.Sub(out)
	case entity.MovementSalesReturn:
		cur.QuantityReturned = cur.QuantityReturned.Add(in)
		cur.QuantityAvailable = cur.QuantityAvailable.Add(in)
	case entity.MovementStockDamage:
		cur.QuantityDamaged = cur.QuantityDamaged.Add(out)
		cur.QuantityAvailable = cur.QuantityAvailable.Sub(out)
	case entity.MovementStockExpiry:
		cur.QuantityDamaged = cur.QuantityDamaged.Add(out)
		cur.QuantityAvailable = cur.QuantityAvailable.Sub(out)
		if cur.Status != entity.BatchStatusExpired {
			cur.Status = entity.BatchStatusExpired
			events = append(events, batchEvent(entity.NotificationBatchExpired, cur, mov))
		}
	case entity.MovementStockCount, entity.MovementStockAdjustment:
		if in.IsPositive() {
			cur.QuantityReceived = cur.QuantityReceived.Add(in)
			cur.QuantityAvailable = cur.QuantityAvailable.Add(in)
		} else {
			cur.QuantityDamaged = cur.QuantityDamaged.Add(out)
			cur.QuantityAvailable = cur.QuantityAvailable.Sub(out)
		}
	}
	return cur, events, nil
}

// RecomputeDerived estado y campos de vencimiento. expired y blocked no cambian por cantidad.
func RecomputeDerived(_, cur entity.Batch, mov entity.Movement, hc HandlerContext) (entity.Batch, []entity.Event, error) {
	switch cur.Status {
	case entity.BatchStatusExpired, entity.BatchStatusBlocked:
	default:
		if cur.QuantityAvailable.IsZero() {
			cur.Status = entity.BatchStatusOutOfStock
		} else {
			cur.Status = entity.BatchStatusActive
		}
	}
	cur.RefreshExpiry(hc.Now, hc.NearExpiryDays)

	if !cur.Consistent() {
		return cur, nil, &domain.InvalidMovementError{
			Type:      mov.Type,
			Reason:    "el lote quedaría inconsistente",
			Available: cur.ExpectedAvailable(),
			Requested: cur.QuantityAvailable,
		}
	}
	return cur, nil, nil
}

// CheckEmptied emite batch_emptied cuando el disponible llega a cero con este movimiento.
func CheckEmptied(old, cur entity.Batch, mov entity.Movement, _ HandlerContext) (entity.Batch, []entity.Event, error) {
	if old.QuantityAvailable.IsPositive() && cur.QuantityAvailable.IsZero() {
		return cur, []entity.Event{batchEvent(entity.NotificationBatchEmptied, cur, mov)}, nil
	}
	return cur, nil, nil
}

func batchEvent(kind string, b entity.Batch, mov entity.Movement) entity.Event {
	return entity.Event{
		Kind: kind,
		Payload: map[string]any{
			"batch_id":      b.ID,
			"product_id":    b.ProductID,
			"lot_code":      b.LotCode,
			"movement_type": mov.Type,
			"reference_id":  mov.ReferenceID,
		},
	}
}
