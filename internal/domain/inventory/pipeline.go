package inventory

import (
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// HandlerContext parámetros explícitos de la ejecución (no hay sesión global).
type HandlerContext struct {
	TenantID       string
	UserID         string
	Now            time.Time
	NearExpiryDays int
}

// Handler función pura sobre el lote: recibe el estado previo (old) y el acumulado (cur)
// y devuelve el nuevo estado más los eventos producidos.
type Handler func(old, cur entity.Batch, mov entity.Movement, hc HandlerContext) (entity.Batch, []entity.Event, error)

// Stage manejador con nombre, para trazas y tests.
type Stage struct {
	Name    string
	Handler Handler
}

// Pipeline secuencia ordenada de manejadores para un tipo de mutación.
type Pipeline []Stage

// MovementPipeline pipeline que se ejecuta por cada movimiento de stock.
// recomputeDerived siempre precede a checkEmptied.
func MovementPipeline() Pipeline {
	return Pipeline{
		{Name: "validateContract", Handler: ValidateContract},
		{Name: "applyQuantities", Handler: ApplyQuantities},
		{Name: "recomputeDerived", Handler: RecomputeDerived},
		{Name: "checkEmptied", Handler: CheckEmptied},
	}
}

// Applied resultado de aplicar un movimiento a un lote. Solo este paquete lo construye,
// de modo que el único camino para escribir cantidades de lote es pasar por el pipeline.
type Applied struct {
	batch    entity.Batch
	movement entity.Movement
	events   []entity.Event
	created  bool
}

// Batch estado final del lote.
func (a Applied) Batch() entity.Batch { return a.batch }

// Movement movimiento aceptado.
func (a Applied) Movement() entity.Movement { return a.movement }

// Events eventos emitidos por los manejadores, en orden.
func (a Applied) Events() []entity.Event { return a.events }

// Created indica que el lote nace con este movimiento (recepción de compra).
func (a Applied) Created() bool { return a.created }

// Run aplica el movimiento sobre un lote existente. Si algún manejador falla no se devuelve estado.
func (p Pipeline) Run(batch entity.Batch, mov entity.Movement, hc HandlerContext) (Applied, error) {
	if mov.BatchID != batch.ID || mov.ProductID != batch.ProductID || mov.TenantID != batch.TenantID {
		return Applied{}, &domain.InvalidMovementError{Type: mov.Type, Reason: "el movimiento no corresponde al lote"}
	}
	return p.run(batch, mov, hc, false)
}

// RunNew crea el lote a partir de una compra. El lote debe llegar sin cantidades.
func (p Pipeline) RunNew(batch entity.Batch, mov entity.Movement, hc HandlerContext) (Applied, error) {
	if mov.Type != entity.MovementPurchase {
		return Applied{}, &domain.InvalidMovementError{Type: mov.Type, Reason: "solo una compra puede crear un lote"}
	}
	if !batch.QuantityReceived.IsZero() || !batch.QuantityAvailable.IsZero() {
		return Applied{}, fmt.Errorf("lote nuevo con cantidades iniciales: %w", domain.ErrInvalidInput)
	}
	batch.Status = entity.BatchStatusActive
	batch.CreatedAt = hc.Now
	mov.BatchID = batch.ID
	return p.run(batch, mov, hc, true)
}

func (p Pipeline) run(batch entity.Batch, mov entity.Movement, hc HandlerContext, created bool) (Applied, error) {
	old := batch
	cur := batch
	var events []entity.Event
	for _, st := range p {
		next, evs, err := st.Handler(old, cur, mov, hc)
		if err != nil {
			return Applied{}, err
		}
		cur = next
		events = append(events, evs...)
	}
	cur.UpdatedAt = hc.Now
	return Applied{batch: cur, movement: mov, events: events, created: created}, nil
}
