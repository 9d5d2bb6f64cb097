package receivables

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Change saldo pendiente recalculado por una función de este paquete.
// Es la única forma de entregar un Outstanding al repositorio para escritura.
type Change struct {
	o       entity.Outstanding
	created bool
}

// Outstanding estado final del saldo.
func (c Change) Outstanding() entity.Outstanding { return c.o }

// Created indica que el saldo se inserta por primera vez.
func (c Change) Created() bool { return c.created }

// Posting datos de un documento origen que genera saldo pendiente.
type Posting struct {
	ID           string
	TenantID     string
	Kind         string
	PartyID      string
	SourceType   string
	SourceID     string
	SourceNumber string
	DocumentDate time.Time
	Amount       decimal.Decimal
	DueDate      time.Time
}

func (p Posting) validate() error {
	if p.TenantID == "" || p.PartyID == "" || p.SourceType == "" || p.SourceID == "" {
		return fmt.Errorf("tenant, tercero y documento origen son obligatorios: %w", domain.ErrInvalidInput)
	}
	if p.Kind != entity.OutstandingReceivable && p.Kind != entity.OutstandingPayable {
		return fmt.Errorf("tipo de saldo %q: %w", p.Kind, domain.ErrInvalidInput)
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("el monto debe ser > 0: %w", domain.ErrInvalidInput)
	}
	return nil
}

// Open crea el saldo de un documento nuevo.
func Open(p Posting, now time.Time) (Change, error) {
	if err := p.validate(); err != nil {
		return Change{}, err
	}
	docDate := p.DocumentDate
	if docDate.IsZero() {
		docDate = now
	}
	o := entity.Outstanding{
		ID:           p.ID,
		TenantID:     p.TenantID,
		Kind:         p.Kind,
		PartyID:      p.PartyID,
		SourceType:   p.SourceType,
		SourceID:     p.SourceID,
		SourceNumber: p.SourceNumber,
		DocumentDate: docDate,
		TotalAmount:  p.Amount,
		PaidAmount:   decimal.Zero,
		DueDate:      p.DueDate,
		Status:       entity.OutstandingOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return Change{o: recompute(o, now), created: true}, nil
}

// Repost vuelve a publicar un documento ya registrado. Si nada cambia devuelve
// DuplicateAllocationError; si cambia el monto o el vencimiento, actualiza totales y estado.
func Repost(existing entity.Outstanding, p Posting, now time.Time) (Change, error) {
	if err := p.validate(); err != nil {
		return Change{}, err
	}
	if existing.PartyID != p.PartyID || existing.Kind != p.Kind {
		return Change{}, fmt.Errorf("el documento %s/%s ya pertenece a otro tercero: %w", p.SourceType, p.SourceID, domain.ErrConflict)
	}
	if existing.Status == entity.OutstandingCancelled {
		return Change{}, fmt.Errorf("saldo cancelado: %w", domain.ErrConflict)
	}
	sameDue := existing.DueDate.Equal(p.DueDate)
	if existing.TotalAmount.Equal(p.Amount) && sameDue {
		return Change{}, &domain.DuplicateAllocationError{
			ExistingID: existing.ID,
			Reference:  p.SourceType + "/" + p.SourceID,
		}
	}
	if p.Amount.LessThan(existing.PaidAmount) {
		return Change{}, fmt.Errorf("el nuevo total %s es menor que lo pagado %s: %w", p.Amount, existing.PaidAmount, domain.ErrInvalidInput)
	}
	o := existing
	o.TotalAmount = p.Amount
	o.DueDate = p.DueDate
	if p.SourceNumber != "" {
		o.SourceNumber = p.SourceNumber
	}
	o.UpdatedAt = now
	return Change{o: recompute(o, now)}, nil
}

// Refresh recalcula mora, tramo y prioridad con respecto a today.
func Refresh(o entity.Outstanding, today time.Time) Change {
	r := recompute(o, today)
	r.UpdatedAt = today
	return Change{o: r}
}

// Cancel solo se permite si no hay pagos aplicados.
func Cancel(o entity.Outstanding, now time.Time) (Change, error) {
	if o.Status == entity.OutstandingCancelled {
		return Change{}, fmt.Errorf("saldo ya cancelado: %w", domain.ErrConflict)
	}
	if o.PaidAmount.IsPositive() {
		return Change{}, fmt.Errorf("el saldo tiene pagos aplicados: %w", domain.ErrConflict)
	}
	o.Status = entity.OutstandingCancelled
	o.UpdatedAt = now
	return Change{o: recompute(o, now)}, nil
}
