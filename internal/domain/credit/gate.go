package credit

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Resultados del control de crédito.
const (
	Approved = "approved"
	Hold     = "hold"
)

// Decision resultado de evaluar una venta propuesta contra el cupo del tercero.
type Decision struct {
	Result             string
	PartyID            string
	CreditLimit        decimal.Decimal
	CurrentOutstanding decimal.Decimal
	Proposed           decimal.Decimal
	Exposure           decimal.Decimal
}

// Approved indica si la venta puede continuar sin retención.
func (d Decision) Approved() bool { return d.Result == Approved }

// Err devuelve CreditExceededError cuando la decisión es Hold. Es un fallo blando:
// la orden se guarda en credit_hold en lugar de abortar la transacción.
func (d Decision) Err() error {
	if d.Approved() {
		return nil
	}
	return &domain.CreditExceededError{PartyID: d.PartyID, Exposure: d.Exposure, CreditLimit: d.CreditLimit}
}

// Evaluate calcula la exposición del tercero: saldos por cobrar abiertos o parciales más el monto propuesto.
// Un límite en cero significa "sin límite configurado".
func Evaluate(party entity.Party, receivables []entity.Outstanding, proposed decimal.Decimal) Decision {
	current := decimal.Zero
	for _, o := range receivables {
		if o.PartyID != party.ID || o.Kind != entity.OutstandingReceivable {
			continue
		}
		if o.Status == entity.OutstandingOpen || o.Status == entity.OutstandingPartial {
			current = current.Add(o.OutstandingAmount)
		}
	}
	dec := Decision{
		Result:             Approved,
		PartyID:            party.ID,
		CreditLimit:        party.CreditLimit,
		CurrentOutstanding: current,
		Proposed:           proposed,
		Exposure:           current.Add(proposed),
	}
	if party.CreditLimit.IsZero() {
		return dec
	}
	if dec.Exposure.GreaterThan(party.CreditLimit) {
		dec.Result = Hold
	}
	return dec
}
