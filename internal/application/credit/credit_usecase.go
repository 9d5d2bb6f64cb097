package credit

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/credit"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// CreditUseCase control de cupo antes de que una venta pase a despachable.
type CreditUseCase struct {
	txRunner ports.TxRunner
	metrics  ports.Metrics
	log      *logger.Logger
}

// NewCreditUseCase construye el caso de uso.
func NewCreditUseCase(txRunner ports.TxRunner, metrics ports.Metrics, log *logger.Logger) *CreditUseCase {
	return &CreditUseCase{txRunner: txRunner, metrics: metrics, log: log.Component("credit")}
}

// PartyInput alta de tercero. ID vacío genera uno nuevo.
type PartyInput struct {
	TenantID    string
	ID          string
	Name        string
	CreditLimit decimal.Decimal
}

// RegisterParty crea el tercero con su cupo (cero = sin límite).
func (uc *CreditUseCase) RegisterParty(ctx context.Context, in PartyInput) (*entity.Party, error) {
	if in.TenantID == "" || strings.TrimSpace(in.Name) == "" || in.CreditLimit.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}
	t := ports.SystemClock()
	p := &entity.Party{ID: id, TenantID: in.TenantID, Name: strings.TrimSpace(in.Name), CreditLimit: in.CreditLimit, CreatedAt: t, UpdatedAt: t}
	if err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		return repos.Parties.Create(ctx, p)
	}); err != nil {
		return nil, err
	}
	return p, nil
}

// GetParty tercero por ID; ErrNotFound si no existe.
func (uc *CreditUseCase) GetParty(ctx context.Context, tenantID, id string) (*entity.Party, error) {
	var p *entity.Party
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		var err error
		p, err = repos.Parties.GetByID(ctx, tenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// CheckCredit evalúa la venta propuesta sobre una vista consistente de los saldos del tercero.
// Hold no es un error: el llamador decide cómo persistir la retención.
func (uc *CreditUseCase) CheckCredit(ctx context.Context, tenantID, partyID string, amount decimal.Decimal) (credit.Decision, error) {
	var dec credit.Decision
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		var err error
		dec, err = uc.CheckCreditInTx(ctx, repos, tenantID, partyID, amount)
		return err
	})
	return dec, err
}

// CheckCreditInTx igual que CheckCredit pero en la transacción del llamador.
func (uc *CreditUseCase) CheckCreditInTx(ctx context.Context, repos repository.Repos, tenantID, partyID string, amount decimal.Decimal) (credit.Decision, error) {
	if amount.IsNegative() {
		return credit.Decision{}, fmt.Errorf("monto propuesto negativo: %w", domain.ErrInvalidInput)
	}
	party, err := repos.Parties.GetByID(ctx, tenantID, partyID)
	if err != nil {
		return credit.Decision{}, err
	}
	if party == nil {
		return credit.Decision{}, fmt.Errorf("tercero %s: %w", partyID, domain.ErrNotFound)
	}
	rows, err := repos.Outstanding.ListOpenByParty(ctx, tenantID, entity.OutstandingReceivable, partyID, false)
	if err != nil {
		return credit.Decision{}, err
	}
	dec := credit.Evaluate(*party, rows, amount)
	uc.metrics.ObserveCreditDecision(dec.Result)
	if !dec.Approved() {
		uc.log.Warn().
			Str("tenant_id", tenantID).
			Str("party_id", partyID).
			Str("exposure", dec.Exposure.String()).
			Str("credit_limit", dec.CreditLimit.String()).
			Msg("cupo de crédito excedido")
	}
	return dec, nil
}
