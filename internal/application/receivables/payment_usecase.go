package receivables

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// PaymentUseCase distribuye pagos sobre los saldos abiertos de un tercero (FIFO por fecha de documento).
type PaymentUseCase struct {
	txRunner ports.TxRunner
	poster   autoPoster
	clock    ports.Clock
	metrics  ports.Metrics
	log      *logger.Logger
}

// NewPaymentUseCase construye el caso de uso. journal puede ser nil.
func NewPaymentUseCase(txRunner ports.TxRunner, journal JournalPoster, accounts Accounts, clock ports.Clock, metrics ports.Metrics, log *logger.Logger) *PaymentUseCase {
	return &PaymentUseCase{
		txRunner: txRunner,
		poster:   autoPoster{journal: journal, accounts: accounts},
		clock:    clock,
		metrics:  metrics,
		log:      log.Component("payments"),
	}
}

// PaymentInput pago recibido (o emitido, si Kind = payable).
type PaymentInput struct {
	TenantID    string
	UserID      string
	PaymentID   string
	PartyID     string
	Kind        string
	Amount      decimal.Decimal
	PaymentDate time.Time
}

// PaymentResult asignaciones creadas y monto no aplicado (anticipo a favor del tercero).
type PaymentResult struct {
	PaymentID   string
	Allocations []entity.PaymentAllocation
	Applied     decimal.Decimal
	Unapplied   decimal.Decimal
}

// AllocatePayment aplica el pago del más antiguo al más reciente. Reusar un PaymentID devuelve
// DuplicateAllocationError; un pago de cero no genera asignaciones.
func (uc *PaymentUseCase) AllocatePayment(ctx context.Context, in PaymentInput) (*PaymentResult, error) {
	if in.TenantID == "" || in.PartyID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("monto de pago negativo: %w", domain.ErrInvalidInput)
	}
	if in.Kind == "" {
		in.Kind = entity.OutstandingReceivable
	}
	if in.Kind != entity.OutstandingReceivable && in.Kind != entity.OutstandingPayable {
		return nil, fmt.Errorf("tipo de saldo %q: %w", in.Kind, domain.ErrInvalidInput)
	}
	if in.PaymentID == "" {
		in.PaymentID = uuid.New().String()
	}

	res := &PaymentResult{PaymentID: in.PaymentID, Applied: decimal.Zero, Unapplied: decimal.Zero}
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		prev, err := repos.Allocations.ListByPayment(ctx, in.TenantID, in.PaymentID)
		if err != nil {
			return err
		}
		if len(prev) > 0 {
			return &domain.DuplicateAllocationError{ExistingID: prev[0].ID, Reference: "payment/" + in.PaymentID}
		}
		if in.Amount.IsZero() {
			return nil
		}

		rows, err := repos.Outstanding.ListOpenByParty(ctx, in.TenantID, in.Kind, in.PartyID, true)
		if err != nil {
			return err
		}
		now := uc.clock()
		plan := receivables.AllocateFIFO(rows, in.Amount, now)

		for _, a := range plan.Allocations {
			if err := repos.Outstanding.Save(ctx, a.Change); err != nil {
				return err
			}
			pa := entity.PaymentAllocation{
				ID:              uuid.New().String(),
				TenantID:        in.TenantID,
				PaymentID:       in.PaymentID,
				OutstandingID:   a.OutstandingID,
				AllocatedAmount: a.Amount,
				BalanceBefore:   a.BalanceBefore,
				BalanceAfter:    a.BalanceAfter,
				AllocatedAt:     now,
				CreatedBy:       in.UserID,
			}
			if err := repos.Allocations.Create(ctx, &pa); err != nil {
				return err
			}
			res.Allocations = append(res.Allocations, pa)
		}
		res.Applied = plan.Applied
		res.Unapplied = plan.Unapplied

		date := in.PaymentDate
		if date.IsZero() {
			date = now
		}
		return uc.poster.postPayment(ctx, repos, in.UserID, in.TenantID, in.Kind, in.PaymentID, plan.Applied, date)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.ObservePayment(len(res.Allocations))
	if res.Unapplied.IsPositive() {
		uc.log.Info().
			Str("tenant_id", in.TenantID).
			Str("party_id", in.PartyID).
			Str("payment_id", in.PaymentID).
			Str("unapplied", res.Unapplied.String()).
			Msg("pago con saldo no aplicado")
	}
	return res, nil
}
