package receivables

import (
	"context"
	"errors"
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

// LedgerUseCase libro de cuentas por cobrar/pagar: único escritor de los saldos pendientes
// junto con PaymentUseCase.
type LedgerUseCase struct {
	txRunner ports.TxRunner
	poster   autoPoster
	clock    ports.Clock
	log      *logger.Logger
}

// NewLedgerUseCase construye el caso de uso. journal puede ser nil (sin asientos automáticos).
func NewLedgerUseCase(txRunner ports.TxRunner, journal JournalPoster, accounts Accounts, clock ports.Clock, log *logger.Logger) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner: txRunner,
		poster:   autoPoster{journal: journal, accounts: accounts},
		clock:    clock,
		log:      log.Component("receivables"),
	}
}

// PostOutstandingInput documento que pasa a facturado/recibido.
type PostOutstandingInput struct {
	TenantID     string
	UserID       string
	Kind         string
	PartyID      string
	SourceType   string
	SourceID     string
	SourceNumber string
	DocumentDate time.Time
	DueDate      time.Time
	Amount       decimal.Decimal
}

// PostOutstanding crea o actualiza el saldo del documento en su propia transacción.
func (uc *LedgerUseCase) PostOutstanding(ctx context.Context, in PostOutstandingInput) (*entity.Outstanding, error) {
	var out *entity.Outstanding
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		o, err := uc.PostOutstandingInTx(ctx, repos, in)
		out = o
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PostOutstandingInTx idempotente por (tenant, source_type, source_id): volver a publicar
// el mismo documento actualiza montos en lugar de duplicar la fila.
func (uc *LedgerUseCase) PostOutstandingInTx(ctx context.Context, repos repository.Repos, in PostOutstandingInput) (*entity.Outstanding, error) {
	if in.Kind == "" {
		in.Kind = entity.OutstandingReceivable
	}
	party, err := repos.Parties.GetByID(ctx, in.TenantID, in.PartyID)
	if err != nil {
		return nil, err
	}
	if party == nil {
		return nil, fmt.Errorf("tercero %s: %w", in.PartyID, domain.ErrNotFound)
	}

	now := uc.clock()
	p := receivables.Posting{
		ID:           uuid.New().String(),
		TenantID:     in.TenantID,
		Kind:         in.Kind,
		PartyID:      in.PartyID,
		SourceType:   in.SourceType,
		SourceID:     in.SourceID,
		SourceNumber: in.SourceNumber,
		DocumentDate: in.DocumentDate,
		Amount:       in.Amount,
		DueDate:      in.DueDate,
	}

	existing, err := repos.Outstanding.GetBySourceForUpdate(ctx, in.TenantID, in.SourceType, in.SourceID)
	if err != nil {
		return nil, err
	}

	var ch receivables.Change
	delta := in.Amount
	if existing == nil {
		ch, err = receivables.Open(p, now)
	} else {
		ch, err = receivables.Repost(*existing, p, now)
		delta = in.Amount.Sub(existing.TotalAmount)
	}
	if err != nil {
		var dup *domain.DuplicateAllocationError
		if errors.As(err, &dup) {
			uc.log.Info().Str("tenant_id", in.TenantID).Str("source", dup.Reference).Msg("documento ya publicado sin cambios")
		}
		return nil, err
	}
	if err := repos.Outstanding.Save(ctx, ch); err != nil {
		return nil, err
	}
	o := ch.Outstanding()
	date := o.DocumentDate
	if !ch.Created() {
		date = now
	}
	if err := uc.poster.postDocument(ctx, repos, in.UserID, o, delta, date, "documento"); err != nil {
		return nil, err
	}
	return &o, nil
}

// CancelOutstanding pasa a cancelled un saldo sin pagos y revierte su asiento.
func (uc *LedgerUseCase) CancelOutstanding(ctx context.Context, tenantID, userID, id string) (*entity.Outstanding, error) {
	var out *entity.Outstanding
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		current, err := repos.Outstanding.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		locked, err := repos.Outstanding.GetBySourceForUpdate(ctx, tenantID, current.SourceType, current.SourceID)
		if err != nil {
			return err
		}
		now := uc.clock()
		ch, err := receivables.Cancel(*locked, now)
		if err != nil {
			return err
		}
		if err := repos.Outstanding.Save(ctx, ch); err != nil {
			return err
		}
		o := ch.Outstanding()
		if err := uc.poster.postDocument(ctx, repos, userID, o, locked.TotalAmount.Neg(), now, "anulación"); err != nil {
			return err
		}
		out = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOutstanding lectura con antigüedad recalculada a la fecha actual.
func (uc *LedgerUseCase) GetOutstanding(ctx context.Context, tenantID, id string) (*entity.Outstanding, error) {
	var out *entity.Outstanding
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		o, err := repos.Outstanding.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		r := receivables.Refresh(*o, uc.clock()).Outstanding()
		out = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RefreshAging barrido periódico: recalcula mora, tramo y prioridad de los saldos abiertos del tenant.
// Las filas se bloquean antes de leerlas: un pago concurrente espera o ya quedó reflejado.
func (uc *LedgerUseCase) RefreshAging(ctx context.Context, tenantID string, asOf time.Time) (int, error) {
	updated := 0
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		rows, err := repos.Outstanding.ListOpen(ctx, tenantID, true)
		if err != nil {
			return err
		}
		for _, o := range rows {
			ch := receivables.Refresh(o, asOf)
			r := ch.Outstanding()
			if r.DaysOverdue == o.DaysOverdue && r.AgingBucket == o.AgingBucket &&
				r.CollectionPriority == o.CollectionPriority && o.NextFollowupDate != nil {
				continue
			}
			if err := repos.Outstanding.Save(ctx, ch); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// RefreshAgingAll ejecuta RefreshAging para todos los tenants con saldos.
func (uc *LedgerUseCase) RefreshAgingAll(ctx context.Context, asOf time.Time) (int, error) {
	var tenants []string
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		var err error
		tenants, err = repos.Outstanding.ListTenants(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, t := range tenants {
		n, err := uc.RefreshAging(ctx, t, asOf)
		if err != nil {
			return total, fmt.Errorf("antigüedad tenant %s: %w", t, err)
		}
		total += n
	}
	uc.log.Debug().Int("tenants", len(tenants)).Int("updated", total).Msg("barrido de antigüedad")
	return total, nil
}
