package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// AllocateUseCase motor de asignación FEFO: elige exactamente un lote por línea.
type AllocateUseCase struct {
	txRunner ports.TxRunner
	recorder *MovementRecorder
	metrics  ports.Metrics
	log      *logger.Logger
}

// NewAllocateUseCase construye el caso de uso. recorder se usa en Commit.
func NewAllocateUseCase(txRunner ports.TxRunner, recorder *MovementRecorder, metrics ports.Metrics, log *logger.Logger) *AllocateUseCase {
	return &AllocateUseCase{txRunner: txRunner, recorder: recorder, metrics: metrics, log: log.Component("allocation")}
}

// Allocate devuelve el lote FEFO que cubre qty por sí solo.
func (uc *AllocateUseCase) Allocate(ctx context.Context, tenantID, productID string, qty decimal.Decimal) (string, error) {
	var batchID string
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		b, err := uc.AllocateInTx(ctx, repos, tenantID, productID, qty)
		if err != nil {
			return err
		}
		batchID = b.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return batchID, nil
}

// AllocateInTx elige y bloquea el lote en la transacción del llamador.
// El bloqueo no espera: si otra transacción tiene el lote se devuelve *domain.LockContentionError
// (reintentable) y la decisión de reintentar queda en el llamador.
func (uc *AllocateUseCase) AllocateInTx(ctx context.Context, repos repository.Repos, tenantID, productID string, qty decimal.Decimal) (*entity.Batch, error) {
	if tenantID == "" || productID == "" || !qty.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	batches, err := repos.Batches.ListActiveByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	for _, c := range inventory.Candidates(batches, qty) {
		locked, err := repos.Batches.LockNoWait(ctx, tenantID, c.ID)
		if err != nil {
			if errors.Is(err, domain.ErrLockContention) {
				uc.metrics.ObserveAllocation(ports.ResultContention)
				uc.log.Warn().Str("tenant_id", tenantID).Str("batch_id", c.ID).Msg("lote bloqueado por otra asignación")
			}
			return nil, err
		}
		// El lote pudo cambiar entre la lectura y el bloqueo.
		if locked != nil && locked.Allocatable(qty) {
			uc.metrics.ObserveAllocation(ports.ResultOK)
			return locked, nil
		}
	}

	uc.metrics.ObserveAllocation(ports.ResultInsufficient)
	return nil, &domain.InsufficientStockError{
		ProductID:     productID,
		Requested:     qty,
		BestAvailable: inventory.BestAvailable(batches),
	}
}

// CommitInput asignación más movimiento de venta.
type CommitInput struct {
	TenantID      string
	UserID        string
	ProductID     string
	Quantity      decimal.Decimal
	ReferenceType string
	ReferenceID   string
}

// Commit asigna y registra la venta en la misma transacción (el lote queda comprometido).
func (uc *AllocateUseCase) Commit(ctx context.Context, in CommitInput) (*entity.Movement, error) {
	var mov *entity.Movement
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		var err error
		mov, err = uc.CommitInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// CommitInTx asignación FEFO seguida del movimiento sales sobre el lote elegido.
func (uc *AllocateUseCase) CommitInTx(ctx context.Context, repos repository.Repos, in CommitInput) (*entity.Movement, error) {
	b, err := uc.AllocateInTx(ctx, repos, in.TenantID, in.ProductID, in.Quantity)
	if err != nil {
		return nil, err
	}
	mov, _, err := uc.recorder.RecordInTx(ctx, repos, MovementInput{
		TenantID:      in.TenantID,
		UserID:        in.UserID,
		Type:          entity.MovementSales,
		ProductID:     in.ProductID,
		BatchID:       b.ID,
		QuantityIn:    decimal.Zero,
		QuantityOut:   in.Quantity,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
	})
	if err != nil {
		return nil, fmt.Errorf("venta sobre lote %s: %w", b.ID, err)
	}
	return mov, nil
}
