package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// BatchStatusUseCase transiciones blandas de estado: bloqueo, desbloqueo y vencimiento.
// No modifica cantidades; las bajas por vencimiento pasan por el diario de movimientos.
type BatchStatusUseCase struct {
	txRunner ports.TxRunner
	recorder *MovementRecorder
	log      *logger.Logger
}

// NewBatchStatusUseCase construye el caso de uso.
func NewBatchStatusUseCase(txRunner ports.TxRunner, recorder *MovementRecorder, log *logger.Logger) *BatchStatusUseCase {
	return &BatchStatusUseCase{txRunner: txRunner, recorder: recorder, log: log.Component("batches")}
}

// Block excluye el lote de la asignación. Un lote vencido no se puede bloquear.
func (uc *BatchStatusUseCase) Block(ctx context.Context, tenantID, batchID string) (*entity.Batch, error) {
	return uc.transition(ctx, tenantID, batchID, func(b *entity.Batch) (string, error) {
		switch b.Status {
		case entity.BatchStatusBlocked:
			return "", fmt.Errorf("lote ya bloqueado: %w", domain.ErrConflict)
		case entity.BatchStatusExpired:
			return "", fmt.Errorf("lote vencido: %w", domain.ErrConflict)
		}
		return entity.BatchStatusBlocked, nil
	})
}

// Unblock devuelve el lote a active u out_of_stock según su disponible.
func (uc *BatchStatusUseCase) Unblock(ctx context.Context, tenantID, batchID string) (*entity.Batch, error) {
	return uc.transition(ctx, tenantID, batchID, func(b *entity.Batch) (string, error) {
		if b.Status != entity.BatchStatusBlocked {
			return "", fmt.Errorf("lote no bloqueado: %w", domain.ErrConflict)
		}
		if b.QuantityAvailable.IsPositive() {
			return entity.BatchStatusActive, nil
		}
		return entity.BatchStatusOutOfStock, nil
	})
}

func (uc *BatchStatusUseCase) transition(ctx context.Context, tenantID, batchID string, next func(*entity.Batch) (string, error)) (*entity.Batch, error) {
	var out *entity.Batch
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		b, err := repos.Batches.GetForUpdate(ctx, tenantID, batchID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrNotFound
		}
		status, err := next(b)
		if err != nil {
			return err
		}
		if err := repos.Batches.UpdateStatus(ctx, tenantID, batchID, status); err != nil {
			return err
		}
		b.Status = status
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpiryResult lotes vencidos por el barrido.
type ExpiryResult struct {
	Expired   []string
	Movements int
}

// ExpireBatches da de baja los lotes cuyo vencimiento pasó: si aún tienen disponible se registra un
// movimiento stock_expiry por ese saldo; si no, solo cambia el estado.
func (uc *BatchStatusUseCase) ExpireBatches(ctx context.Context, tenantID string, asOf time.Time) (*ExpiryResult, error) {
	res := &ExpiryResult{}
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		batches, err := repos.Batches.ListExpired(ctx, tenantID, asOf)
		if err != nil {
			return err
		}
		for _, c := range batches {
			b, err := repos.Batches.GetForUpdate(ctx, tenantID, c.ID)
			if err != nil {
				return err
			}
			if b == nil || b.Status == entity.BatchStatusExpired || b.Status == entity.BatchStatusBlocked {
				continue
			}
			if b.QuantityAvailable.IsPositive() {
				if _, _, err := uc.recorder.RecordInTx(ctx, repos, MovementInput{
					TenantID:      tenantID,
					Type:          entity.MovementStockExpiry,
					ProductID:     b.ProductID,
					BatchID:       b.ID,
					QuantityOut:   b.QuantityAvailable,
					ReferenceType: "expiry_sweep",
					ReferenceID:   asOf.Format("2006-01-02"),
				}); err != nil {
					return err
				}
				res.Movements++
			} else {
				if err := repos.Batches.UpdateStatus(ctx, tenantID, b.ID, entity.BatchStatusExpired); err != nil {
					return err
				}
				if err := enqueue(ctx, repos, tenantID, entity.Event{
					Kind:    entity.NotificationBatchExpired,
					Payload: map[string]any{"batch_id": b.ID, "product_id": b.ProductID, "lot_code": b.LotCode},
				}, asOf); err != nil {
					return err
				}
			}
			res.Expired = append(res.Expired, b.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(res.Expired) > 0 {
		uc.log.Info().Str("tenant_id", tenantID).Int("expired", len(res.Expired)).Msg("lotes vencidos")
	}
	return res, nil
}

// ExpireAll ejecuta ExpireBatches para todos los tenants con lotes.
func (uc *BatchStatusUseCase) ExpireAll(ctx context.Context, asOf time.Time) (int, error) {
	var tenants []string
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		var err error
		tenants, err = repos.Batches.ListTenants(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, t := range tenants {
		res, err := uc.ExpireBatches(ctx, t, asOf)
		if err != nil {
			return total, fmt.Errorf("vencimientos tenant %s: %w", t, err)
		}
		total += len(res.Expired)
	}
	return total, nil
}
