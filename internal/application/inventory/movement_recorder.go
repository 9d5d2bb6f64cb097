package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// MovementRecorder diario de movimientos: único punto donde se valida un movimiento
// y único escritor de las cantidades de lote.
type MovementRecorder struct {
	txRunner       ports.TxRunner
	pipeline       inventory.Pipeline
	nearExpiryDays int
	clock          ports.Clock
	metrics        ports.Metrics
	log            *logger.Logger
}

// NewMovementRecorder construye el diario con el pipeline de manejadores por defecto.
func NewMovementRecorder(txRunner ports.TxRunner, nearExpiryDays int, clock ports.Clock, metrics ports.Metrics, log *logger.Logger) *MovementRecorder {
	return &MovementRecorder{
		txRunner:       txRunner,
		pipeline:       inventory.MovementPipeline(),
		nearExpiryDays: nearExpiryDays,
		clock:          clock,
		metrics:        metrics,
		log:            log.Component("movements"),
	}
}

// NewBatchInput datos del lote que nace con una compra.
type NewBatchInput struct {
	LotCode           string
	ExpiryDate        time.Time
	ManufacturingDate time.Time
}

// MovementInput entrada de recordMovement. BatchID vacío solo se admite en compras con NewBatch.
type MovementInput struct {
	TenantID      string
	UserID        string
	Type          string
	ProductID     string
	BatchID       string
	QuantityIn    decimal.Decimal
	QuantityOut   decimal.Decimal
	ReferenceType string
	ReferenceID   string
	NewBatch      *NewBatchInput
}

// Record registra el movimiento en su propia transacción. Un rechazo no deja rastro.
func (r *MovementRecorder) Record(ctx context.Context, in MovementInput) (*entity.Movement, *entity.Batch, error) {
	var mov *entity.Movement
	var batch *entity.Batch
	err := r.txRunner.Run(ctx, func(repos repository.Repos) error {
		var err error
		mov, batch, err = r.RecordInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return mov, batch, nil
}

// RecordInTx valida, aplica el pipeline sobre el lote bloqueado, persiste lote y movimiento
// y escribe en el outbox los eventos producidos. Si retorna error el llamador debe hacer Rollback.
func (r *MovementRecorder) RecordInTx(ctx context.Context, repos repository.Repos, in MovementInput) (*entity.Movement, *entity.Batch, error) {
	if in.TenantID == "" || in.ProductID == "" {
		return nil, nil, domain.ErrInvalidInput
	}
	if !entity.IsMovementType(in.Type) {
		return nil, nil, &domain.InvalidMovementError{Type: in.Type, Reason: "tipo de movimiento desconocido"}
	}

	now := r.clock()
	hc := inventory.HandlerContext{TenantID: in.TenantID, UserID: in.UserID, Now: now, NearExpiryDays: r.nearExpiryDays}
	mov := entity.Movement{
		ID:            uuid.New().String(),
		TenantID:      in.TenantID,
		Type:          in.Type,
		ProductID:     in.ProductID,
		BatchID:       in.BatchID,
		QuantityIn:    in.QuantityIn,
		QuantityOut:   in.QuantityOut,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		CreatedBy:     in.UserID,
		CreatedAt:     now,
	}

	var (
		applied inventory.Applied
		err     error
	)
	if in.BatchID == "" {
		if in.Type != entity.MovementPurchase {
			return nil, nil, r.reject(in, &domain.InvalidMovementError{Type: in.Type, Reason: "el lote es obligatorio"})
		}
		if in.NewBatch == nil || in.NewBatch.LotCode == "" {
			return nil, nil, r.reject(in, fmt.Errorf("compra sin lote: código de lote obligatorio: %w", domain.ErrInvalidInput))
		}
		batch := entity.Batch{
			ID:                uuid.New().String(),
			TenantID:          in.TenantID,
			ProductID:         in.ProductID,
			LotCode:           in.NewBatch.LotCode,
			ExpiryDate:        in.NewBatch.ExpiryDate,
			ManufacturingDate: in.NewBatch.ManufacturingDate,
			QuantityReceived:  decimal.Zero,
			QuantityAvailable: decimal.Zero,
			QuantitySold:      decimal.Zero,
			QuantityDamaged:   decimal.Zero,
			QuantityReturned:  decimal.Zero,
		}
		applied, err = r.pipeline.RunNew(batch, mov, hc)
	} else {
		// Bloquea el lote (SELECT FOR UPDATE); si la asignación FEFO ya lo bloqueó en esta tx, no espera.
		batch, gerr := repos.Batches.GetForUpdate(ctx, in.TenantID, in.BatchID)
		if gerr != nil {
			return nil, nil, gerr
		}
		if batch == nil {
			return nil, nil, fmt.Errorf("lote %s: %w", in.BatchID, domain.ErrNotFound)
		}
		applied, err = r.pipeline.Run(*batch, mov, hc)
	}
	if err != nil {
		return nil, nil, r.reject(in, err)
	}

	if err := repos.BatchWriter.Save(ctx, applied); err != nil {
		return nil, nil, err
	}
	m := applied.Movement()
	if err := repos.Movements.Create(ctx, &m); err != nil {
		return nil, nil, err
	}
	for _, ev := range applied.Events() {
		if err := enqueue(ctx, repos, in.TenantID, ev, now); err != nil {
			return nil, nil, err
		}
	}
	r.metrics.ObserveMovement(in.Type, ports.ResultOK)
	b := applied.Batch()
	return &m, &b, nil
}

func (r *MovementRecorder) reject(in MovementInput, err error) error {
	r.metrics.ObserveMovement(in.Type, ports.ResultRejected)
	r.log.Info().Err(err).
		Str("tenant_id", in.TenantID).
		Str("type", in.Type).
		Str("batch_id", in.BatchID).
		Msg("movimiento rechazado")
	return err
}

// enqueue escribe un evento de dominio en el outbox de notificaciones.
func enqueue(ctx context.Context, repos repository.Repos, tenantID string, ev entity.Event, now time.Time) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", ev.Kind, err)
	}
	return repos.Notifications.Create(ctx, &entity.Notification{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Kind:      ev.Kind,
		Payload:   payload,
		CreatedAt: now,
	})
}
