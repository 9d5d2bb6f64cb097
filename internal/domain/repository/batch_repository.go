package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

// BatchRepository lectura y bloqueo de lotes. No expone escritura de cantidades.
type BatchRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Batch, error)
	// ListActiveByProduct lotes en estado active del producto (candidatos FEFO).
	ListActiveByProduct(ctx context.Context, tenantID, productID string) ([]entity.Batch, error)
	// ListExpired lotes active/out_of_stock cuyo vencimiento es anterior a asOf.
	ListExpired(ctx context.Context, tenantID string, asOf time.Time) ([]entity.Batch, error)
	// LockNoWait bloquea la fila sin esperar (FOR UPDATE NOWAIT).
	// Si otra transacción la tiene, devuelve *domain.LockContentionError.
	LockNoWait(ctx context.Context, tenantID, id string) (*entity.Batch, error)
	// GetForUpdate bloquea la fila esperando al otro escritor (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Batch, error)
	// UpdateStatus transición blanda de estado (bloqueo/desbloqueo, vencido sin saldo).
	UpdateStatus(ctx context.Context, tenantID, id, status string) error
	ListTenants(ctx context.Context) ([]string, error)
}

// BatchWriter persiste el resultado del pipeline de movimientos.
// Solo acepta inventory.Applied, que únicamente construye el pipeline.
type BatchWriter interface {
	Save(ctx context.Context, applied inventory.Applied) error
}
