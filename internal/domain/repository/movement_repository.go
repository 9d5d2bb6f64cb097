package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementRepository diario de movimientos: solo inserción y lectura.
type MovementRepository interface {
	Create(ctx context.Context, m *entity.Movement) error
	ListByBatch(ctx context.Context, tenantID, batchID string) ([]entity.Movement, error)
	ListByReference(ctx context.Context, tenantID, referenceType, referenceID string) ([]entity.Movement, error)
}
