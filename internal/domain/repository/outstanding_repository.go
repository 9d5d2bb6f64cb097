package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/receivables"
)

// OutstandingRepository saldos pendientes. La escritura solo acepta receivables.Change.
type OutstandingRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Outstanding, error)
	// GetBySourceForUpdate busca por clave natural (tenant, source_type, source_id) y bloquea la fila.
	GetBySourceForUpdate(ctx context.Context, tenantID, sourceType, sourceID string) (*entity.Outstanding, error)
	// ListOpenByParty saldos open/partial del tercero; con forUpdate bloquea las filas.
	ListOpenByParty(ctx context.Context, tenantID, kind, partyID string, forUpdate bool) ([]entity.Outstanding, error)
	// ListOpen saldos open/partial del tenant en orden FIFO; con forUpdate bloquea las filas
	// y devuelve la versión confirmada más reciente de cada una.
	ListOpen(ctx context.Context, tenantID string, forUpdate bool) ([]entity.Outstanding, error)
	Save(ctx context.Context, change receivables.Change) error
	ListTenants(ctx context.Context) ([]string, error)
}

// PaymentAllocationRepository asignaciones de pagos a saldos.
type PaymentAllocationRepository interface {
	Create(ctx context.Context, a *entity.PaymentAllocation) error
	ListByPayment(ctx context.Context, tenantID, paymentID string) ([]entity.PaymentAllocation, error)
}
