package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// SalesOrderRepository órdenes de venta con sus líneas.
type SalesOrderRepository interface {
	Create(ctx context.Context, o *entity.SalesOrder) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error)
	// Update persiste estado y lote asignado de cada línea.
	Update(ctx context.Context, o *entity.SalesOrder) error
}
