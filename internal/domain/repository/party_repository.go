package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// PartyRepository terceros (clientes/proveedores) con su cupo de crédito.
type PartyRepository interface {
	Create(ctx context.Context, p *entity.Party) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Party, error)
}
