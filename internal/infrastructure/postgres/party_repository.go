package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.PartyRepository = (*PartyRepo)(nil)

// PartyRepo terceros con cupo de crédito.
type PartyRepo struct {
	q Querier
}

// NewPartyRepository crea el repositorio de terceros.
func NewPartyRepository(q Querier) *PartyRepo {
	return &PartyRepo{q: q}
}

func (r *PartyRepo) Create(ctx context.Context, p *entity.Party) error {
	_, err := r.q.Exec(ctx, `INSERT INTO parties (id, tenant_id, name, credit_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.TenantID, p.Name, p.CreditLimit, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tercero %s: %w", p.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create party: %w", err)
	}
	return nil
}

func (r *PartyRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Party, error) {
	var p entity.Party
	err := r.q.QueryRow(ctx, `SELECT id, tenant_id, name, credit_limit, created_at, updated_at
		FROM parties WHERE tenant_id = $1 AND id = $2`, tenantID, id).
		Scan(&p.ID, &p.TenantID, &p.Name, &p.CreditLimit, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	return &p, nil
}
