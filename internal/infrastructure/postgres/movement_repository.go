package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, tenant_id, type, product_id, batch_id, quantity_in, quantity_out,
	reference_type, reference_id, created_by, created_at`

// MovementRepo diario de movimientos en PostgreSQL. La tabla no admite UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository crea el repositorio de movimientos.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TenantID, m.Type, m.ProductID, m.BatchID, m.QuantityIn, m.QuantityOut,
		m.ReferenceType, m.ReferenceID, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("movimiento %s: %w", m.ID, domain.ErrImmutable)
		}
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

func (r *MovementRepo) ListByBatch(ctx context.Context, tenantID, batchID string) ([]entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE tenant_id = $1 AND batch_id = $2 ORDER BY created_at, seq`
	return r.list(ctx, query, tenantID, batchID)
}

func (r *MovementRepo) ListByReference(ctx context.Context, tenantID, referenceType, referenceID string) ([]entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE tenant_id = $1 AND reference_type = $2 AND reference_id = $3 ORDER BY created_at, seq`
	return r.list(ctx, query, tenantID, referenceType, referenceID)
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Movement, error) {
		var m entity.Movement
		err := row.Scan(
			&m.ID, &m.TenantID, &m.Type, &m.ProductID, &m.BatchID, &m.QuantityIn, &m.QuantityOut,
			&m.ReferenceType, &m.ReferenceID, &m.CreatedBy, &m.CreatedAt,
		)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan movements: %w", err)
	}
	return out, nil
}
