package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.BatchRepository = (*BatchRepo)(nil)
	_ repository.BatchWriter     = (*BatchRepo)(nil)
)

const batchColumns = `id, tenant_id, product_id, lot_code, expiry_date, manufacturing_date,
	quantity_received, quantity_available, quantity_sold, quantity_damaged, quantity_returned,
	status, created_at, updated_at`

// BatchRepo implementa BatchRepository y BatchWriter con PostgreSQL.
type BatchRepo struct {
	q              Querier
	clock          ports.Clock
	nearExpiryDays int
}

// NewBatchRepository crea el repositorio de lotes. Los derivados de vencimiento se recalculan con clock.
func NewBatchRepository(q Querier, clock ports.Clock, nearExpiryDays int) *BatchRepo {
	if clock == nil {
		clock = ports.SystemClock
	}
	return &BatchRepo{q: q, clock: clock, nearExpiryDays: nearExpiryDays}
}

func (r *BatchRepo) scan(row scanner) (*entity.Batch, error) {
	var b entity.Batch
	var expiry, manufactured *time.Time
	err := row.Scan(
		&b.ID, &b.TenantID, &b.ProductID, &b.LotCode, &expiry, &manufactured,
		&b.QuantityReceived, &b.QuantityAvailable, &b.QuantitySold, &b.QuantityDamaged, &b.QuantityReturned,
		&b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.ExpiryDate = fromNullTime(expiry)
	b.ManufacturingDate = fromNullTime(manufactured)
	b.RefreshExpiry(r.clock(), r.nearExpiryDays)
	return &b, nil
}

func (r *BatchRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Batch, error) {
	b, err := r.scan(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (r *BatchRepo) list(ctx context.Context, query string, args ...any) ([]entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.Batch
	for rows.Next() {
		b, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *BatchRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE tenant_id = $1 AND id = $2`
	b, err := r.getOne(ctx, query, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

func (r *BatchRepo) ListActiveByProduct(ctx context.Context, tenantID, productID string) ([]entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE tenant_id = $1 AND product_id = $2 AND status = 'active'
		ORDER BY expiry_date NULLS LAST, created_at, id`
	out, err := r.list(ctx, query, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("list active batches: %w", err)
	}
	return out, nil
}

func (r *BatchRepo) ListExpired(ctx context.Context, tenantID string, asOf time.Time) ([]entity.Batch, error) {
	y, m, d := asOf.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE tenant_id = $1 AND status IN ('active', 'out_of_stock')
		  AND expiry_date IS NOT NULL AND expiry_date < $2
		ORDER BY expiry_date, id`
	out, err := r.list(ctx, query, tenantID, day)
	if err != nil {
		return nil, fmt.Errorf("list expired batches: %w", err)
	}
	return out, nil
}

func (r *BatchRepo) LockNoWait(ctx context.Context, tenantID, id string) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE tenant_id = $1 AND id = $2 FOR UPDATE NOWAIT`
	b, err := r.getOne(ctx, query, tenantID, id)
	if err != nil {
		return nil, mapError("batch", id, fmt.Errorf("lock batch: %w", err))
	}
	return b, nil
}

func (r *BatchRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	b, err := r.getOne(ctx, query, tenantID, id)
	if err != nil {
		return nil, mapError("batch", id, fmt.Errorf("get batch for update: %w", err))
	}
	return b, nil
}

func (r *BatchRepo) UpdateStatus(ctx context.Context, tenantID, id, status string) error {
	query := `UPDATE batches SET status = $3, updated_at = $4 WHERE tenant_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query, tenantID, id, status, r.clock())
	if err != nil {
		return mapError("batch", id, fmt.Errorf("update batch status: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *BatchRepo) ListTenants(ctx context.Context) ([]string, error) {
	return listTenants(ctx, r.q, "batches")
}

// Save inserta el lote recién recibido o actualiza cantidades y estado del existente.
func (r *BatchRepo) Save(ctx context.Context, applied inventory.Applied) error {
	b := applied.Batch()
	if applied.Created() {
		query := `INSERT INTO batches (` + batchColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
		_, err := r.q.Exec(ctx, query,
			b.ID, b.TenantID, b.ProductID, b.LotCode, nullTime(b.ExpiryDate), nullTime(b.ManufacturingDate),
			b.QuantityReceived, b.QuantityAvailable, b.QuantitySold, b.QuantityDamaged, b.QuantityReturned,
			b.Status, b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return mapError("batch", b.ID, fmt.Errorf("insert batch: %w", err))
		}
		return nil
	}
	query := `UPDATE batches SET
			quantity_received = $3, quantity_available = $4, quantity_sold = $5,
			quantity_damaged = $6, quantity_returned = $7, status = $8, updated_at = $9
		WHERE tenant_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query, b.TenantID, b.ID,
		b.QuantityReceived, b.QuantityAvailable, b.QuantitySold, b.QuantityDamaged, b.QuantityReturned,
		b.Status, b.UpdatedAt,
	)
	if err != nil {
		return mapError("batch", b.ID, fmt.Errorf("update batch: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

// listTenants tenants con filas en table. table es siempre una constante del paquete.
func listTenants(ctx context.Context, q Querier, table string) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT DISTINCT tenant_id FROM `+table+` ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
