package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

const orderColumns = `id, tenant_id, party_id, number, order_date, due_date, total, status,
	created_by, created_at, updated_at`

// SalesOrderRepo órdenes de venta y sus líneas.
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository crea el repositorio de órdenes.
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

func (r *SalesOrderRepo) Create(ctx context.Context, o *entity.SalesOrder) error {
	b := &pgx.Batch{}
	b.Queue(`INSERT INTO sales_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.TenantID, o.PartyID, o.Number, o.OrderDate, nullTime(o.DueDate), o.Total, o.Status,
		o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	)
	for i, l := range o.Lines {
		b.Queue(`INSERT INTO sales_order_lines (id, order_id, line_no, product_id, quantity, unit_price, batch_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, o.ID, i+1, l.ProductID, l.Quantity, l.UnitPrice, nullString(l.BatchID))
	}
	if err := r.q.SendBatch(ctx, b).Close(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("orden %s: %w", o.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create sales order: %w", err)
	}
	return nil
}

func (r *SalesOrderRepo) get(ctx context.Context, tenantID, id, suffix string) (*entity.SalesOrder, error) {
	var o entity.SalesOrder
	var due *time.Time
	err := r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE tenant_id = $1 AND id = $2`+suffix,
		tenantID, id).Scan(
		&o.ID, &o.TenantID, &o.PartyID, &o.Number, &o.OrderDate, &due, &o.Total, &o.Status,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.DueDate = fromNullTime(due)

	rows, err := r.q.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price, batch_id
		FROM sales_order_lines WHERE order_id = $1 ORDER BY line_no`, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.SalesOrderLine, error) {
		var l entity.SalesOrderLine
		var batchID *string
		err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &batchID)
		l.BatchID = fromNullString(batchID)
		return l, err
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *SalesOrderRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	o, err := r.get(ctx, tenantID, id, "")
	if err != nil {
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	return o, nil
}

func (r *SalesOrderRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	o, err := r.get(ctx, tenantID, id, " FOR UPDATE")
	if err != nil {
		return nil, mapError("order", id, fmt.Errorf("get sales order for update: %w", err))
	}
	return o, nil
}

func (r *SalesOrderRepo) Update(ctx context.Context, o *entity.SalesOrder) error {
	b := &pgx.Batch{}
	b.Queue(`UPDATE sales_orders SET status = $3, total = $4, due_date = $5, updated_at = $6
		WHERE tenant_id = $1 AND id = $2`,
		o.TenantID, o.ID, o.Status, o.Total, nullTime(o.DueDate), o.UpdatedAt)
	for _, l := range o.Lines {
		b.Queue(`UPDATE sales_order_lines SET batch_id = $2 WHERE id = $1`, l.ID, nullString(l.BatchID))
	}
	br := r.q.SendBatch(ctx, b)
	tag, err := br.Exec()
	if err != nil {
		_ = br.Close()
		return mapError("order", o.ID, fmt.Errorf("update sales order: %w", err))
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("update sales order lines: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("orden %s: %w", o.ID, domain.ErrNotFound)
	}
	return nil
}
