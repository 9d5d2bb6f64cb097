package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.OutstandingRepository       = (*OutstandingRepo)(nil)
	_ repository.PaymentAllocationRepository = (*PaymentAllocationRepo)(nil)
)

const outstandingColumns = `id, tenant_id, kind, party_id, source_type, source_id, source_number,
	document_date, total_amount, paid_amount, outstanding_amount, due_date, days_overdue,
	aging_bucket, status, next_followup_date, collection_priority, created_at, updated_at`

// OutstandingRepo saldos pendientes en PostgreSQL.
// Clave natural única (tenant_id, source_type, source_id).
type OutstandingRepo struct {
	q Querier
}

// NewOutstandingRepository crea el repositorio de saldos.
func NewOutstandingRepository(q Querier) *OutstandingRepo {
	return &OutstandingRepo{q: q}
}

func scanOutstanding(row scanner) (entity.Outstanding, error) {
	var o entity.Outstanding
	var due *time.Time
	err := row.Scan(
		&o.ID, &o.TenantID, &o.Kind, &o.PartyID, &o.SourceType, &o.SourceID, &o.SourceNumber,
		&o.DocumentDate, &o.TotalAmount, &o.PaidAmount, &o.OutstandingAmount, &due, &o.DaysOverdue,
		&o.AgingBucket, &o.Status, &o.NextFollowupDate, &o.CollectionPriority, &o.CreatedAt, &o.UpdatedAt,
	)
	o.DueDate = fromNullTime(due)
	return o, err
}

func (r *OutstandingRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Outstanding, error) {
	o, err := scanOutstanding(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *OutstandingRepo) list(ctx context.Context, query string, args ...any) ([]entity.Outstanding, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Outstanding, error) {
		return scanOutstanding(row)
	})
}

func (r *OutstandingRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Outstanding, error) {
	query := `SELECT ` + outstandingColumns + ` FROM outstanding_balances WHERE tenant_id = $1 AND id = $2`
	o, err := r.getOne(ctx, query, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get outstanding: %w", err)
	}
	return o, nil
}

func (r *OutstandingRepo) GetBySourceForUpdate(ctx context.Context, tenantID, sourceType, sourceID string) (*entity.Outstanding, error) {
	query := `SELECT ` + outstandingColumns + ` FROM outstanding_balances
		WHERE tenant_id = $1 AND source_type = $2 AND source_id = $3 FOR UPDATE`
	o, err := r.getOne(ctx, query, tenantID, sourceType, sourceID)
	if err != nil {
		return nil, mapError("outstanding", sourceType+"/"+sourceID, fmt.Errorf("get outstanding by source: %w", err))
	}
	return o, nil
}

// ListOpenByParty en orden FIFO (fecha de documento, luego id). Con forUpdate las filas
// quedan bloqueadas en ese mismo orden, así dos pagos del mismo tercero se serializan.
func (r *OutstandingRepo) ListOpenByParty(ctx context.Context, tenantID, kind, partyID string, forUpdate bool) ([]entity.Outstanding, error) {
	query := `SELECT ` + outstandingColumns + ` FROM outstanding_balances
		WHERE tenant_id = $1 AND kind = $2 AND party_id = $3 AND status IN ('open', 'partial')
		ORDER BY document_date, id`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	out, err := r.list(ctx, query, tenantID, kind, partyID)
	if err != nil {
		return nil, mapError("outstanding", partyID, fmt.Errorf("list open outstanding: %w", err))
	}
	return out, nil
}

// ListOpen mismo orden de bloqueo que ListOpenByParty. Con forUpdate cada fila se devuelve
// en su versión confirmada después de esperar el bloqueo.
func (r *OutstandingRepo) ListOpen(ctx context.Context, tenantID string, forUpdate bool) ([]entity.Outstanding, error) {
	query := `SELECT ` + outstandingColumns + ` FROM outstanding_balances
		WHERE tenant_id = $1 AND status IN ('open', 'partial')
		ORDER BY document_date, id`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	out, err := r.list(ctx, query, tenantID)
	if err != nil {
		return nil, mapError("outstanding", tenantID, fmt.Errorf("list open outstanding: %w", err))
	}
	return out, nil
}

func (r *OutstandingRepo) Save(ctx context.Context, change receivables.Change) error {
	o := change.Outstanding()
	if change.Created() {
		query := `INSERT INTO outstanding_balances (` + outstandingColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
		_, err := r.q.Exec(ctx, query,
			o.ID, o.TenantID, o.Kind, o.PartyID, o.SourceType, o.SourceID, o.SourceNumber,
			o.DocumentDate, o.TotalAmount, o.PaidAmount, o.OutstandingAmount, nullTime(o.DueDate), o.DaysOverdue,
			o.AgingBucket, o.Status, o.NextFollowupDate, o.CollectionPriority, o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("saldo %s/%s duplicado: %w", o.SourceType, o.SourceID, domain.ErrConflict)
			}
			return fmt.Errorf("insert outstanding: %w", err)
		}
		return nil
	}
	query := `UPDATE outstanding_balances SET
			source_number = $3, total_amount = $4, paid_amount = $5, outstanding_amount = $6,
			due_date = $7, days_overdue = $8, aging_bucket = $9, status = $10,
			next_followup_date = $11, collection_priority = $12, updated_at = $13
		WHERE tenant_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query, o.TenantID, o.ID,
		o.SourceNumber, o.TotalAmount, o.PaidAmount, o.OutstandingAmount,
		nullTime(o.DueDate), o.DaysOverdue, o.AgingBucket, o.Status,
		o.NextFollowupDate, o.CollectionPriority, o.UpdatedAt,
	)
	if err != nil {
		return mapError("outstanding", o.ID, fmt.Errorf("update outstanding: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("saldo %s: %w", o.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *OutstandingRepo) ListTenants(ctx context.Context) ([]string, error) {
	return listTenants(ctx, r.q, "outstanding_balances")
}

// PaymentAllocationRepo asignaciones de pago.
type PaymentAllocationRepo struct {
	q Querier
}

// NewPaymentAllocationRepository crea el repositorio de asignaciones.
func NewPaymentAllocationRepository(q Querier) *PaymentAllocationRepo {
	return &PaymentAllocationRepo{q: q}
}

func (r *PaymentAllocationRepo) Create(ctx context.Context, a *entity.PaymentAllocation) error {
	query := `INSERT INTO payment_allocations
		(id, tenant_id, payment_id, outstanding_id, allocated_amount, balance_before, balance_after, allocated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.TenantID, a.PaymentID, a.OutstandingID, a.AllocatedAmount,
		a.BalanceBefore, a.BalanceAfter, a.AllocatedAt, a.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("asignación %s: %w", a.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create payment allocation: %w", err)
	}
	return nil
}

func (r *PaymentAllocationRepo) ListByPayment(ctx context.Context, tenantID, paymentID string) ([]entity.PaymentAllocation, error) {
	query := `SELECT id, tenant_id, payment_id, outstanding_id, allocated_amount, balance_before,
			balance_after, allocated_at, created_by
		FROM payment_allocations WHERE tenant_id = $1 AND payment_id = $2 ORDER BY allocated_at, seq`
	rows, err := r.q.Query(ctx, query, tenantID, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list payment allocations: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.PaymentAllocation, error) {
		var a entity.PaymentAllocation
		err := row.Scan(&a.ID, &a.TenantID, &a.PaymentID, &a.OutstandingID, &a.AllocatedAmount,
			&a.BalanceBefore, &a.BalanceAfter, &a.AllocatedAt, &a.CreatedBy)
		return a, err
	})
}
