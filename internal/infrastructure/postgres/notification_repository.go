package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

const notificationColumns = `id, tenant_id, kind, payload, created_at, dispatched_at`

// NotificationRepo outbox de notificaciones. Se escribe en la misma transacción que el cambio que la origina.
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository crea el repositorio del outbox.
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	_, err := r.q.Exec(ctx, `INSERT INTO notifications (`+notificationColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.TenantID, n.Kind, []byte(n.Payload), n.CreatedAt, n.DispatchedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListPending bloquea las filas devueltas saltando las que otro relay ya tomó.
func (r *NotificationRepo) ListPending(ctx context.Context, limit int) ([]entity.Notification, error) {
	return r.list(ctx, `SELECT `+notificationColumns+` FROM notifications
		WHERE dispatched_at IS NULL ORDER BY seq LIMIT $1 FOR UPDATE SKIP LOCKED`, limit)
}

func (r *NotificationRepo) MarkDispatched(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `UPDATE notifications SET dispatched_at = $2 WHERE id = ANY($1) AND dispatched_at IS NULL`, ids, at)
	if err != nil {
		return fmt.Errorf("mark notifications dispatched: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListByTenant(ctx context.Context, tenantID string) ([]entity.Notification, error) {
	return r.list(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE tenant_id = $1 ORDER BY seq`, tenantID)
}

func (r *NotificationRepo) list(ctx context.Context, query string, args ...any) ([]entity.Notification, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Notification, error) {
		var n entity.Notification
		var payload []byte
		err := row.Scan(&n.ID, &n.TenantID, &n.Kind, &payload, &n.CreatedAt, &n.DispatchedAt)
		n.Payload = payload
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}
	return out, nil
}
