package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// NotificationRepository outbox de notificaciones.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	// ListPending pendientes de despacho de todos los tenants, más antiguas primero.
	ListPending(ctx context.Context, limit int) ([]entity.Notification, error)
	MarkDispatched(ctx context.Context, ids []string, at time.Time) error
	ListByTenant(ctx context.Context, tenantID string) ([]entity.Notification, error)
}
