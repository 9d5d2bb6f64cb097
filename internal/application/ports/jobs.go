package ports

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// NotificationPublisher entrega notificaciones del outbox a un canal externo.
type NotificationPublisher interface {
	Publish(ctx context.Context, notifications []entity.Notification) error
}

// JobLocker garantiza una sola instancia ejecutando el job key a la vez.
// Si otra instancia lo tiene, fn no se ejecuta y ran es false.
type JobLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (ran bool, err error)
}

// LocalLocker JobLocker sin coordinación entre procesos (una sola instancia o sin Redis).
type LocalLocker struct{}

func (LocalLocker) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(ctx context.Context) error) (bool, error) {
	return true, fn(ctx)
}

// JobMetrics métricas opcionales de los jobs.
type JobMetrics interface {
	ObserveJob(job, result string)
}
