package jobs

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// OutboxRelay publica las notificaciones pendientes y las marca como despachadas.
// Lectura, publicación y marca ocurren en la misma transacción: si Publish falla las filas
// siguen pendientes y se reintentan en la próxima pasada (entrega al menos una vez).
type OutboxRelay struct {
	txRunner  ports.TxRunner
	publisher ports.NotificationPublisher
	batchSize int
	clock     ports.Clock
	log       *logger.Logger
}

// NewOutboxRelay construye el relay. batchSize <= 0 usa 100.
func NewOutboxRelay(txRunner ports.TxRunner, publisher ports.NotificationPublisher, batchSize int, clock ports.Clock, log *logger.Logger) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{txRunner: txRunner, publisher: publisher, batchSize: batchSize, clock: clock, log: log.Component("outbox")}
}

// RelayOnce despacha hasta un lote de notificaciones y devuelve cuántas se publicaron.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	var sent int
	err := r.txRunner.Run(ctx, func(repos repository.Repos) error {
		pending, err := repos.Notifications.ListPending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
		if err := r.publisher.Publish(ctx, pending); err != nil {
			return fmt.Errorf("publicar notificaciones: %w", err)
		}
		if err := repos.Notifications.MarkDispatched(ctx, ids(pending), r.clock()); err != nil {
			return err
		}
		sent = len(pending)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if sent > 0 {
		r.log.Debug().Int("sent", sent).Msg("notificaciones despachadas")
	}
	return sent, nil
}

// Drain repite RelayOnce hasta vaciar el outbox.
func (r *OutboxRelay) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.RelayOnce(ctx)
		total += n
		if err != nil || n < r.batchSize {
			return total, err
		}
	}
}

func ids(ns []entity.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

// LogPublisher publicador que solo registra en el log (sin Redis configurado).
type LogPublisher struct {
	Log *logger.Logger
}

func (p LogPublisher) Publish(_ context.Context, notifications []entity.Notification) error {
	for _, n := range notifications {
		p.Log.Info().
			Str("notification_id", n.ID).
			Str("tenant_id", n.TenantID).
			Str("kind", n.Kind).
			RawJSON("payload", n.Payload).
			Msg("notificación")
	}
	return nil
}
