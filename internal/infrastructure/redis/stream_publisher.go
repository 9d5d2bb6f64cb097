package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ ports.NotificationPublisher = (*StreamPublisher)(nil)

// StreamPublisher publica cada notificación como una entrada del stream.
// Los consumidores deduplican por notification_id: un reintento puede repetir entradas.
type StreamPublisher struct {
	rdb    goredis.UniversalClient
	stream string
	maxLen int64
}

// NewStreamPublisher crea el publicador. maxLen recorta el stream de forma aproximada (0 = sin límite).
func NewStreamPublisher(rdb goredis.UniversalClient, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, notifications []entity.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	_, err := p.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, n := range notifications {
			args := &goredis.XAddArgs{
				Stream: p.stream,
				Values: map[string]any{
					"notification_id": n.ID,
					"tenant_id":       n.TenantID,
					"kind":            n.Kind,
					"payload":         string(n.Payload),
					"created_at":      n.CreatedAt.UTC().Format(time.RFC3339Nano),
				},
			}
			if p.maxLen > 0 {
				args.MaxLen = p.maxLen
				args.Approx = true
			}
			pipe.XAdd(ctx, args)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
