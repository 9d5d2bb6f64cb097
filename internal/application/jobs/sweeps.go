package jobs

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

// AgingRefresher recalcula mora y tramos de todos los tenants.
type AgingRefresher interface {
	RefreshAgingAll(ctx context.Context, asOf time.Time) (int, error)
}

// BatchExpirer da de baja los lotes vencidos de todos los tenants.
type BatchExpirer interface {
	ExpireAll(ctx context.Context, asOf time.Time) (int, error)
}

// AgingSweep job de antigüedad de cartera.
func AgingSweep(r AgingRefresher, clock ports.Clock, every time.Duration) Job {
	return Job{
		Name:     JobAgingSweep,
		Interval: every,
		Run:      func(ctx context.Context) (int, error) { return r.RefreshAgingAll(ctx, clock()) },
	}
}

// ExpirySweep job de vencimiento de lotes.
func ExpirySweep(e BatchExpirer, clock ports.Clock, every time.Duration) Job {
	return Job{
		Name:     JobExpirySweep,
		Interval: every,
		Run:      func(ctx context.Context) (int, error) { return e.ExpireAll(ctx, clock()) },
	}
}

// Relay job del outbox.
func Relay(r *OutboxRelay, every time.Duration) Job {
	return Job{Name: JobOutboxRelay, Interval: every, Run: r.Drain}
}
