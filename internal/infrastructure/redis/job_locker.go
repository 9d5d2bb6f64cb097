package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

var _ ports.JobLocker = (*JobLocker)(nil)

// JobLocker lock distribuido por job con redislock. El lock se renueva a mitad del TTL
// mientras fn corre; si la renovación falla se cancela el contexto de fn.
type JobLocker struct {
	locker *redislock.Client
	prefix string
	log    *logger.Logger
}

// NewJobLocker crea el locker sobre un cliente existente.
func NewJobLocker(rdb goredis.UniversalClient, prefix string, log *logger.Logger) *JobLocker {
	return &JobLocker{locker: redislock.New(rdb), prefix: prefix, log: log.Component("redislock")}
}

func (l *JobLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	lock, err := l.locker.Obtain(ctx, l.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("obtener lock %s: %w", key, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el lock")
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(ttl / 2)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := lock.Refresh(runCtx, ttl, nil); err != nil {
					l.log.Warn().Err(err).Str("key", key).Msg("lock perdido, cancelando job")
					cancel()
					return
				}
			}
		}
	}()

	return true, fn(runCtx)
}
