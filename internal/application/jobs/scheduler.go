package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// Nombres de los jobs; también son la clave del lock distribuido.
const (
	JobAgingSweep  = "aging_sweep"
	JobExpirySweep = "expiry_sweep"
	JobOutboxRelay = "outbox_relay"
)

// Job tarea periódica. Run devuelve cuántos registros procesó.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Scheduler ejecuta cada job en su propio ticker. Cada ejecución toma el lock del job,
// así solo una instancia del servicio lo corre a la vez.
type Scheduler struct {
	jobs    []Job
	locker  ports.JobLocker
	lockTTL time.Duration
	metrics ports.JobMetrics
	log     *logger.Logger
	wg      sync.WaitGroup
}

// NewScheduler crea el planificador. locker nil usa ports.LocalLocker; metrics puede ser nil.
func NewScheduler(locker ports.JobLocker, lockTTL time.Duration, metrics ports.JobMetrics, log *logger.Logger) *Scheduler {
	if locker == nil {
		locker = ports.LocalLocker{}
	}
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &Scheduler{locker: locker, lockTTL: lockTTL, metrics: metrics, log: log.Component("jobs")}
}

// Add registra un job. Intervalos <= 0 lo deshabilitan.
func (s *Scheduler) Add(j Job) {
	if j.Interval <= 0 {
		s.log.Info().Str("job", j.Name).Msg("job deshabilitado")
		return
	}
	s.jobs = append(s.jobs, j)
}

// Start lanza los tickers; se detienen al cancelar ctx. Wait espera a que terminen.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go func(j Job) {
			defer s.wg.Done()
			ticker := time.NewTicker(j.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.RunOnce(ctx, j)
				}
			}
		}(j)
	}
}

// Wait bloquea hasta que todos los tickers terminaron.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// RunOnce ejecuta el job bajo su lock. Los errores se registran, no se propagan.
func (s *Scheduler) RunOnce(ctx context.Context, j Job) {
	start := time.Now()
	var n int
	ran, err := s.locker.WithLock(ctx, "jobs:"+j.Name, s.lockTTL, func(ctx context.Context) error {
		var err error
		n, err = j.Run(ctx)
		return err
	})
	switch {
	case err != nil:
		s.observe(j.Name, "error")
		s.log.Error().Err(err).Str("job", j.Name).Msg("job falló")
	case !ran:
		s.observe(j.Name, "skipped")
		s.log.Debug().Str("job", j.Name).Msg("job en ejecución en otra instancia")
	default:
		s.observe(j.Name, ports.ResultOK)
		if n > 0 {
			s.log.Info().Str("job", j.Name).Int("processed", n).Dur("took", time.Since(start)).Msg("job completado")
		}
	}
}

func (s *Scheduler) observe(job, result string) {
	if s.metrics != nil {
		s.metrics.ObserveJob(job, result)
	}
}
