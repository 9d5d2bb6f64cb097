// Package bootstrap arma el motor (almacenamiento, casos de uso y jobs) a partir de la configuración.
// Lo comparten cmd/api y cmd/sweep.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/accounting"
	"github.com/jhoicas/inventario-ledger/internal/application/credit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/jobs"
	"github.com/jhoicas/inventario-ledger/internal/application/orders"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	domainacc "github.com/jhoicas/inventario-ledger/internal/domain/accounting"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/inventario-ledger/internal/infrastructure/redis"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// Drivers de almacenamiento.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Engine casos de uso listos para usar sobre un mismo TxRunner.
type Engine struct {
	Store    string
	TxRunner ports.TxRunner
	Clock    ports.Clock

	Recorder    *inventory.MovementRecorder
	Allocate    *inventory.AllocateUseCase
	Receive     *inventory.ReceiveGoodsUseCase
	BatchStatus *inventory.BatchStatusUseCase
	Journal     *accounting.JournalUseCase
	Ledger      *receivables.LedgerUseCase
	Payments    *receivables.PaymentUseCase
	Credit      *credit.CreditUseCase
	Orders      *orders.OrderUseCase

	Publisher ports.NotificationPublisher
	Locker    ports.JobLocker

	closers []func()
}

// Option ajusta el armado del motor.
type Option func(*options)

type options struct {
	clock   ports.Clock
	metrics ports.Metrics
}

// WithClock reloj del motor (tests).
func WithClock(c ports.Clock) Option { return func(o *options) { o.clock = c } }

// WithMetrics métricas de los casos de uso; por defecto NopMetrics.
func WithMetrics(m ports.Metrics) Option { return func(o *options) { o.metrics = m } }

// Open conecta el almacenamiento elegido en cfg.App.Store y, si hay Redis, el publicador
// de notificaciones y el lock de jobs. Close libera las conexiones.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Option) (*Engine, error) {
	o := options{clock: ports.SystemClock, metrics: ports.NopMetrics{}}
	for _, fn := range opts {
		fn(&o)
	}

	e := &Engine{Store: cfg.App.Store, Clock: o.clock}
	switch cfg.App.Store {
	case StoreMemory:
		e.TxRunner = memory.NewStore(memory.WithClock(o.clock), memory.WithNearExpiryDays(cfg.Ledger.NearExpiryDays))
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	case StorePostgres, "":
		e.Store = StorePostgres
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		e.closers = append(e.closers, pool.Close)
		e.TxRunner = postgres.NewTxRunner(pool, cfg.Ledger.NearExpiryDays).WithClock(o.clock)
		log.Info().Str("dsn", postgres.RedactedDSN(cfg.DB)).Msg("PostgreSQL conectado")
	default:
		return nil, fmt.Errorf("STORE_DRIVER %q no soportado", cfg.App.Store)
	}

	e.Publisher = jobs.LogPublisher{Log: log.Component("outbox")}
	e.Locker = ports.LocalLocker{}
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		e.closers = append(e.closers, func() { _ = rdb.Close() })
		e.Publisher = infraredis.NewStreamPublisher(rdb, cfg.Redis.NotificationStream, 10_000)
		e.Locker = infraredis.NewJobLocker(rdb, cfg.App.Name, log)
		log.Info().Str("addr", cfg.Redis.Addr).Str("stream", cfg.Redis.NotificationStream).Msg("Redis conectado")
	}

	e.wire(cfg, o, log)
	return e, nil
}

func (e *Engine) wire(cfg *config.Config, o options, log *logger.Logger) {
	accounts := receivables.Accounts{
		Receivable: cfg.Accounts.Receivable,
		Payable:    cfg.Accounts.Payable,
		Revenue:    cfg.Accounts.Revenue,
		Cash:       cfg.Accounts.Cash,
		Inventory:  cfg.Accounts.Inventory,
	}
	validator := domainacc.NewValidator(cfg.Ledger.BalanceTolerance, cfg.Ledger.BackdateAuditDays)

	e.Journal = accounting.NewJournalUseCase(e.TxRunner, validator, o.clock, o.metrics, log)
	e.Recorder = inventory.NewMovementRecorder(e.TxRunner, cfg.Ledger.NearExpiryDays, o.clock, o.metrics, log)
	e.Allocate = inventory.NewAllocateUseCase(e.TxRunner, e.Recorder, o.metrics, log)
	e.BatchStatus = inventory.NewBatchStatusUseCase(e.TxRunner, e.Recorder, log)
	e.Ledger = receivables.NewLedgerUseCase(e.TxRunner, e.Journal, accounts, o.clock, log)
	e.Payments = receivables.NewPaymentUseCase(e.TxRunner, e.Journal, accounts, o.clock, o.metrics, log)
	e.Receive = inventory.NewReceiveGoodsUseCase(e.TxRunner, e.Recorder, e.Ledger, o.clock)
	e.Credit = credit.NewCreditUseCase(e.TxRunner, o.metrics, log)
	e.Orders = orders.NewOrderUseCase(e.TxRunner, e.Credit, e.Allocate, e.Ledger, o.clock, log)
}

// Scheduler arma los jobs periódicos según cfg.Jobs.
func (e *Engine) Scheduler(cfg config.JobsConfig, metrics ports.JobMetrics, log *logger.Logger) *jobs.Scheduler {
	s := jobs.NewScheduler(e.Locker, time.Duration(cfg.LockTTLSeconds)*time.Second, metrics, log)
	for _, j := range e.Jobs(cfg, log) {
		s.Add(j)
	}
	return s
}

// Jobs barrido de cartera, barrido de vencimientos y relay del outbox.
func (e *Engine) Jobs(cfg config.JobsConfig, log *logger.Logger) []jobs.Job {
	relay := jobs.NewOutboxRelay(e.TxRunner, e.Publisher, cfg.OutboxBatchSize, e.Clock, log)
	return []jobs.Job{
		jobs.AgingSweep(e.Ledger, e.Clock, time.Duration(cfg.AgingSweepMinutes)*time.Minute),
		jobs.ExpirySweep(e.BatchStatus, e.Clock, time.Duration(cfg.ExpirySweepMinutes)*time.Minute),
		jobs.Relay(relay, time.Duration(cfg.OutboxRelaySeconds)*time.Second),
	}
}

// Close cierra pool y cliente Redis en orden inverso de apertura.
func (e *Engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}
