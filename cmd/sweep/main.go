// Command sweep ejecuta una vez el barrido de cartera, el de vencimientos y el relay del outbox.
// Pensado para cron cuando el servicio corre sin jobs propios (AGING_SWEEP_MINUTES=0, etc.).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/jobs"
	"github.com/jhoicas/inventario-ledger/internal/bootstrap"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	only := flag.String("only", "", "Opcional: aging_sweep | expiry_sweep | outbox_relay (por defecto todos)")
	asOfStr := flag.String("as-of", "", "Opcional: fecha de corte YYYY-MM-DD (por defecto hoy)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Tiempo máximo de ejecución")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	var opts []bootstrap.Option
	if *asOfStr != "" {
		asOf, err := time.Parse("2006-01-02", *asOfStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fecha --as-of inválida: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, bootstrap.WithClock(func() time.Time { return asOf }))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	engine, err := bootstrap.Open(ctx, cfg, log, opts...)
	if err != nil {
		log.Error().Err(err).Msg("armado del motor")
		os.Exit(1)
	}
	defer engine.Close()

	failed := false
	ttl := time.Duration(cfg.Jobs.LockTTLSeconds) * time.Second
	for _, j := range engine.Jobs(cfg.Jobs, log) {
		if *only != "" && *only != j.Name {
			continue
		}
		if err := runJob(ctx, engine, j, ttl, log); err != nil {
			log.Error().Err(err).Str("job", j.Name).Msg("job falló")
			failed = true
		}
	}
	if failed {
		engine.Close()
		os.Exit(1)
	}
}

func runJob(ctx context.Context, engine *bootstrap.Engine, j jobs.Job, ttl time.Duration, log *logger.Logger) error {
	var n int
	ran, err := engine.Locker.WithLock(ctx, "jobs:"+j.Name, ttl, func(ctx context.Context) error {
		var err error
		n, err = j.Run(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if !ran {
		log.Warn().Str("job", j.Name).Msg("otra instancia tiene el lock; se omite")
		return nil
	}
	log.Info().Str("job", j.Name).Int("processed", n).Msg("job completado")
	return nil
}
