package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/jobs"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

var now = time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type fakePublisher struct {
	mu   sync.Mutex
	sent []entity.Notification
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, ns []entity.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, ns...)
	return nil
}

func seed(t *testing.T, s *memory.Store, n int) {
	t.Helper()
	require.NoError(t, s.Run(context.Background(), func(r repository.Repos) error {
		for i := 0; i < n; i++ {
			payload, _ := json.Marshal(map[string]any{"i": i})
			if err := r.Notifications.Create(context.Background(), &entity.Notification{
				ID: string(rune('a' + i)), TenantID: "t1", Kind: entity.NotificationBatchEmptied,
				Payload: payload, CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	}))
}

func pending(t *testing.T, s *memory.Store) int {
	t.Helper()
	var n int
	require.NoError(t, s.Run(context.Background(), func(r repository.Repos) error {
		p, err := r.Notifications.ListPending(context.Background(), 1000)
		n = len(p)
		return err
	}))
	return n
}

// ── Outbox ───────────────────────────────────────────────────────────────────

func TestOutboxRelay_DrainPublicaEnLotes(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, 5)
	pub := &fakePublisher{}
	relay := jobs.NewOutboxRelay(s, pub, 2, clock, logger.NewNop())

	n, err := relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.Len(t, pub.sent, 5)
	assert.Equal(t, "a", pub.sent[0].ID)
	assert.Equal(t, 0, pending(t, s))
}

func TestOutboxRelay_FalloDePublicacionDejaPendientes(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, 3)
	pub := &fakePublisher{err: errors.New("redis caído")}
	relay := jobs.NewOutboxRelay(s, pub, 10, clock, logger.NewNop())

	n, err := relay.RelayOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 3, pending(t, s))

	pub.err = nil
	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, pending(t, s))
}

// ── Scheduler ────────────────────────────────────────────────────────────────

type busyLocker struct{}

func (busyLocker) WithLock(context.Context, string, time.Duration, func(context.Context) error) (bool, error) {
	return false, nil
}

type jobCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *jobCounter) ObserveJob(job, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[job+"/"+result]++
}

func TestScheduler_RunOnceRegistraResultado(t *testing.T) {
	m := &jobCounter{counts: map[string]int{}}
	s := jobs.NewScheduler(nil, time.Minute, m, logger.NewNop())

	s.RunOnce(context.Background(), jobs.Job{Name: "ok", Run: func(context.Context) (int, error) { return 3, nil }})
	s.RunOnce(context.Background(), jobs.Job{Name: "bad", Run: func(context.Context) (int, error) { return 0, errors.New("x") }})

	assert.Equal(t, 1, m.counts["ok/ok"])
	assert.Equal(t, 1, m.counts["bad/error"])
}

func TestScheduler_LockTomadoSaltaEjecucion(t *testing.T) {
	m := &jobCounter{counts: map[string]int{}}
	s := jobs.NewScheduler(busyLocker{}, time.Minute, m, logger.NewNop())
	called := false

	s.RunOnce(context.Background(), jobs.Job{Name: "sweep", Run: func(context.Context) (int, error) {
		called = true
		return 0, nil
	}})

	assert.False(t, called)
	assert.Equal(t, 1, m.counts["sweep/skipped"])
}

func TestScheduler_TickerSeDetieneConContexto(t *testing.T) {
	s := jobs.NewScheduler(nil, time.Minute, nil, logger.NewNop())
	var mu sync.Mutex
	runs := 0
	s.Add(jobs.Job{Name: "tick", Interval: 5 * time.Millisecond, Run: func(context.Context) (int, error) {
		mu.Lock()
		runs++
		mu.Unlock()
		return 0, nil
	}})
	s.Add(jobs.Job{Name: "off", Interval: 0, Run: func(context.Context) (int, error) {
		t.Fatal("job deshabilitado ejecutado")
		return 0, nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()
}

type fakeAging struct{ asOf time.Time }

func (f *fakeAging) RefreshAgingAll(_ context.Context, asOf time.Time) (int, error) {
	f.asOf = asOf
	return 7, nil
}

func TestAgingSweep_UsaElReloj(t *testing.T) {
	f := &fakeAging{}
	j := jobs.AgingSweep(f, clock, time.Hour)
	n, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, now, f.asOf)
	assert.Equal(t, jobs.JobAgingSweep, j.Name)
}
