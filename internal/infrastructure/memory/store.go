package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ ports.TxRunner = (*Store)(nil)

// table filas por ID conservando el orden de inserción.
type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

type tables struct {
	batches       *table[entity.Batch]
	movements     *table[entity.Movement]
	outstanding   *table[entity.Outstanding]
	allocations   *table[entity.PaymentAllocation]
	journals      *table[entity.JournalEntry]
	periods       *table[entity.AccountingPeriod]
	parties       *table[entity.Party]
	orders        *table[entity.SalesOrder]
	notifications *table[entity.Notification]
}

func newTables() tables {
	return tables{
		batches:       newTable[entity.Batch](),
		movements:     newTable[entity.Movement](),
		outstanding:   newTable[entity.Outstanding](),
		allocations:   newTable[entity.PaymentAllocation](),
		journals:      newTable[entity.JournalEntry](),
		periods:       newTable[entity.AccountingPeriod](),
		parties:       newTable[entity.Party](),
		orders:        newTable[entity.SalesOrder](),
		notifications: newTable[entity.Notification](),
	}
}

// Store almacenamiento en memoria con transacciones read-committed y bloqueos de fila.
// Cada transacción acumula sus escrituras y las publica en Commit; un Rollback las descarta.
// Los bloqueos de lote pueden pedirse sin espera (equivalente a FOR UPDATE NOWAIT); la espera
// de un bloqueo termina al cancelarse el contexto de la transacción.
type Store struct {
	mu    sync.Mutex
	cond  *sync.Cond
	data  tables
	locks map[string]int64
	seq   int64

	clock          ports.Clock
	nearExpiryDays int
}

// Option configura el Store.
type Option func(*Store)

// WithClock reloj usado para recalcular vencimientos en lectura.
func WithClock(c ports.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithNearExpiryDays umbral de "próximo a vencer".
func WithNearExpiryDays(days int) Option {
	return func(s *Store) { s.nearExpiryDays = days }
}

// NewStore crea un almacenamiento vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data:           newTables(),
		locks:          make(map[string]int64),
		clock:          ports.SystemClock,
		nearExpiryDays: entity.DefaultNearExpiryDays,
	}
	for _, o := range opts {
		o(s)
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Run ejecuta fn en una transacción nueva; Commit si fn no falla, Rollback en otro caso.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.begin(ctx)
	defer tx.rollback()

	if err := fn(tx.repos()); err != nil {
		return err
	}
	return tx.commit()
}

func (s *Store) begin(ctx context.Context) *tx {
	s.mu.Lock()
	s.seq++
	id := s.seq
	s.mu.Unlock()
	return &tx{ctx: ctx, id: id, store: s, stage: newTables()}
}

type tx struct {
	ctx   context.Context
	id    int64
	store *Store
	stage tables
	held  []string
	done  bool
}

func (t *tx) repos() repository.Repos {
	return repository.Repos{
		Batches:       &batchRepo{t},
		BatchWriter:   &batchWriter{t},
		Movements:     &movementRepo{t},
		Outstanding:   &outstandingRepo{t},
		Allocations:   &allocationRepo{t},
		Journals:      &journalRepo{t},
		Periods:       &periodRepo{t},
		Parties:       &partyRepo{t},
		Orders:        &orderRepo{t},
		Notifications: &notificationRepo{t},
	}
}

// lock adquiere el bloqueo de fila key. Sin wait, falla con LockContentionError si lo tiene otra tx;
// con wait, espera hasta que se libere o se cancele el contexto.
func (t *tx) lock(resource, id string, wait bool) error {
	key := resource + ":" + id
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var stop func() bool
	defer func() {
		if stop != nil {
			stop()
		}
	}()
	for {
		owner, held := s.locks[key]
		if !held {
			s.locks[key] = t.id
			t.held = append(t.held, key)
			return nil
		}
		if owner == t.id {
			return nil
		}
		if !wait {
			return &domain.LockContentionError{Resource: resource, ID: id}
		}
		if err := t.ctx.Err(); err != nil {
			return fmt.Errorf("esperando bloqueo de %s %s: %w", resource, id, err)
		}
		if stop == nil {
			stop = context.AfterFunc(t.ctx, func() {
				s.mu.Lock()
				s.cond.Broadcast()
				s.mu.Unlock()
			})
		}
		s.cond.Wait()
	}
}

func (t *tx) release() {
	s := t.store
	for _, k := range t.held {
		if s.locks[k] == t.id {
			delete(s.locks, k)
		}
	}
	t.held = nil
	s.cond.Broadcast()
}

func (t *tx) rollback() {
	if t.done {
		return
	}
	t.done = true
	t.store.mu.Lock()
	t.release()
	t.store.mu.Unlock()
}

func (t *tx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return fmt.Errorf("transacción ya finalizada")
	}

	// Restricción única (tenant, source_type, source_id) de los saldos.
	for _, id := range t.stage.outstanding.order {
		o := t.stage.outstanding.rows[id]
		for _, bid := range s.data.outstanding.order {
			b := s.data.outstanding.rows[bid]
			if bid != id && b.TenantID == o.TenantID && b.SourceType == o.SourceType && b.SourceID == o.SourceID {
				t.done = true
				t.release()
				return fmt.Errorf("saldo %s/%s duplicado: %w", o.SourceType, o.SourceID, domain.ErrConflict)
			}
		}
	}

	merge(s.data.batches, t.stage.batches)
	merge(s.data.movements, t.stage.movements)
	merge(s.data.outstanding, t.stage.outstanding)
	merge(s.data.allocations, t.stage.allocations)
	merge(s.data.journals, t.stage.journals)
	merge(s.data.periods, t.stage.periods)
	merge(s.data.parties, t.stage.parties)
	merge(s.data.orders, t.stage.orders)
	merge(s.data.notifications, t.stage.notifications)

	t.done = true
	t.release()
	return nil
}

func merge[T any](dst, src *table[T]) {
	for _, id := range src.order {
		dst.put(id, src.rows[id])
	}
}

// get lectura con prioridad de lo escrito en la propia transacción.
func get[T any](t *tx, pick func(tables) *table[T], id string) (T, bool) {
	if v, ok := pick(t.stage).rows[id]; ok {
		return v, true
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	v, ok := pick(t.store.data).rows[id]
	return v, ok
}

// all filas visibles para la transacción en orden de inserción.
func all[T any](t *tx, pick func(tables) *table[T]) []T {
	t.store.mu.Lock()
	base := pick(t.store.data)
	out := make([]T, 0, len(base.order))
	seen := make(map[string]bool, len(base.order))
	stage := pick(t.stage)
	for _, id := range base.order {
		seen[id] = true
		if v, ok := stage.rows[id]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, base.rows[id])
	}
	t.store.mu.Unlock()
	for _, id := range stage.order {
		if !seen[id] {
			out = append(out, stage.rows[id])
		}
	}
	return out
}
