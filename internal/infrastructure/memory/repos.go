package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.BatchRepository             = (*batchRepo)(nil)
	_ repository.BatchWriter                 = (*batchWriter)(nil)
	_ repository.MovementRepository          = (*movementRepo)(nil)
	_ repository.OutstandingRepository       = (*outstandingRepo)(nil)
	_ repository.PaymentAllocationRepository = (*allocationRepo)(nil)
	_ repository.JournalRepository           = (*journalRepo)(nil)
	_ repository.PeriodRepository            = (*periodRepo)(nil)
	_ repository.PartyRepository             = (*partyRepo)(nil)
	_ repository.SalesOrderRepository        = (*orderRepo)(nil)
	_ repository.NotificationRepository      = (*notificationRepo)(nil)
)

func batches(tb tables) *table[entity.Batch]                 { return tb.batches }
func movements(tb tables) *table[entity.Movement]            { return tb.movements }
func outstandings(tb tables) *table[entity.Outstanding]      { return tb.outstanding }
func allocations(tb tables) *table[entity.PaymentAllocation] { return tb.allocations }
func journals(tb tables) *table[entity.JournalEntry]         { return tb.journals }
func periods(tb tables) *table[entity.AccountingPeriod]      { return tb.periods }
func parties(tb tables) *table[entity.Party]                 { return tb.parties }
func orders(tb tables) *table[entity.SalesOrder]             { return tb.orders }
func notifications(tb tables) *table[entity.Notification]    { return tb.notifications }

// ── Lotes ────────────────────────────────────────────────────────────────────

type batchRepo struct{ t *tx }

func (r *batchRepo) view(b entity.Batch) *entity.Batch {
	b.RefreshExpiry(r.t.store.clock(), r.t.store.nearExpiryDays)
	return &b
}

func (r *batchRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Batch, error) {
	b, ok := get(r.t, batches, id)
	if !ok || b.TenantID != tenantID {
		return nil, nil
	}
	return r.view(b), nil
}

func (r *batchRepo) ListActiveByProduct(_ context.Context, tenantID, productID string) ([]entity.Batch, error) {
	var out []entity.Batch
	for _, b := range all(r.t, batches) {
		if b.TenantID == tenantID && b.ProductID == productID && b.Status == entity.BatchStatusActive {
			out = append(out, *r.view(b))
		}
	}
	return out, nil
}

func (r *batchRepo) ListExpired(_ context.Context, tenantID string, asOf time.Time) ([]entity.Batch, error) {
	var out []entity.Batch
	for _, b := range all(r.t, batches) {
		if b.TenantID != tenantID || b.ExpiryDate.IsZero() {
			continue
		}
		if b.Status != entity.BatchStatusActive && b.Status != entity.BatchStatusOutOfStock {
			continue
		}
		if entity.DaysBetween(b.ExpiryDate, asOf) > 0 {
			out = append(out, *r.view(b))
		}
	}
	return out, nil
}

func (r *batchRepo) LockNoWait(ctx context.Context, tenantID, id string) (*entity.Batch, error) {
	return r.lock(ctx, tenantID, id, false)
}

func (r *batchRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Batch, error) {
	return r.lock(ctx, tenantID, id, true)
}

func (r *batchRepo) lock(ctx context.Context, tenantID, id string, wait bool) (*entity.Batch, error) {
	if b, err := r.GetByID(ctx, tenantID, id); err != nil || b == nil {
		return b, err
	}
	if err := r.t.lock("batch", id, wait); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

func (r *batchRepo) UpdateStatus(_ context.Context, tenantID, id, status string) error {
	b, ok := get(r.t, batches, id)
	if !ok || b.TenantID != tenantID {
		return domain.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = r.t.store.clock()
	r.t.stage.batches.put(id, b)
	return nil
}

func (r *batchRepo) ListTenants(_ context.Context) ([]string, error) {
	return tenantsOf(all(r.t, batches), func(b entity.Batch) string { return b.TenantID }), nil
}

type batchWriter struct{ t *tx }

func (w *batchWriter) Save(_ context.Context, applied inventory.Applied) error {
	b := applied.Batch()
	_, exists := get(w.t, batches, b.ID)
	if applied.Created() && exists {
		return fmt.Errorf("lote %s ya existe: %w", b.ID, domain.ErrConflict)
	}
	if !applied.Created() && !exists {
		return fmt.Errorf("lote %s: %w", b.ID, domain.ErrNotFound)
	}
	w.t.stage.batches.put(b.ID, b)
	return nil
}

// ── Movimientos ──────────────────────────────────────────────────────────────

type movementRepo struct{ t *tx }

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	if _, exists := get(r.t, movements, m.ID); exists {
		return fmt.Errorf("movimiento %s: %w", m.ID, domain.ErrImmutable)
	}
	r.t.stage.movements.put(m.ID, *m)
	return nil
}

func (r *movementRepo) ListByBatch(_ context.Context, tenantID, batchID string) ([]entity.Movement, error) {
	var out []entity.Movement
	for _, m := range all(r.t, movements) {
		if m.TenantID == tenantID && m.BatchID == batchID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *movementRepo) ListByReference(_ context.Context, tenantID, referenceType, referenceID string) ([]entity.Movement, error) {
	var out []entity.Movement
	for _, m := range all(r.t, movements) {
		if m.TenantID == tenantID && m.ReferenceType == referenceType && m.ReferenceID == referenceID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ── Saldos pendientes ────────────────────────────────────────────────────────

type outstandingRepo struct{ t *tx }

func (r *outstandingRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Outstanding, error) {
	o, ok := get(r.t, outstandings, id)
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	return &o, nil
}

func (r *outstandingRepo) GetBySourceForUpdate(ctx context.Context, tenantID, sourceType, sourceID string) (*entity.Outstanding, error) {
	for _, o := range all(r.t, outstandings) {
		if o.TenantID == tenantID && o.SourceType == sourceType && o.SourceID == sourceID {
			if err := r.t.lock("outstanding", o.ID, true); err != nil {
				return nil, err
			}
			return r.GetByID(ctx, tenantID, o.ID)
		}
	}
	return nil, nil
}

func (r *outstandingRepo) ListOpenByParty(_ context.Context, tenantID, kind, partyID string, forUpdate bool) ([]entity.Outstanding, error) {
	return r.listOpen(func(o entity.Outstanding) bool {
		return o.TenantID == tenantID && o.Kind == kind && o.PartyID == partyID
	}, forUpdate)
}

func (r *outstandingRepo) ListOpen(_ context.Context, tenantID string, forUpdate bool) ([]entity.Outstanding, error) {
	return r.listOpen(func(o entity.Outstanding) bool { return o.TenantID == tenantID }, forUpdate)
}

// listOpen bloquea en orden FIFO, el mismo que usan los pagos, y relee cada fila ya bloqueada.
func (r *outstandingRepo) listOpen(match func(entity.Outstanding) bool, forUpdate bool) ([]entity.Outstanding, error) {
	var out []entity.Outstanding
	for _, o := range all(r.t, outstandings) {
		if match(o) && isOpen(o) {
			out = append(out, o)
		}
	}
	receivables.SortFIFO(out)
	if !forUpdate {
		return out, nil
	}
	locked := make([]entity.Outstanding, 0, len(out))
	for _, o := range out {
		if err := r.t.lock("outstanding", o.ID, true); err != nil {
			return nil, err
		}
		fresh, _ := get(r.t, outstandings, o.ID)
		if isOpen(fresh) {
			locked = append(locked, fresh)
		}
	}
	return locked, nil
}

func (r *outstandingRepo) Save(_ context.Context, change receivables.Change) error {
	o := change.Outstanding()
	if change.Created() {
		for _, e := range all(r.t, outstandings) {
			if e.ID == o.ID || (e.TenantID == o.TenantID && e.SourceType == o.SourceType && e.SourceID == o.SourceID) {
				return fmt.Errorf("saldo %s/%s duplicado: %w", o.SourceType, o.SourceID, domain.ErrConflict)
			}
		}
	} else if _, ok := get(r.t, outstandings, o.ID); !ok {
		return domain.ErrNotFound
	}
	r.t.stage.outstanding.put(o.ID, o)
	return nil
}

func (r *outstandingRepo) ListTenants(_ context.Context) ([]string, error) {
	return tenantsOf(all(r.t, outstandings), func(o entity.Outstanding) string { return o.TenantID }), nil
}

func isOpen(o entity.Outstanding) bool {
	return o.Status == entity.OutstandingOpen || o.Status == entity.OutstandingPartial
}

type allocationRepo struct{ t *tx }

func (r *allocationRepo) Create(_ context.Context, a *entity.PaymentAllocation) error {
	r.t.stage.allocations.put(a.ID, *a)
	return nil
}

func (r *allocationRepo) ListByPayment(_ context.Context, tenantID, paymentID string) ([]entity.PaymentAllocation, error) {
	var out []entity.PaymentAllocation
	for _, a := range all(r.t, allocations) {
		if a.TenantID == tenantID && a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ── Contabilidad ─────────────────────────────────────────────────────────────

type journalRepo struct{ t *tx }

func cloneEntry(e entity.JournalEntry) entity.JournalEntry {
	lines := make([]entity.JournalLine, len(e.Lines))
	for i, l := range e.Lines {
		l.EntryID = e.ID
		lines[i] = l
	}
	e.Lines = lines
	return e
}

func (r *journalRepo) Create(_ context.Context, e *entity.JournalEntry) error {
	if _, exists := get(r.t, journals, e.ID); exists {
		return domain.ErrConflict
	}
	r.t.stage.journals.put(e.ID, cloneEntry(*e))
	return nil
}

func (r *journalRepo) GetByID(_ context.Context, tenantID, id string) (*entity.JournalEntry, error) {
	e, ok := get(r.t, journals, id)
	if !ok || e.TenantID != tenantID {
		return nil, nil
	}
	c := cloneEntry(e)
	return &c, nil
}

func (r *journalRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error) {
	if e, err := r.GetByID(ctx, tenantID, id); err != nil || e == nil {
		return e, err
	}
	if err := r.t.lock("journal", id, true); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

func (r *journalRepo) ReplaceLines(_ context.Context, e *entity.JournalEntry) error {
	cur, ok := get(r.t, journals, e.ID)
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Posted() {
		return domain.ErrImmutable
	}
	cur.Lines = e.Lines
	cur.TotalDebit = e.TotalDebit
	cur.TotalCredit = e.TotalCredit
	r.t.stage.journals.put(e.ID, cloneEntry(cur))
	return nil
}

func (r *journalRepo) MarkPosted(_ context.Context, e *entity.JournalEntry) error {
	cur, ok := get(r.t, journals, e.ID)
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Posted() {
		return domain.ErrImmutable
	}
	r.t.stage.journals.put(e.ID, cloneEntry(*e))
	return nil
}

func (r *journalRepo) ExistsReversal(_ context.Context, tenantID, entryID string) (bool, error) {
	for _, e := range all(r.t, journals) {
		if e.TenantID == tenantID && e.ReversalOf == entryID {
			return true, nil
		}
	}
	return false, nil
}

func (r *journalRepo) ListBySource(_ context.Context, tenantID, sourceType, sourceID string) ([]entity.JournalEntry, error) {
	var out []entity.JournalEntry
	for _, e := range all(r.t, journals) {
		if e.TenantID == tenantID && e.SourceType == sourceType && e.SourceID == sourceID {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

type periodRepo struct{ t *tx }

func (r *periodRepo) Create(_ context.Context, p *entity.AccountingPeriod) error {
	r.t.stage.periods.put(p.ID, *p)
	return nil
}

func (r *periodRepo) GetByID(_ context.Context, tenantID, id string) (*entity.AccountingPeriod, error) {
	p, ok := get(r.t, periods, id)
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	return &p, nil
}

func (r *periodRepo) List(_ context.Context, tenantID string) ([]entity.AccountingPeriod, error) {
	var out []entity.AccountingPeriod
	for _, p := range all(r.t, periods) {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *periodRepo) UpdateStatus(_ context.Context, tenantID, id, status string) error {
	p, ok := get(r.t, periods, id)
	if !ok || p.TenantID != tenantID {
		return domain.ErrNotFound
	}
	if err := r.t.lock("period", id, true); err != nil {
		return err
	}
	p.Status = status
	r.t.stage.periods.put(id, p)
	return nil
}

func (r *periodRepo) FindByDate(_ context.Context, tenantID string, date time.Time) (*entity.AccountingPeriod, error) {
	for _, p := range all(r.t, periods) {
		if p.TenantID == tenantID && p.Contains(date) {
			return &p, nil
		}
	}
	return nil, nil
}

// ── Terceros, órdenes y outbox ───────────────────────────────────────────────

type partyRepo struct{ t *tx }

func (r *partyRepo) Create(_ context.Context, p *entity.Party) error {
	if _, exists := get(r.t, parties, p.ID); exists {
		return domain.ErrConflict
	}
	r.t.stage.parties.put(p.ID, *p)
	return nil
}

func (r *partyRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Party, error) {
	p, ok := get(r.t, parties, id)
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	return &p, nil
}

type orderRepo struct{ t *tx }

func cloneOrder(o entity.SalesOrder) entity.SalesOrder {
	lines := make([]entity.SalesOrderLine, len(o.Lines))
	copy(lines, o.Lines)
	o.Lines = lines
	return o
}

func (r *orderRepo) Create(_ context.Context, o *entity.SalesOrder) error {
	if _, exists := get(r.t, orders, o.ID); exists {
		return domain.ErrConflict
	}
	r.t.stage.orders.put(o.ID, cloneOrder(*o))
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	o, ok := get(r.t, orders, id)
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	c := cloneOrder(o)
	return &c, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	if o, err := r.GetByID(ctx, tenantID, id); err != nil || o == nil {
		return o, err
	}
	if err := r.t.lock("order", id, true); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

func (r *orderRepo) Update(_ context.Context, o *entity.SalesOrder) error {
	if _, ok := get(r.t, orders, o.ID); !ok {
		return domain.ErrNotFound
	}
	r.t.stage.orders.put(o.ID, cloneOrder(*o))
	return nil
}

type notificationRepo struct{ t *tx }

func (r *notificationRepo) Create(_ context.Context, n *entity.Notification) error {
	c := *n
	c.Payload = append([]byte(nil), n.Payload...)
	r.t.stage.notifications.put(n.ID, c)
	return nil
}

func (r *notificationRepo) ListPending(_ context.Context, limit int) ([]entity.Notification, error) {
	var out []entity.Notification
	for _, n := range all(r.t, notifications) {
		if n.DispatchedAt != nil {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *notificationRepo) MarkDispatched(_ context.Context, ids []string, at time.Time) error {
	for _, id := range ids {
		n, ok := get(r.t, notifications, id)
		if !ok {
			continue
		}
		ts := at
		n.DispatchedAt = &ts
		r.t.stage.notifications.put(id, n)
	}
	return nil
}

func (r *notificationRepo) ListByTenant(_ context.Context, tenantID string) ([]entity.Notification, error) {
	var out []entity.Notification
	for _, n := range all(r.t, notifications) {
		if n.TenantID == tenantID {
			out = append(out, n)
		}
	}
	return out, nil
}

func tenantsOf[T any](rows []T, tenant func(T) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		t := tenant(r)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
