package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.JournalRepository = (*JournalRepo)(nil)
	_ repository.PeriodRepository  = (*PeriodRepo)(nil)
)

const journalColumns = `id, tenant_id, number, entry_date, description, status, total_debit, total_credit,
	flagged_for_audit, reversal_of, source_type, source_id, created_by, created_at, posted_at`

// JournalRepo asientos y líneas. Un asiento posted no admite cambios: las escrituras
// filtran por status = 'draft' y la ausencia de filas afectadas se reporta como ErrImmutable.
type JournalRepo struct {
	q Querier
}

// NewJournalRepository crea el repositorio de asientos.
func NewJournalRepository(q Querier) *JournalRepo {
	return &JournalRepo{q: q}
}

func scanJournal(row scanner) (entity.JournalEntry, error) {
	var e entity.JournalEntry
	var reversalOf *string
	err := row.Scan(
		&e.ID, &e.TenantID, &e.Number, &e.EntryDate, &e.Description, &e.Status, &e.TotalDebit, &e.TotalCredit,
		&e.FlaggedForAudit, &reversalOf, &e.SourceType, &e.SourceID, &e.CreatedBy, &e.CreatedAt, &e.PostedAt,
	)
	e.ReversalOf = fromNullString(reversalOf)
	return e, err
}

// insertLines encola las líneas en un batch de pgx.
func insertLines(b *pgx.Batch, e *entity.JournalEntry) {
	for i := range e.Lines {
		l := &e.Lines[i]
		l.EntryID = e.ID
		b.Queue(`INSERT INTO journal_lines (id, entry_id, line_no, account_code, debit, credit, memo)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, e.ID, l.LineNo, l.AccountCode, l.Debit, l.Credit, l.Memo)
	}
}

func (r *JournalRepo) Create(ctx context.Context, e *entity.JournalEntry) error {
	b := &pgx.Batch{}
	b.Queue(`INSERT INTO journal_entries (`+journalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, e.TenantID, e.Number, e.EntryDate, e.Description, e.Status, e.TotalDebit, e.TotalCredit,
		e.FlaggedForAudit, nullString(e.ReversalOf), e.SourceType, e.SourceID, e.CreatedBy, e.CreatedAt, e.PostedAt,
	)
	insertLines(b, e)
	if err := r.q.SendBatch(ctx, b).Close(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("asiento %s: %w", e.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create journal entry: %w", err)
	}
	return nil
}

func (r *JournalRepo) get(ctx context.Context, tenantID, id, suffix string) (*entity.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE tenant_id = $1 AND id = $2` + suffix
	e, err := scanJournal(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if e.Lines, err = r.lines(ctx, e.ID); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *JournalRepo) lines(ctx context.Context, entryID string) ([]entity.JournalLine, error) {
	rows, err := r.q.Query(ctx, `SELECT id, entry_id, line_no, account_code, debit, credit, memo
		FROM journal_lines WHERE entry_id = $1 ORDER BY line_no`, entryID)
	if err != nil {
		return nil, fmt.Errorf("list journal lines: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.JournalLine, error) {
		var l entity.JournalLine
		err := row.Scan(&l.ID, &l.EntryID, &l.LineNo, &l.AccountCode, &l.Debit, &l.Credit, &l.Memo)
		return l, err
	})
}

func (r *JournalRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error) {
	e, err := r.get(ctx, tenantID, id, "")
	if err != nil {
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	return e, nil
}

func (r *JournalRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error) {
	e, err := r.get(ctx, tenantID, id, " FOR UPDATE")
	if err != nil {
		return nil, mapError("journal", id, fmt.Errorf("get journal entry for update: %w", err))
	}
	return e, nil
}

func (r *JournalRepo) ReplaceLines(ctx context.Context, e *entity.JournalEntry) error {
	tag, err := r.q.Exec(ctx, `UPDATE journal_entries SET total_debit = $3, total_credit = $4, description = $5, entry_date = $6
		WHERE tenant_id = $1 AND id = $2 AND status = 'draft'`,
		e.TenantID, e.ID, e.TotalDebit, e.TotalCredit, e.Description, e.EntryDate)
	if err != nil {
		return fmt.Errorf("update journal entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.notDraft(ctx, e)
	}
	b := &pgx.Batch{}
	b.Queue(`DELETE FROM journal_lines WHERE entry_id = $1`, e.ID)
	insertLines(b, e)
	if err := r.q.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("replace journal lines: %w", err)
	}
	return nil
}

func (r *JournalRepo) MarkPosted(ctx context.Context, e *entity.JournalEntry) error {
	tag, err := r.q.Exec(ctx, `UPDATE journal_entries
		SET status = 'posted', total_debit = $3, total_credit = $4, flagged_for_audit = $5, posted_at = $6
		WHERE tenant_id = $1 AND id = $2 AND status = 'draft'`,
		e.TenantID, e.ID, e.TotalDebit, e.TotalCredit, e.FlaggedForAudit, e.PostedAt)
	if err != nil {
		return fmt.Errorf("post journal entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.notDraft(ctx, e)
	}
	return nil
}

// notDraft distingue asiento inexistente de asiento ya contabilizado.
func (r *JournalRepo) notDraft(ctx context.Context, e *entity.JournalEntry) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_entries WHERE tenant_id = $1 AND id = $2)`,
		e.TenantID, e.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check journal entry: %w", err)
	}
	if !exists {
		return fmt.Errorf("asiento %s: %w", e.ID, domain.ErrNotFound)
	}
	return fmt.Errorf("asiento %s: %w", e.ID, domain.ErrImmutable)
}

func (r *JournalRepo) ExistsReversal(ctx context.Context, tenantID, entryID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_entries WHERE tenant_id = $1 AND reversal_of = $2)`,
		tenantID, entryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reversal: %w", err)
	}
	return exists, nil
}

func (r *JournalRepo) ListBySource(ctx context.Context, tenantID, sourceType, sourceID string) ([]entity.JournalEntry, error) {
	rows, err := r.q.Query(ctx, `SELECT `+journalColumns+` FROM journal_entries
		WHERE tenant_id = $1 AND source_type = $2 AND source_id = $3 ORDER BY created_at, seq`,
		tenantID, sourceType, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list journal entries by source: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.JournalEntry, error) {
		return scanJournal(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan journal entries: %w", err)
	}
	for i := range out {
		if out[i].Lines, err = r.lines(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PeriodRepo periodos contables.
type PeriodRepo struct {
	q Querier
}

// NewPeriodRepository crea el repositorio de periodos.
func NewPeriodRepository(q Querier) *PeriodRepo {
	return &PeriodRepo{q: q}
}

const periodColumns = `id, tenant_id, start_date, end_date, status`

func scanPeriod(row scanner) (entity.AccountingPeriod, error) {
	var p entity.AccountingPeriod
	err := row.Scan(&p.ID, &p.TenantID, &p.StartDate, &p.EndDate, &p.Status)
	return p, err
}

func (r *PeriodRepo) one(ctx context.Context, query string, args ...any) (*entity.AccountingPeriod, error) {
	p, err := scanPeriod(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PeriodRepo) Create(ctx context.Context, p *entity.AccountingPeriod) error {
	_, err := r.q.Exec(ctx, `INSERT INTO accounting_periods (`+periodColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.TenantID, p.StartDate, p.EndDate, p.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("periodo %s: %w", p.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

func (r *PeriodRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.AccountingPeriod, error) {
	p, err := r.one(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get period: %w", err)
	}
	return p, nil
}

func (r *PeriodRepo) List(ctx context.Context, tenantID string) ([]entity.AccountingPeriod, error) {
	rows, err := r.q.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods
		WHERE tenant_id = $1 ORDER BY start_date`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.AccountingPeriod, error) {
		return scanPeriod(row)
	})
}

func (r *PeriodRepo) UpdateStatus(ctx context.Context, tenantID, id, status string) error {
	tag, err := r.q.Exec(ctx, `UPDATE accounting_periods SET status = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, status)
	if err != nil {
		return mapError("period", id, fmt.Errorf("update period status: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("periodo %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PeriodRepo) FindByDate(ctx context.Context, tenantID string, date time.Time) (*entity.AccountingPeriod, error) {
	y, m, d := date.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	p, err := r.one(ctx, `SELECT `+periodColumns+` FROM accounting_periods
		WHERE tenant_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date LIMIT 1 FOR SHARE`, tenantID, day)
	if err != nil {
		return nil, fmt.Errorf("find period by date: %w", err)
	}
	return p, nil
}
