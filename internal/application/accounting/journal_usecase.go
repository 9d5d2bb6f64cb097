package accounting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/accounting"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// JournalUseCase contabilización de asientos con validación de partida doble y cierre de periodo.
type JournalUseCase struct {
	txRunner  ports.TxRunner
	validator accounting.Validator
	clock     ports.Clock
	metrics   ports.Metrics
	log       *logger.Logger
}

// NewJournalUseCase construye el caso de uso.
func NewJournalUseCase(
	txRunner ports.TxRunner,
	validator accounting.Validator,
	clock ports.Clock,
	metrics ports.Metrics,
	log *logger.Logger,
) *JournalUseCase {
	return &JournalUseCase{txRunner: txRunner, validator: validator, clock: clock, metrics: metrics, log: log.Component("journal")}
}

// LineInput línea de asiento recibida del llamador.
type LineInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Memo        string
}

// JournalInput datos de un asiento.
type JournalInput struct {
	TenantID    string
	UserID      string
	Number      string
	EntryDate   time.Time
	Description string
	SourceType  string
	SourceID    string
	ReversalOf  string
	Lines       []LineInput
}

func (in JournalInput) toEntry(now time.Time) entity.JournalEntry {
	number := in.Number
	if number == "" {
		number = "JE-" + strings.ToUpper(uuid.New().String()[:8])
	}
	date := in.EntryDate
	if date.IsZero() {
		date = now
	}
	lines := make([]entity.JournalLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, entity.JournalLine{
			ID:          uuid.New().String(),
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Memo:        l.Memo,
		})
	}
	return entity.JournalEntry{
		ID:          uuid.New().String(),
		TenantID:    in.TenantID,
		Number:      number,
		EntryDate:   date,
		Description: in.Description,
		Status:      entity.JournalStatusDraft,
		SourceType:  in.SourceType,
		SourceID:    in.SourceID,
		ReversalOf:  in.ReversalOf,
		Lines:       lines,
		CreatedBy:   in.UserID,
		CreatedAt:   now,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
}

// PostJournalEntry valida y contabiliza un asiento en su propia transacción.
func (uc *JournalUseCase) PostJournalEntry(ctx context.Context, in JournalInput) (*entity.JournalEntry, error) {
	var out *entity.JournalEntry
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		e, err := uc.PostInTx(ctx, repos, in)
		out = e
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PostInTx contabiliza usando los repositorios del llamador (misma transacción).
// Cualquier error debe provocar Rollback del llamador.
func (uc *JournalUseCase) PostInTx(ctx context.Context, repos repository.Repos, in JournalInput) (*entity.JournalEntry, error) {
	if in.TenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := uc.clock()
	draft := in.toEntry(now)

	period, err := repos.Periods.FindByDate(ctx, in.TenantID, draft.EntryDate)
	if err != nil {
		return nil, err
	}
	e, err := uc.validator.Prepare(draft, period, now)
	if err != nil {
		uc.observeRejection(err, draft)
		return nil, err
	}
	e.Status = entity.JournalStatusPosted
	e.PostedAt = &now
	uc.observePosted(e)

	if err := repos.Journals.Create(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// SaveDraft guarda un borrador. Las líneas deben cuadrar igual que al contabilizar.
func (uc *JournalUseCase) SaveDraft(ctx context.Context, in JournalInput) (*entity.JournalEntry, error) {
	if in.TenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.JournalEntry
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		draft := in.toEntry(uc.clock())
		e, err := uc.validator.Recompute(draft, draft.Lines)
		if err != nil {
			uc.observeRejection(err, draft)
			return err
		}
		if err := repos.Journals.Create(ctx, &e); err != nil {
			return err
		}
		out = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceDraftLines reemplaza las líneas de un borrador. Si el resultado queda descuadrado
// se rechaza la mutación completa y la cabecera conserva sus totales.
func (uc *JournalUseCase) ReplaceDraftLines(ctx context.Context, tenantID, entryID string, lines []LineInput) (*entity.JournalEntry, error) {
	var out *entity.JournalEntry
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		e, err := repos.Journals.GetForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if e == nil {
			return domain.ErrNotFound
		}
		next := make([]entity.JournalLine, 0, len(lines))
		for _, l := range lines {
			next = append(next, entity.JournalLine{
				ID: uuid.New().String(), EntryID: e.ID, AccountCode: l.AccountCode,
				Debit: l.Debit, Credit: l.Credit, Memo: l.Memo,
			})
		}
		updated, err := uc.validator.Recompute(*e, next)
		if err != nil {
			uc.observeRejection(err, *e)
			return err
		}
		if err := repos.Journals.ReplaceLines(ctx, &updated); err != nil {
			return err
		}
		out = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PostDraft draft -> posted. No hay camino de vuelta: una corrección es un asiento de reverso.
func (uc *JournalUseCase) PostDraft(ctx context.Context, tenantID, entryID string) (*entity.JournalEntry, error) {
	var out *entity.JournalEntry
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		e, err := repos.Journals.GetForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if e == nil {
			return domain.ErrNotFound
		}
		if e.Posted() {
			return fmt.Errorf("asiento %s: %w", e.Number, domain.ErrImmutable)
		}
		period, err := repos.Periods.FindByDate(ctx, tenantID, e.EntryDate)
		if err != nil {
			return err
		}
		now := uc.clock()
		posted, err := uc.validator.Prepare(*e, period, now)
		if err != nil {
			uc.observeRejection(err, *e)
			return err
		}
		posted.Status = entity.JournalStatusPosted
		posted.PostedAt = &now
		uc.observePosted(posted)
		if err := repos.Journals.MarkPosted(ctx, &posted); err != nil {
			return err
		}
		out = &posted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReverseEntry contabiliza un asiento espejo del indicado, fechado en date (o hoy).
func (uc *JournalUseCase) ReverseEntry(ctx context.Context, tenantID, userID, entryID string, date time.Time) (*entity.JournalEntry, error) {
	var out *entity.JournalEntry
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		e, err := repos.Journals.GetForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if e == nil {
			return domain.ErrNotFound
		}
		exists, err := repos.Journals.ExistsReversal(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("el asiento %s ya fue revertido: %w", e.Number, domain.ErrConflict)
		}
		lines, err := accounting.Reversal(*e)
		if err != nil {
			return err
		}
		in := JournalInput{
			TenantID:    tenantID,
			UserID:      userID,
			EntryDate:   date,
			Description: "Reverso de " + e.Number,
			SourceType:  e.SourceType,
			SourceID:    e.SourceID,
			ReversalOf:  e.ID,
		}
		for _, l := range lines {
			in.Lines = append(in.Lines, LineInput{AccountCode: l.AccountCode, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo})
		}
		out, err = uc.PostInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EntriesBySource asientos generados por un documento (venta, compra, pago).
func (uc *JournalUseCase) EntriesBySource(ctx context.Context, tenantID, sourceType, sourceID string) ([]entity.JournalEntry, error) {
	var out []entity.JournalEntry
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		var err error
		out, err = repos.Journals.ListBySource(ctx, tenantID, sourceType, sourceID)
		return err
	})
	return out, err
}

// OpenPeriod crea un periodo abierto. No se admiten periodos solapados.
func (uc *JournalUseCase) OpenPeriod(ctx context.Context, tenantID string, start, end time.Time) (*entity.AccountingPeriod, error) {
	if tenantID == "" || start.IsZero() || end.Before(start) {
		return nil, domain.ErrInvalidInput
	}
	p := &entity.AccountingPeriod{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		StartDate: start,
		EndDate:   end,
		Status:    entity.PeriodOpen,
	}
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		existing, err := repos.Periods.List(ctx, tenantID)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.Contains(start) || e.Contains(end) || p.Contains(e.StartDate) {
				return fmt.Errorf("el periodo se solapa con %s: %w", e.ID, domain.ErrConflict)
			}
		}
		return repos.Periods.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetPeriodStatus cierra, bloquea o reabre un periodo.
func (uc *JournalUseCase) SetPeriodStatus(ctx context.Context, tenantID, periodID, status string) (*entity.AccountingPeriod, error) {
	switch status {
	case entity.PeriodOpen, entity.PeriodClosed, entity.PeriodLocked:
	default:
		return nil, fmt.Errorf("estado de periodo %q: %w", status, domain.ErrInvalidInput)
	}
	var out *entity.AccountingPeriod
	err := uc.txRunner.Run(ctx, func(repos repository.Repos) error {
		p, err := repos.Periods.GetByID(ctx, tenantID, periodID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if p.Status == entity.PeriodLocked && status != entity.PeriodLocked {
			return fmt.Errorf("periodo bloqueado: %w", domain.ErrConflict)
		}
		if err := repos.Periods.UpdateStatus(ctx, tenantID, periodID, status); err != nil {
			return err
		}
		p.Status = status
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("period_id", periodID).Str("status", status).Msg("estado de periodo actualizado")
	return out, nil
}

func (uc *JournalUseCase) observePosted(e entity.JournalEntry) {
	if e.FlaggedForAudit {
		uc.metrics.ObserveJournal(ports.ResultFlagged)
		uc.log.Warn().
			Str("tenant_id", e.TenantID).
			Str("entry", e.Number).
			Time("entry_date", e.EntryDate).
			Msg("asiento con fecha atrasada marcado para auditoría")
		return
	}
	uc.metrics.ObserveJournal(ports.ResultOK)
}

func (uc *JournalUseCase) observeRejection(err error, e entity.JournalEntry) {
	switch {
	case errors.Is(err, domain.ErrUnbalancedEntry):
		uc.metrics.ObserveJournal(ports.ResultUnbalanced)
	case errors.Is(err, domain.ErrClosedPeriod):
		uc.metrics.ObserveJournal(ports.ResultClosedPeriod)
	default:
		uc.metrics.ObserveJournal(ports.ResultRejected)
	}
	uc.log.Info().Err(err).Str("tenant_id", e.TenantID).Str("entry", e.Number).Msg("asiento rechazado")
}
