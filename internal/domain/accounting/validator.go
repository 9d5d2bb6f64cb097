package accounting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// DefaultTolerance diferencia máxima debe/haber absorbida por redondeo.
var DefaultTolerance = decimal.RequireFromString("0.01")

// DefaultBackdateDays asientos con fecha anterior a este número de días se marcan para auditoría.
const DefaultBackdateDays = 7

// Totals suma de débitos y créditos de las líneas.
func Totals(lines []entity.JournalLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// ValidateLines forma de las líneas: cuenta obligatoria, montos no negativos y
// exactamente uno de débito/crédito distinto de cero.
func ValidateLines(lines []entity.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("un asiento requiere al menos dos líneas: %w", domain.ErrInvalidInput)
	}
	for i, l := range lines {
		if l.AccountCode == "" {
			return fmt.Errorf("línea %d sin cuenta: %w", i+1, domain.ErrInvalidInput)
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("línea %d con monto negativo: %w", i+1, domain.ErrInvalidInput)
		}
		if l.Debit.IsZero() == l.Credit.IsZero() {
			return fmt.Errorf("línea %d: exactamente uno de débito/crédito debe ser distinto de cero: %w", i+1, domain.ErrInvalidInput)
		}
	}
	return nil
}

// CheckBalance |debe - haber| <= tolerancia; si no, UnbalancedEntryError con ambos totales.
func CheckBalance(lines []entity.JournalLine, tolerance decimal.Decimal) (debit, credit decimal.Decimal, err error) {
	debit, credit = Totals(lines)
	if debit.Sub(credit).Abs().GreaterThan(tolerance) {
		return debit, credit, &domain.UnbalancedEntryError{TotalDebit: debit, TotalCredit: credit, Tolerance: tolerance}
	}
	return debit, credit, nil
}

// CheckPeriod rechaza la fecha si cae en un periodo cerrado o bloqueado. Sin periodo = abierto.
func CheckPeriod(period *entity.AccountingPeriod, entryDate time.Time) error {
	if period == nil || !period.Contains(entryDate) {
		return nil
	}
	if !period.AcceptsPostings() {
		return &domain.ClosedPeriodError{PeriodID: period.ID, Status: period.Status, EntryDate: entryDate}
	}
	return nil
}

// Backdated fecha anterior a now - days.
func Backdated(entryDate, now time.Time, days int) bool {
	return entity.DaysBetween(entryDate, now) > days
}

// Validator reúne las reglas de contabilización con sus parámetros.
type Validator struct {
	Tolerance    decimal.Decimal
	BackdateDays int
}

// NewValidator aplica valores por defecto a parámetros vacíos.
func NewValidator(tolerance decimal.Decimal, backdateDays int) Validator {
	if tolerance.IsNegative() {
		tolerance = DefaultTolerance
	}
	if backdateDays <= 0 {
		backdateDays = DefaultBackdateDays
	}
	return Validator{Tolerance: tolerance, BackdateDays: backdateDays}
}

// Prepare valida un asiento para contabilizar y fija totales y marca de auditoría.
// Si falla, el asiento recibido no se modifica.
func (v Validator) Prepare(e entity.JournalEntry, period *entity.AccountingPeriod, now time.Time) (entity.JournalEntry, error) {
	if err := ValidateLines(e.Lines); err != nil {
		return e, err
	}
	debit, credit, err := CheckBalance(e.Lines, v.Tolerance)
	if err != nil {
		return e, err
	}
	if err := CheckPeriod(period, e.EntryDate); err != nil {
		return e, err
	}
	out := e
	out.Lines = renumber(e.Lines)
	out.TotalDebit = debit
	out.TotalCredit = credit
	out.FlaggedForAudit = Backdated(e.EntryDate, now, v.BackdateDays)
	return out, nil
}

// Recompute recalcula totales tras una mutación de líneas de un borrador.
// Si el resultado queda descuadrado se rechaza y los totales previos se conservan.
func (v Validator) Recompute(e entity.JournalEntry, lines []entity.JournalLine) (entity.JournalEntry, error) {
	if e.Posted() {
		return e, fmt.Errorf("asiento %s: %w", e.Number, domain.ErrImmutable)
	}
	if err := ValidateLines(lines); err != nil {
		return e, err
	}
	debit, credit, err := CheckBalance(lines, v.Tolerance)
	if err != nil {
		return e, err
	}
	out := e
	out.Lines = renumber(lines)
	out.TotalDebit = debit
	out.TotalCredit = credit
	return out, nil
}

// Reversal líneas espejo (débito <-> crédito) de un asiento contabilizado.
func Reversal(e entity.JournalEntry) ([]entity.JournalLine, error) {
	if !e.Posted() {
		return nil, fmt.Errorf("solo se revierten asientos contabilizados: %w", domain.ErrConflict)
	}
	lines := make([]entity.JournalLine, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, entity.JournalLine{
			AccountCode: l.AccountCode,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Memo:        "reverso: " + l.Memo,
		})
	}
	return lines, nil
}

func renumber(lines []entity.JournalLine) []entity.JournalLine {
	out := make([]entity.JournalLine, len(lines))
	for i, l := range lines {
		l.LineNo = i + 1
		out[i] = l
	}
	return out
}
