package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// JournalLineRequest línea de asiento.
type JournalLineRequest struct {
	AccountCode string          `json:"account_code" validate:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo"`
}

// JournalEntryRequest body para POST /api/journal/entries. Con Draft se guarda como borrador.
type JournalEntryRequest struct {
	Number      string               `json:"number"`
	EntryDate   string               `json:"entry_date" validate:"omitempty,datetime=2006-01-02"`
	Description string               `json:"description"`
	SourceType  string               `json:"source_type"`
	SourceID    string               `json:"source_id"`
	Draft       bool                 `json:"draft"`
	Lines       []JournalLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// ReplaceLinesRequest body para PUT /api/journal/entries/:id/lines.
type ReplaceLinesRequest struct {
	Lines []JournalLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// ReverseEntryRequest body opcional para POST /api/journal/entries/:id/reverse.
type ReverseEntryRequest struct {
	EntryDate string `json:"entry_date" validate:"omitempty,datetime=2006-01-02"`
}

// JournalLineResponse salida de una línea.
type JournalLineResponse struct {
	LineNo      int             `json:"line_no"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo,omitempty"`
}

// JournalEntryResponse salida de un asiento.
type JournalEntryResponse struct {
	ID              string                `json:"id"`
	Number          string                `json:"number"`
	EntryDate       string                `json:"entry_date"`
	Description     string                `json:"description,omitempty"`
	Status          string                `json:"status"`
	TotalDebit      decimal.Decimal       `json:"total_debit"`
	TotalCredit     decimal.Decimal       `json:"total_credit"`
	FlaggedForAudit bool                  `json:"flagged_for_audit"`
	ReversalOf      string                `json:"reversal_of,omitempty"`
	SourceType      string                `json:"source_type,omitempty"`
	SourceID        string                `json:"source_id,omitempty"`
	PostedAt        *time.Time            `json:"posted_at,omitempty"`
	Lines           []JournalLineResponse `json:"lines"`
}

// OpenPeriodRequest body para POST /api/journal/periods.
type OpenPeriodRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// PeriodStatusRequest body para PATCH /api/journal/periods/:id.
type PeriodStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open closed locked"`
}

// PeriodResponse salida de un periodo.
type PeriodResponse struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

// FromJournalEntry convierte un asiento en su DTO.
func FromJournalEntry(e entity.JournalEntry) JournalEntryResponse {
	r := JournalEntryResponse{
		ID:              e.ID,
		Number:          e.Number,
		EntryDate:       e.EntryDate.Format(DateLayout),
		Description:     e.Description,
		Status:          e.Status,
		TotalDebit:      e.TotalDebit,
		TotalCredit:     e.TotalCredit,
		FlaggedForAudit: e.FlaggedForAudit,
		ReversalOf:      e.ReversalOf,
		SourceType:      e.SourceType,
		SourceID:        e.SourceID,
		PostedAt:        e.PostedAt,
		Lines:           make([]JournalLineResponse, 0, len(e.Lines)),
	}
	for _, l := range e.Lines {
		r.Lines = append(r.Lines, JournalLineResponse{
			LineNo: l.LineNo, AccountCode: l.AccountCode, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo,
		})
	}
	return r
}

// FromPeriod convierte un periodo en su DTO.
func FromPeriod(p entity.AccountingPeriod) PeriodResponse {
	return PeriodResponse{
		ID:        p.ID,
		StartDate: p.StartDate.Format(DateLayout),
		EndDate:   p.EndDate.Format(DateLayout),
		Status:    p.Status,
	}
}
