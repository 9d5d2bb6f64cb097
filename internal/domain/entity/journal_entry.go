package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un asiento contable. draft -> posted es irreversible.
const (
	JournalStatusDraft  = "draft"
	JournalStatusPosted = "posted"
)

// JournalEntry cabecera de asiento; TotalDebit/TotalCredit se persisten para lecturas rápidas.
type JournalEntry struct {
	ID              string
	TenantID        string
	Number          string
	EntryDate       time.Time
	Description     string
	Status          string
	TotalDebit      decimal.Decimal
	TotalCredit     decimal.Decimal
	FlaggedForAudit bool
	ReversalOf      string
	SourceType      string
	SourceID        string
	Lines           []JournalLine
	CreatedBy       string
	CreatedAt       time.Time
	PostedAt        *time.Time
}

// JournalLine línea de asiento: exactamente uno de Debit/Credit es distinto de cero.
type JournalLine struct {
	ID          string
	EntryID     string
	LineNo      int
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Memo        string
}

// Posted indica si el asiento ya fue contabilizado.
func (e *JournalEntry) Posted() bool {
	return e.Status == JournalStatusPosted
}
