package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// JournalRepository asientos contables con sus líneas.
type JournalRepository interface {
	// Create inserta cabecera y líneas.
	Create(ctx context.Context, e *entity.JournalEntry) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.JournalEntry, error)
	// ReplaceLines reemplaza las líneas de un borrador y actualiza los totales de cabecera.
	ReplaceLines(ctx context.Context, e *entity.JournalEntry) error
	// MarkPosted draft -> posted con totales y marca de auditoría.
	MarkPosted(ctx context.Context, e *entity.JournalEntry) error
	// ExistsReversal indica si el asiento ya tiene un reverso.
	ExistsReversal(ctx context.Context, tenantID, entryID string) (bool, error)
	// ListBySource asientos generados por un documento, en orden de creación.
	ListBySource(ctx context.Context, tenantID, sourceType, sourceID string) ([]entity.JournalEntry, error)
}

// PeriodRepository periodos contables.
type PeriodRepository interface {
	Create(ctx context.Context, p *entity.AccountingPeriod) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.AccountingPeriod, error)
	List(ctx context.Context, tenantID string) ([]entity.AccountingPeriod, error)
	UpdateStatus(ctx context.Context, tenantID, id, status string) error
	// FindByDate periodo que contiene la fecha; nil si no hay.
	FindByDate(ctx context.Context, tenantID string, date time.Time) (*entity.AccountingPeriod, error)
}
