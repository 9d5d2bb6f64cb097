package receivables

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/accounting"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// autoPoster genera los asientos de cada cambio de monto en los libros.
type autoPoster struct {
	journal  JournalPoster
	accounts Accounts
}

func (p autoPoster) enabled() bool {
	return p.journal != nil && p.accounts.Enabled()
}

// documentAccounts débito/crédito para el alta de un documento:
// venta Dr CxC / Cr ingresos; compra Dr inventario / Cr CxP.
func (p autoPoster) documentAccounts(kind string) (debit, credit string) {
	if kind == entity.OutstandingPayable {
		return p.accounts.Inventory, p.accounts.Payable
	}
	return p.accounts.Receivable, p.accounts.Revenue
}

// paymentAccounts cobro Dr caja / Cr CxC; pago a proveedor Dr CxP / Cr caja.
func (p autoPoster) paymentAccounts(kind string) (debit, credit string) {
	if kind == entity.OutstandingPayable {
		return p.accounts.Payable, p.accounts.Cash
	}
	return p.accounts.Cash, p.accounts.Receivable
}

// postDocument registra el alta o la variación (delta con signo) del total de un documento.
func (p autoPoster) postDocument(ctx context.Context, repos repository.Repos, userID string, o entity.Outstanding, delta decimal.Decimal, date time.Time, memo string) error {
	if !p.enabled() || delta.IsZero() {
		return nil
	}
	dr, cr := p.documentAccounts(o.Kind)
	if delta.IsNegative() {
		dr, cr = cr, dr
		delta = delta.Neg()
	}
	return p.post(ctx, repos, userID, o.TenantID, o.SourceType, o.SourceID, dr, cr, delta, date, memo+" "+o.SourceNumber)
}

func (p autoPoster) postPayment(ctx context.Context, repos repository.Repos, userID, tenantID, kind, paymentID string, amount decimal.Decimal, date time.Time) error {
	if !p.enabled() || !amount.IsPositive() {
		return nil
	}
	dr, cr := p.paymentAccounts(kind)
	return p.post(ctx, repos, userID, tenantID, "payment", paymentID, dr, cr, amount, date, "pago "+paymentID)
}

func (p autoPoster) post(ctx context.Context, repos repository.Repos, userID, tenantID, sourceType, sourceID, dr, cr string, amount decimal.Decimal, date time.Time, memo string) error {
	_, err := p.journal.PostInTx(ctx, repos, accounting.JournalInput{
		TenantID:    tenantID,
		UserID:      userID,
		EntryDate:   date,
		Description: memo,
		SourceType:  sourceType,
		SourceID:    sourceID,
		Lines: []accounting.LineInput{
			{AccountCode: dr, Debit: amount, Credit: decimal.Zero, Memo: memo},
			{AccountCode: cr, Debit: decimal.Zero, Credit: amount, Memo: memo},
		},
	})
	return err
}
