package receivables

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/application/accounting"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// JournalPoster contabiliza asientos en la transacción del llamador.
// Lo implementa accounting.JournalUseCase.
type JournalPoster interface {
	PostInTx(ctx context.Context, repos repository.Repos, in accounting.JournalInput) (*entity.JournalEntry, error)
}

// Accounts códigos contables de los asientos automáticos. Vacíos = no se generan asientos.
type Accounts struct {
	Receivable string
	Payable    string
	Revenue    string
	Cash       string
	Inventory  string
}

// Enabled indica si todas las cuentas están configuradas.
func (a Accounts) Enabled() bool {
	return a.Receivable != "" && a.Payable != "" && a.Revenue != "" && a.Cash != "" && a.Inventory != ""
}
