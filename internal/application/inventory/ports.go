package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/application/receivables"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// PayablePoster publica el saldo por pagar de una recepción en la misma transacción.
// Lo implementa receivables.LedgerUseCase.
type PayablePoster interface {
	PostOutstandingInTx(ctx context.Context, repos repository.Repos, in receivables.PostOutstandingInput) (*entity.Outstanding, error)
}
