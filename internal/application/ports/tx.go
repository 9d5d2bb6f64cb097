package ports

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con todos los repositorios atados a ella.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repos) error) error
}

// Clock fuente de la hora actual; en tests se fija una fecha.
type Clock func() time.Time

// SystemClock hora del sistema en UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
