package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isLockNotAvailable FOR UPDATE NOWAIT sobre una fila bloqueada (55P03),
// deadlock (40P01) o fallo de serialización (40001): todos se resuelven reintentando.
func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40P01", "40001":
			return true
		}
	}
	return false
}

// mapError traduce errores de PostgreSQL a errores de dominio.
func mapError(resource, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case isLockNotAvailable(err):
		return &domain.LockContentionError{Resource: resource, ID: id}
	case isUniqueViolation(err):
		return errors.Join(domain.ErrConflict, err)
	}
	return err
}
