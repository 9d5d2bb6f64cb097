package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrInvalidMovement     = errors.New("movimiento inválido")
	ErrUnbalancedEntry     = errors.New("asiento descuadrado")
	ErrClosedPeriod        = errors.New("periodo contable cerrado")
	ErrCreditExceeded      = errors.New("límite de crédito excedido")
	ErrDuplicateAllocation = errors.New("asignación duplicada")
	ErrLockContention      = errors.New("recurso bloqueado por otra transacción")
	ErrImmutable           = errors.New("el registro ya fue contabilizado")
)

// InsufficientStockError ningún lote individual cubre la cantidad pedida.
type InsufficientStockError struct {
	ProductID     string
	Requested     decimal.Decimal
	BestAvailable decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: solicitado %s, mejor lote disponible %s",
		e.ProductID, e.Requested, e.BestAvailable)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidMovementError el movimiento viola el contrato de signo/cantidad de su tipo.
type InvalidMovementError struct {
	Type      string
	Reason    string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InvalidMovementError) Error() string {
	if e.Requested.IsPositive() {
		return fmt.Sprintf("movimiento %s inválido: %s (disponible %s, solicitado %s)",
			e.Type, e.Reason, e.Available, e.Requested)
	}
	return fmt.Sprintf("movimiento %s inválido: %s", e.Type, e.Reason)
}

func (e *InvalidMovementError) Unwrap() error { return ErrInvalidMovement }

// UnbalancedEntryError la suma de débitos difiere de la de créditos más allá de la tolerancia.
type UnbalancedEntryError struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Tolerance   decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("asiento descuadrado: débito %s, crédito %s (diferencia %s, tolerancia %s)",
		e.TotalDebit, e.TotalCredit, e.Difference(), e.Tolerance)
}

// Difference valor absoluto de la diferencia debe - haber.
func (e *UnbalancedEntryError) Difference() decimal.Decimal {
	return e.TotalDebit.Sub(e.TotalCredit).Abs()
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalancedEntry }

// ClosedPeriodError la fecha del asiento cae en un periodo cerrado o bloqueado.
type ClosedPeriodError struct {
	PeriodID  string
	Status    string
	EntryDate time.Time
}

func (e *ClosedPeriodError) Error() string {
	return fmt.Sprintf("periodo %s en estado %s no admite asientos con fecha %s",
		e.PeriodID, e.Status, e.EntryDate.Format("2006-01-02"))
}

func (e *ClosedPeriodError) Unwrap() error { return ErrClosedPeriod }

// CreditExceededError fallo blando: la orden queda en credit_hold, no se aborta la transacción.
type CreditExceededError struct {
	PartyID     string
	Exposure    decimal.Decimal
	CreditLimit decimal.Decimal
}

func (e *CreditExceededError) Error() string {
	return fmt.Sprintf("exposición %s supera el límite de crédito %s del tercero %s",
		e.Exposure, e.CreditLimit, e.PartyID)
}

func (e *CreditExceededError) Unwrap() error { return ErrCreditExceeded }

// DuplicateAllocationError el documento o pago ya está registrado con los mismos valores.
type DuplicateAllocationError struct {
	ExistingID string
	Reference  string
}

func (e *DuplicateAllocationError) Error() string {
	return fmt.Sprintf("asignación duplicada para %s (registro existente %s)", e.Reference, e.ExistingID)
}

func (e *DuplicateAllocationError) Unwrap() error { return ErrDuplicateAllocation }

// LockContentionError otra transacción tiene bloqueado el recurso; el llamador puede reintentar.
type LockContentionError struct {
	Resource string
	ID       string
}

func (e *LockContentionError) Error() string {
	return fmt.Sprintf("%s %s bloqueado por otra transacción", e.Resource, e.ID)
}

func (e *LockContentionError) Unwrap() error { return ErrLockContention }

// Retryable siempre verdadero: la contención se resuelve reintentando.
func (e *LockContentionError) Retryable() bool { return true }

// IsRetryable indica si el error puede resolverse reintentando la operación.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// IsHardFailure errores que abortan la transacción completa.
func IsHardFailure(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidMovement) ||
		errors.Is(err, ErrUnbalancedEntry) ||
		errors.Is(err, ErrClosedPeriod)
}
