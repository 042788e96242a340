package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("saldo insuficiente")
	ErrTransaction       = errors.New("la transacción no pudo confirmarse")
)

// ValidationError solicitud mal formada; se detecta antes de cualquier escritura.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError construye un ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientBalanceError decremento contra un saldo inexistente o menor que lo solicitado.
// Missing indica que la fila (lote, ubicación) nunca existió.
type InsufficientBalanceError struct {
	BatchID    string
	LocationID string
	Missing    bool
	Current    decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	if e.Missing {
		return fmt.Sprintf("insufficient balance: record does not exist (batch %s, location %s)", e.BatchID, e.LocationID)
	}
	return fmt.Sprintf("insufficient balance: would go negative (batch %s, location %s, current %s, attempted -%s)",
		e.BatchID, e.LocationID, e.Current.String(), e.Requested.String())
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientStock }

// TransactionError fallo de infraestructura del almacén (begin, escritura, commit o conflicto).
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrTransaction).
func (e *TransactionError) Is(target error) bool { return target == ErrTransaction }

// NewTransactionError envuelve err salvo que ya sea un error de dominio tipado.
func NewTransactionError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var ie *InsufficientBalanceError
	var te *TransactionError
	if errors.As(err, &ve) || errors.As(err, &ie) || errors.As(err, &te) {
		return err
	}
	return &TransactionError{Op: op, Err: err}
}
