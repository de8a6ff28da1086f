package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code.
// It lets errors.Is(err, ErrNotFound) match a wrapped copy with a custom message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// CodeValidationError is the domain error code shared by every ValidationError
const CodeValidationError = "VALIDATION_ERROR"

// ValidationKind classifies why a record failed validation
type ValidationKind string

const (
	ValidationKindMissingField             ValidationKind = "missing-field"
	ValidationKindInvalidPostingTime       ValidationKind = "invalid-posting-time"
	ValidationKindInvalidQuantity          ValidationKind = "invalid-quantity"
	ValidationKindDisabledWarehouse        ValidationKind = "disabled-warehouse"
	ValidationKindWarehouseCompanyMismatch ValidationKind = "warehouse-company-mismatch"
	ValidationKindUnknownWarehouse         ValidationKind = "unknown-warehouse"
)

// ValidationError is returned when a record fails a validation rule.
// It embeds DomainError so handlers that match *DomainError keep working.
type ValidationError struct {
	*DomainError
	Kind  ValidationKind `json:"kind"`
	Field string         `json:"field,omitempty"`
}

// NewValidationError creates a validation error of the given kind
func NewValidationError(kind ValidationKind, field, message string) *ValidationError {
	return &ValidationError{
		DomainError: NewDomainError(CodeValidationError, message),
		Kind:        kind,
		Field:       field,
	}
}

// Unwrap exposes the embedded DomainError to errors.As
func (e *ValidationError) Unwrap() error {
	return e.DomainError
}

// IsValidationError reports whether err is (or wraps) a ValidationError of the given kind.
// An empty kind matches any ValidationError.
func IsValidationError(err error, kind ValidationKind) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	return kind == "" || ve.Kind == kind
}

// PersistenceError wraps a failure of the underlying store while reading or
// writing ledger state. Op names the failed step, e.g. "set_stock_reserved_qty".
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err as a PersistenceError. It returns nil for a nil err.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
