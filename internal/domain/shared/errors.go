package shared

import (
	"github.com/shopspring/decimal"
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
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidAmount       = NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	ErrNoChange            = NewDomainError("NO_CHANGE", "New balance equals the current balance")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrLockTimeout         = NewDomainError("LOCK_TIMEOUT", "Could not acquire lock within the allowed time")
	ErrIntegrity           = NewDomainError("INTEGRITY_ERROR", "Ledger integrity violation")
	ErrTenantMismatch      = NewDomainError("TENANT_MISMATCH", "Resource does not belong to this tenant")
)

// ExceedsBalanceError is returned when a payment is larger than the
// customer's outstanding balance. It carries the exact balance so the
// caller can display "cannot exceed X".
type ExceedsBalanceError struct {
	Balance decimal.Decimal
}

// Error implements the error interface
func (e *ExceedsBalanceError) Error() string {
	return "Payment exceeds outstanding balance of " + e.Balance.StringFixed(2)
}

// Code returns the machine-readable error code
func (e *ExceedsBalanceError) Code() string {
	return "EXCEEDS_BALANCE"
}

// NewExceedsBalanceError creates an ExceedsBalanceError for the given balance
func NewExceedsBalanceError(balance decimal.Decimal) *ExceedsBalanceError {
	return &ExceedsBalanceError{Balance: balance}
}
