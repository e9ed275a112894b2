/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The business package returns these; the API maps them to status codes.

ERROR CATEGORIES:
  1. Admission errors - a sale asks for more stock than is available
  2. Validation errors - malformed drafts, payments, imports
  3. Lookup errors - unknown purchase, sale, or debt
  4. Store errors - the key-value gateway failed to persist state

USAGE:
  Callers branch with errors.Is / errors.As:

    var stockErr *generic.InsufficientStockError
    if errors.As(err, &stockErr) {
        fmt.Printf("only %s of %s left\n", stockErr.Available, stockErr.ProductName)
    }

SEE ALSO:
  - business/ledger.go: Returns these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientStock is returned when a sale line exceeds current stock.
	// The whole sale is rejected.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a draft or request breaks a field rule.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOverpayment is returned under the reject policy when a payment
	// exceeds the outstanding balance.
	ErrOverpayment = errors.New("payment exceeds outstanding debt")

	// ErrHasDependents is returned when deleting or editing a record would
	// orphan records that depend on it.
	ErrHasDependents = errors.New("record has dependent records")

	// ErrInvalidImport is returned when an import document is missing a
	// required collection.
	ErrInvalidImport = errors.New("invalid import document")

	// ErrPersistence is returned when the in-memory state changed but could
	// not be written to the store.
	ErrPersistence = errors.New("persistence failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError provides details about a stock shortage.
type InsufficientStockError struct {
	ProductName string
	Available   decimal.Decimal
	Required    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %s, required %s",
		e.ProductName, e.Available, e.Required)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// NotFoundError names the kind and id of a missing record.
type NotFoundError struct {
	Kind string // "debt", "sale", "purchase", "backup"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError reports a single field rule violation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// OverpaymentError details a payment rejected by the reject policy.
type OverpaymentError struct {
	DebtID      string
	Outstanding decimal.Decimal
	Offered     decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds outstanding %s on debt %s",
		e.Offered, e.Outstanding, e.DebtID)
}

func (e *OverpaymentError) Unwrap() error {
	return ErrOverpayment
}

// DependentsError explains why a record cannot be removed or changed.
type DependentsError struct {
	Kind   string
	ID     string
	Reason string
}

func (e *DependentsError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.ID, e.Reason)
}

func (e *DependentsError) Unwrap() error {
	return ErrHasDependents
}

// PersistenceError wraps a store failure. The in-memory state it describes
// was already applied and is not rolled back.
type PersistenceError struct {
	Keys []string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", strings.Join(e.Keys, ","), e.Err)
}

// Unwrap exposes both the sentinel and the underlying store error.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrHasDependents) ||
		errors.Is(err, ErrInvalidImport)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
