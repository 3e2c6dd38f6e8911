// Package repository holds the database/sql stores for tables, bills,
// items, payments, the menu and staff accounts, plus the error values
// shared with the layers above.
//
// Every concrete error wraps exactly one category sentinel so handlers
// can classify with errors.Is without knowing each individual error:
// ErrValidation maps to 400, ErrNotFound to 404, ErrConflict to 409,
// ErrTransaction to 500 and ErrUpstream to 502.
package repository

import (
	"errors"
	"fmt"
)

// Categories.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrTransaction = errors.New("transaction failed")
	ErrUpstream    = errors.New("upstream service failed")
	// ErrForbidden is returned when the caller's role does not permit
	// the operation. Handlers translate it into 403.
	ErrForbidden = errors.New("forbidden")
)

var (
	ErrBillNotFound     = fmt.Errorf("%w: bill not found", ErrNotFound)
	ErrItemNotFound     = fmt.Errorf("%w: item not found", ErrNotFound)
	ErrMenuItemNotFound = fmt.Errorf("%w: menu item not found", ErrNotFound)
	ErrTableNotFound    = fmt.Errorf("%w: table not found", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("%w: user not found", ErrNotFound)

	// ErrNoSettlableItems means none of the requested items exist unpaid
	// on the bill, usually because another guest paid them first.
	ErrNoSettlableItems = fmt.Errorf("%w: no unpaid items to settle", ErrConflict)
	ErrUnsettledItems   = fmt.Errorf("%w: bill has unpaid items", ErrConflict)
	ErrBillClosed       = fmt.Errorf("%w: bill is closed", ErrConflict)
	ErrTableOccupied    = fmt.Errorf("%w: table already has an open bill", ErrConflict)
	ErrEmailExists      = fmt.Errorf("%w: email already exists", ErrConflict)

	ErrInvalidToken = errors.New("invalid or expired token")
)

// ValidationError wraps ErrValidation with a field-level message.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// TxError marks a storage failure inside a transaction. The caller has
// rolled back (or will) and nothing from op was persisted.
func TxError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransaction, op, err)
}

// UpstreamError wraps a failure from an external collaborator.
func UpstreamError(service string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, service, err)
}
