// Package repository defines the persistence layer of the cart and
// checkout flows together with the error values shared by every layer
// above it.  Handlers translate these sentinels into HTTP statuses with
// errors.Is; storage errors never leave the service layer unwrapped.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced order, ticket, tier, event or
// cart does not exist (or is soft deleted) for the operation.
var ErrNotFound = errors.New("not found")

// ErrConflictState signals that the stored state forbids the operation,
// for example a user owning more than one open cart.  It is never
// repaired automatically.  Handlers translate it into 412.
var ErrConflictState = errors.New("conflict state")

// ErrInventoryExhausted is returned when a checkout cannot take the
// requested quantity from a tier without driving it below zero.
var ErrInventoryExhausted = errors.New("inventory exhausted")

// ErrUnauthorized is returned by the ownership gate when the caller does
// not own the order or ticket.  Handlers translate it into 403.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidInput is returned when caller supplied values fail validation.
var ErrInvalidInput = errors.New("invalid input")

// Specific ConflictState reasons.
var (
	ErrMultipleCarts = fmt.Errorf("%w: more than one cart found", ErrConflictState)
	ErrCartClosed    = fmt.Errorf("%w: cart is no longer open", ErrConflictState)
	ErrEmptyCart     = fmt.Errorf("%w: cart has no reserved tickets", ErrConflictState)
	ErrCartRace      = fmt.Errorf("%w: cart created concurrently", ErrConflictState)
)

// InventoryExhaustedError names the tier a checkout could not be served
// from.  It matches ErrInventoryExhausted under errors.Is.
type InventoryExhaustedError struct {
	TierID    string
	Requested int
}

func (e *InventoryExhaustedError) Error() string {
	return fmt.Sprintf("inventory exhausted: tier %s cannot supply %d tickets", e.TierID, e.Requested)
}

// Is makes errors.Is(err, ErrInventoryExhausted) hold.
func (e *InventoryExhaustedError) Is(target error) bool { return target == ErrInventoryExhausted }
