package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by services and repositories. Callers classify
// with errors.Is; the HTTP layer maps each kind to a status code.
var (
	// ErrNotFound indicates the addressed record does not exist (or is
	// inactive where only active records are addressable).
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a structurally invalid input value.
	ErrValidation = errors.New("validation failed")

	// ErrNameConflict indicates a moneybox name is already taken by an
	// active moneybox.
	ErrNameConflict = errors.New("moneybox name already in use")

	// ErrPriorityConflict indicates a priority is already assigned to an
	// active moneybox.
	ErrPriorityConflict = errors.New("priority already in use")

	// ErrOverflowNotModifiable indicates an attempt to change protected
	// fields of the overflow moneybox.
	ErrOverflowNotModifiable = errors.New("overflow moneybox cannot be modified")

	// ErrOverflowNotDeletable indicates an attempt to delete the overflow
	// moneybox.
	ErrOverflowNotDeletable = errors.New("overflow moneybox cannot be deleted")

	// ErrHasBalance indicates a delete was refused because the moneybox
	// still holds funds.
	ErrHasBalance = errors.New("moneybox balance must be zero")

	// ErrNonPositiveAmount indicates a movement amount of zero or less.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrBalanceNegative indicates a movement would overdraw a moneybox.
	ErrBalanceNegative = errors.New("insufficient balance")

	// ErrTransferEqualMoneybox indicates source and destination of a
	// transfer are the same moneybox.
	ErrTransferEqualMoneybox = errors.New("cannot transfer within the same moneybox")

	// ErrInconsistentDatabase indicates a store state that violates a
	// structural invariant (missing overflow moneybox, missing or
	// duplicated settings row).
	ErrInconsistentDatabase = errors.New("inconsistent database state")

	// ErrStore indicates an infrastructure failure in the store.
	ErrStore = errors.New("store failure")
)

// AutomatedSavingsError wraps a failure inside an automated savings
// cycle with the phase it occurred in.
type AutomatedSavingsError struct {
	Phase string // "snapshot", "plan", "apply", "record"
	Err   error
}

func (e *AutomatedSavingsError) Error() string {
	return fmt.Sprintf("automated savings failed during %s: %v", e.Phase, e.Err)
}

func (e *AutomatedSavingsError) Unwrap() error {
	return e.Err
}
