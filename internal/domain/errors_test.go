package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrorKinds_Distinct tests that each error kind classifies only as
// itself, since the HTTP status mapping depends on that.
func TestErrorKinds_Distinct(t *testing.T) {
	kinds := []error{
		ErrNotFound,
		ErrValidation,
		ErrNameConflict,
		ErrPriorityConflict,
		ErrOverflowNotModifiable,
		ErrOverflowNotDeletable,
		ErrHasBalance,
		ErrNonPositiveAmount,
		ErrBalanceNegative,
		ErrTransferEqualMoneybox,
		ErrInconsistentDatabase,
		ErrStore,
	}

	for i, kind := range kinds {
		for j, other := range kinds {
			if i == j {
				assert.ErrorIs(t, kind, other)
				continue
			}
			assert.NotErrorIs(t, kind, other, "%v must not match %v", kind, other)
		}
	}
}

func TestErrorKinds_SurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("creating moneybox: %w", ErrNameConflict)
	assert.ErrorIs(t, wrapped, ErrNameConflict)
	assert.NotErrorIs(t, wrapped, ErrValidation)
}

func TestAutomatedSavingsError(t *testing.T) {
	cause := fmt.Errorf("%w: moneybox 3", ErrNotFound)
	err := &AutomatedSavingsError{Phase: "apply", Err: cause}

	assert.Equal(t, "automated savings failed during apply: not found: moneybox 3", err.Error())
	assert.ErrorIs(t, err, ErrNotFound, "the cause stays reachable through Unwrap")

	var asErr *AutomatedSavingsError
	assert.True(t, errors.As(err, &asErr))
	assert.Equal(t, "apply", asErr.Phase)
}
