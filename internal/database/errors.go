package database

import (
	"fmt"
	"strings"

	"github.com/akeil/stashd/internal/domain"
)

// TranslateError maps SQLite constraint violations onto domain error
// kinds. Services validate up front, so this is the backstop for races
// and for writes that bypass a service. Unrecognized errors come back
// wrapped as store failures.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	// SQLite names the violated columns for unique indexes and the
	// constraint for named CHECK constraints.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: moneyboxes.name"):
		return fmt.Errorf("%w: %v", domain.ErrNameConflict, err)
	case strings.Contains(msg, "UNIQUE constraint failed: moneyboxes.priority"):
		return fmt.Errorf("%w: %v", domain.ErrPriorityConflict, err)
	case strings.Contains(msg, "UNIQUE constraint failed: users.user_login"):
		return fmt.Errorf("%w: %v", domain.ErrNameConflict, err)
	case strings.Contains(msg, "ck_moneyboxes_balance"),
		strings.Contains(msg, "ck_transactions_balance"):
		return fmt.Errorf("%w: %v", domain.ErrBalanceNegative, err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", domain.ErrStore, err)
}
