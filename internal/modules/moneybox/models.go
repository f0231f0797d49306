// Package moneybox implements the moneybox service: named accounts
// with balances, per-cycle savings amounts, optional savings targets
// and a dense 1..N priority order, plus the reserved overflow moneybox
// at priority 0.
package moneybox

import (
	"time"

	"github.com/akeil/stashd/internal/domain"
)

// Moneybox is a named account with its own balance, contribution rate
// and optional savings target. All monetary values are integer minor
// units.
type Moneybox struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Balance       int64     `json:"balance"`
	SavingsAmount int64     `json:"savings_amount"`
	SavingsTarget *int64    `json:"savings_target"` // nil = unbounded
	Priority      *int64    `json:"priority"`       // nil only on inactive rows
	Description   string    `json:"description"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	ModifiedAt    time.Time `json:"modified_at"`
}

// IsOverflow reports whether this is the overflow moneybox.
func (m *Moneybox) IsOverflow() bool {
	return m.Priority != nil && *m.Priority == domain.OverflowPriority
}

// CreateParams carries the caller-supplied fields of a new moneybox.
// Priority is always assigned by the service.
type CreateParams struct {
	Name          string `json:"name"`
	SavingsAmount int64  `json:"savings_amount"`
	SavingsTarget *int64 `json:"savings_target"`
	Description   string `json:"description"`
}

// UpdateParams carries a sparse field set. Nil pointers leave the
// field untouched. SetSavingsTarget distinguishes clearing the target
// (true with nil SavingsTarget) from not touching it.
type UpdateParams struct {
	Name             *string
	Description      *string
	SavingsAmount    *int64
	SavingsTarget    *int64
	SetSavingsTarget bool
}

// PriorityEntry is one row of the priority list.
type PriorityEntry struct {
	MoneyboxID int64  `json:"moneybox_id"`
	Name       string `json:"name"`
	Priority   int64  `json:"priority"`
}

// PriorityUpdate assigns a new priority to one moneybox during a
// reorder.
type PriorityUpdate struct {
	MoneyboxID int64 `json:"moneybox_id"`
	Priority   int64 `json:"priority"`
}
