// Package distribution implements the automated savings engine: a
// pure planner that allocates the monthly budget across the
// prioritized moneyboxes under the configured overflow mode, a service
// that commits one plan atomically, and a month-by-month predictor for
// savings targets.
package distribution

import (
	"time"

	"github.com/akeil/stashd/internal/domain"
)

// Box is the engine's snapshot of one active moneybox. Priority 0
// marks the overflow moneybox.
type Box struct {
	ID            int64
	Name          string
	Balance       int64
	SavingsAmount int64
	SavingsTarget *int64
	Priority      int64
}

// Step is one planned movement. Positive amounts deposit, negative
// amounts withdraw.
type Step struct {
	MoneyboxID  int64
	Amount      int64
	Description string
}

// Phase groups the steps of one allocation pass. All phases of a plan
// commit in a single transaction.
type Phase struct {
	Name  string
	Steps []Step
}

// Plan is the materialized outcome of one allocation run over a
// snapshot. An empty phase list means nothing moves this cycle.
type Plan struct {
	Mode            domain.OverflowMode
	Budget          int64
	EffectiveBudget int64
	Phases          []Phase
}

// Allocation is the net signed amount a moneybox receives in one
// cycle.
type Allocation struct {
	MoneyboxID int64  `json:"moneybox_id"`
	Name       string `json:"name"`
	Amount     int64  `json:"amount"`
}

// CycleReport summarizes one applied distribution cycle. It feeds the
// action log details and the report mail.
type CycleReport struct {
	CycleID         string              `json:"cycle_id"`
	Mode            domain.OverflowMode `json:"mode"`
	SavingsAmount   int64               `json:"savings_amount"`
	EffectiveBudget int64               `json:"effective_budget"`
	AppliedAt       time.Time           `json:"applied_at"`
	Allocations     []Allocation        `json:"allocations"`
}

// TargetForecast reports when a moneybox with a savings target is
// expected to reach it. ReachedInMonths is the 1-based month index, 0
// when the target is already met and -1 when no positive contribution
// will ever reach the box.
type TargetForecast struct {
	MoneyboxID      int64  `json:"moneybox_id"`
	Name            string `json:"name"`
	ReachedInMonths int64  `json:"reached_in_months"`
}
