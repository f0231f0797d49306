// Package domain provides the shared types and error kinds of the
// savings engine.
package domain

// TransactionType distinguishes how a transaction came about.
type TransactionType string

const (
	// TransactionTypeDirect marks a deposit, withdrawal or transfer
	// requested through the API.
	TransactionTypeDirect TransactionType = "DIRECT"
	// TransactionTypeDistribution marks a movement produced by the
	// automated distribution engine.
	TransactionTypeDistribution TransactionType = "DISTRIBUTION"
)

// Valid reports whether the value is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeDirect || t == TransactionTypeDistribution
}

// TransactionTrigger distinguishes who initiated a transaction.
type TransactionTrigger string

const (
	TriggerManually      TransactionTrigger = "MANUALLY"
	TriggerAutomatically TransactionTrigger = "AUTOMATICALLY"
)

// Valid reports whether the value is a known transaction trigger.
func (t TransactionTrigger) Valid() bool {
	return t == TriggerManually || t == TriggerAutomatically
}

// OverflowMode selects the distribution strategy of the overflow
// moneybox during an automated savings cycle.
type OverflowMode string

const (
	// OverflowModeCollect keeps surplus in the overflow moneybox.
	OverflowModeCollect OverflowMode = "COLLECT"
	// OverflowModeAddToAmount empties the overflow moneybox into the
	// distribution budget before allocating.
	OverflowModeAddToAmount OverflowMode = "ADD_TO_AUTOMATED_SAVINGS_AMOUNT"
	// OverflowModeFillUpLimited sweeps the overflow balance into
	// target-limited moneyboxes after the regular allocation.
	OverflowModeFillUpLimited OverflowMode = "FILL_UP_LIMITED_MONEYBOXES"
	// OverflowModeRatio sweeps the overflow balance proportionally to
	// the savings amounts after the regular allocation.
	OverflowModeRatio OverflowMode = "RATIO"
)

// Valid reports whether the value is a known overflow mode.
func (m OverflowMode) Valid() bool {
	switch m {
	case OverflowModeCollect, OverflowModeAddToAmount, OverflowModeFillUpLimited, OverflowModeRatio:
		return true
	}
	return false
}

// TriggerDay names the day of month an automated savings cycle runs on.
type TriggerDay string

const (
	TriggerDayFirst  TriggerDay = "FIRST_OF_MONTH"
	TriggerDayMiddle TriggerDay = "MIDDLE_OF_MONTH"
	TriggerDayLast   TriggerDay = "LAST_OF_MONTH"
)

// Valid reports whether the value is a known trigger day.
func (d TriggerDay) Valid() bool {
	return d == TriggerDayFirst || d == TriggerDayMiddle || d == TriggerDayLast
}

// ActionType names an entry kind of the action log.
type ActionType string

const (
	ActionActivatedAutomatedSaving      ActionType = "ACTIVATED_AUTOMATED_SAVING"
	ActionDeactivatedAutomatedSaving    ActionType = "DEACTIVATED_AUTOMATED_SAVING"
	ActionAppliedAutomatedSaving        ActionType = "APPLIED_AUTOMATED_SAVING"
	ActionChangedAutomatedSavingsAmount ActionType = "CHANGED_AUTOMATED_SAVINGS_AMOUNT"
)

// Valid reports whether the value is a known action type.
func (a ActionType) Valid() bool {
	switch a {
	case ActionActivatedAutomatedSaving, ActionDeactivatedAutomatedSaving,
		ActionAppliedAutomatedSaving, ActionChangedAutomatedSavingsAmount:
		return true
	}
	return false
}

// UserRole names the permission level of a user record.
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// Valid reports whether the value is a known user role.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// OverflowPriority is the reserved priority of the overflow moneybox.
// All other active moneyboxes hold a dense 1..N priority sequence.
const OverflowPriority = 0
