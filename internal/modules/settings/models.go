// Package settings manages the single-row application settings that
// drive the automated savings cycle: the monthly budget, the overflow
// distribution mode, the trigger day and the report mail address.
package settings

import (
	"time"

	"github.com/akeil/stashd/internal/domain"
)

// AppSettings is the one active application settings row.
type AppSettings struct {
	ID                        int64               `json:"id"`
	IsAutomatedSavingActive   bool                `json:"is_automated_saving_active"`
	SavingsAmount             int64               `json:"savings_amount"`
	OverflowMode              domain.OverflowMode `json:"overflow_moneybox_automated_savings_mode"`
	SendReportsViaEmail       bool                `json:"send_reports_via_email"`
	UserEmailAddress          *string             `json:"user_email_address"`
	AutomatedSavingTriggerDay domain.TriggerDay   `json:"automated_saving_trigger_day"`
	IsActive                  bool                `json:"is_active"`
	CreatedAt                 time.Time           `json:"created_at"`
	ModifiedAt                time.Time           `json:"modified_at"`
}

// UpdateParams carries a sparse settings update. Nil pointers leave
// the field untouched. SetUserEmailAddress distinguishes clearing the
// address from not sending the field at all.
type UpdateParams struct {
	IsAutomatedSavingActive   *bool
	SavingsAmount             *int64
	OverflowMode              *domain.OverflowMode
	SendReportsViaEmail       *bool
	UserEmailAddress          *string
	SetUserEmailAddress       bool
	AutomatedSavingTriggerDay *domain.TriggerDay
}
