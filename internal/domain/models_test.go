package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionType_Valid(t *testing.T) {
	assert.True(t, TransactionTypeDirect.Valid())
	assert.True(t, TransactionTypeDistribution.Valid())
	assert.False(t, TransactionType("").Valid())
	assert.False(t, TransactionType("direct").Valid())
}

func TestTransactionTrigger_Valid(t *testing.T) {
	assert.True(t, TriggerManually.Valid())
	assert.True(t, TriggerAutomatically.Valid())
	assert.False(t, TransactionTrigger("").Valid())
	assert.False(t, TransactionTrigger("SCHEDULED").Valid())
}

func TestOverflowMode_Valid(t *testing.T) {
	tests := []struct {
		mode  OverflowMode
		valid bool
	}{
		{OverflowModeCollect, true},
		{OverflowModeAddToAmount, true},
		{OverflowModeFillUpLimited, true},
		{OverflowModeRatio, true},
		{OverflowMode(""), false},
		{OverflowMode("collect"), false},
		{OverflowMode("SPREAD"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.mode.Valid(), "mode %q", tt.mode)
	}
}

func TestTriggerDay_Valid(t *testing.T) {
	assert.True(t, TriggerDayFirst.Valid())
	assert.True(t, TriggerDayMiddle.Valid())
	assert.True(t, TriggerDayLast.Valid())
	assert.False(t, TriggerDay("SECOND_OF_MONTH").Valid())
}

func TestActionType_Valid(t *testing.T) {
	assert.True(t, ActionActivatedAutomatedSaving.Valid())
	assert.True(t, ActionDeactivatedAutomatedSaving.Valid())
	assert.True(t, ActionAppliedAutomatedSaving.Valid())
	assert.True(t, ActionChangedAutomatedSavingsAmount.Valid())
	assert.False(t, ActionType("RESET_APP").Valid())
}

func TestUserRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, UserRole("ROOT").Valid())
}
