package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akeil/stashd/internal/domain"
)

// TestTranslateError tests that SQLite constraint messages map onto the
// right domain error kinds.
func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want error
	}{
		{
			name: "duplicate active name",
			msg:  "constraint failed: UNIQUE constraint failed: moneyboxes.name (2067)",
			want: domain.ErrNameConflict,
		},
		{
			name: "duplicate active priority",
			msg:  "constraint failed: UNIQUE constraint failed: moneyboxes.priority (2067)",
			want: domain.ErrPriorityConflict,
		},
		{
			name: "duplicate active login",
			msg:  "constraint failed: UNIQUE constraint failed: users.user_login (2067)",
			want: domain.ErrNameConflict,
		},
		{
			name: "moneybox balance below zero",
			msg:  "constraint failed: CHECK constraint failed: ck_moneyboxes_balance (275)",
			want: domain.ErrBalanceNegative,
		},
		{
			name: "transaction balance below zero",
			msg:  "constraint failed: CHECK constraint failed: ck_transactions_balance (275)",
			want: domain.ErrBalanceNegative,
		},
		{
			name: "other check constraint",
			msg:  "constraint failed: CHECK constraint failed: ck_app_settings_email (275)",
			want: domain.ErrValidation,
		},
		{
			name: "foreign key to a missing row",
			msg:  "constraint failed: FOREIGN KEY constraint failed (787)",
			want: domain.ErrNotFound,
		},
		{
			name: "anything else",
			msg:  "database is locked (5)",
			want: domain.ErrStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(errors.New(tt.msg))
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestTranslateError_Nil(t *testing.T) {
	assert.NoError(t, TranslateError(nil))
}

// TestTranslateError_KeepsCause tests that the original message survives
// translation so logs stay diagnosable.
func TestTranslateError_KeepsCause(t *testing.T) {
	got := TranslateError(errors.New("UNIQUE constraint failed: moneyboxes.name"))
	assert.ErrorIs(t, got, domain.ErrNameConflict)
	assert.Contains(t, got.Error(), "moneyboxes.name")
}
