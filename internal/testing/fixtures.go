package testing

import (
	"testing"
	"time"

	"github.com/akeil/stashd/internal/database"
)

// SeedMoneybox inserts an active moneybox directly into the store,
// including its initial name history row, and returns its id. Use the
// moneybox service in tests that exercise creation semantics; use this
// to arrange state quickly.
func SeedMoneybox(t *testing.T, db *database.DB, name string, balance, savingsAmount int64, savingsTarget *int64, priority int64) int64 {
	t.Helper()

	now := time.Now().UTC().UnixNano()

	var target interface{}
	if savingsTarget != nil {
		target = *savingsTarget
	}

	result, err := db.Exec(
		`INSERT INTO moneyboxes
		   (name, balance, savings_amount, savings_target, priority, description, is_active, created_at, modified_at)
		 VALUES (?, ?, ?, ?, ?, '', 1, ?, ?)`,
		name, balance, savingsAmount, target, priority, now, now,
	)
	fatalfIfErr(t, err, "Failed to seed moneybox %q", name)

	id, err := result.LastInsertId()
	fatalfIfErr(t, err, "Failed to read seeded moneybox id")

	_, err = db.Exec(
		`INSERT INTO moneybox_name_histories (moneybox_id, name, created_at) VALUES (?, ?, ?)`,
		id, name, now,
	)
	fatalfIfErr(t, err, "Failed to seed name history for %q", name)

	return id
}

// UpdateSettings rewrites the active settings row directly. Email stays
// NULL unless email is non-empty.
func UpdateSettings(t *testing.T, db *database.DB, active bool, savingsAmount int64, mode, triggerDay string, sendReports bool, email string) {
	t.Helper()

	var emailValue interface{}
	if email != "" {
		emailValue = email
	}

	_, err := db.Exec(
		`UPDATE app_settings SET
		   is_automated_saving_active = ?,
		   savings_amount = ?,
		   overflow_moneybox_automated_savings_mode = ?,
		   automated_saving_trigger_day = ?,
		   send_reports_via_email = ?,
		   user_email_address = ?,
		   modified_at = ?
		 WHERE is_active = 1`,
		boolToInt(active), savingsAmount, mode, triggerDay,
		boolToInt(sendReports), emailValue, time.Now().UTC().UnixNano(),
	)
	fatalfIfErr(t, err, "Failed to update settings")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
