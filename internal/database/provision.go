package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akeil/stashd/internal/domain"
)

// OverflowMoneyboxName is the name the overflow moneybox is seeded
// with. The overflow moneybox is identified by its reserved priority,
// never by name, and is not updatable through the service.
const OverflowMoneyboxName = "Overflow Moneybox"

// Provision ensures the structural invariants of the database: exactly
// one active overflow moneybox and exactly one active settings row.
// Safe to call on every startup.
func (db *DB) Provision(ctx context.Context) error {
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		return provision(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("failed to provision database %s: %w", db.name, err)
	}
	return nil
}

func provision(ctx context.Context, tx *sql.Tx) error {
	now := time.Now().UTC().UnixNano()

	var overflowCount int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM moneyboxes WHERE priority = ? AND is_active = 1`,
		domain.OverflowPriority,
	).Scan(&overflowCount)
	if err != nil {
		return fmt.Errorf("failed to count overflow moneyboxes: %w", err)
	}

	switch {
	case overflowCount == 0:
		res, err := tx.ExecContext(ctx,
			`INSERT INTO moneyboxes
			   (name, balance, savings_amount, savings_target, priority, description, is_active, created_at, modified_at)
			 VALUES (?, 0, 0, NULL, ?, ?, 1, ?, ?)`,
			OverflowMoneyboxName, domain.OverflowPriority,
			"Collects funds the automated distribution could not place.",
			now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert overflow moneybox: %w", TranslateError(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read overflow moneybox id: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO moneybox_name_histories (moneybox_id, name, created_at) VALUES (?, ?, ?)`,
			id, OverflowMoneyboxName, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert overflow name history: %w", TranslateError(err))
		}

	case overflowCount > 1:
		return fmt.Errorf("%w: found %d overflow moneyboxes", domain.ErrInconsistentDatabase, overflowCount)
	}

	var settingsCount int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM app_settings WHERE is_active = 1`).Scan(&settingsCount)
	if err != nil {
		return fmt.Errorf("failed to count settings rows: %w", err)
	}

	switch {
	case settingsCount == 0:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO app_settings
			   (is_automated_saving_active, savings_amount, overflow_moneybox_automated_savings_mode,
			    send_reports_via_email, user_email_address, automated_saving_trigger_day,
			    is_active, created_at, modified_at)
			 VALUES (0, 0, ?, 0, NULL, ?, 1, ?, ?)`,
			string(domain.OverflowModeCollect), string(domain.TriggerDayFirst), now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settings row: %w", TranslateError(err))
		}

	case settingsCount > 1:
		return fmt.Errorf("%w: found %d active settings rows", domain.ErrInconsistentDatabase, settingsCount)
	}

	return nil
}

// Reset wipes all savings data and re-provisions. With keepSettings the
// settings row survives untouched; user accounts always survive.
func (db *DB) Reset(ctx context.Context, keepSettings bool) error {
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		tables := []string{"transactions", "moneybox_name_histories", "moneyboxes", "action_logs"}
		if !keepSettings {
			tables = append(tables, "app_settings")
		}

		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
			// Restart AUTOINCREMENT counters for wiped tables
			if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table); err != nil {
				return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
			}
		}

		return provision(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("failed to reset database %s: %w", db.name, err)
	}

	// A full reset leaves the file mostly free pages; compact it.
	// VACUUM cannot run inside the wipe transaction.
	if !keepSettings {
		if err := db.Vacuum(); err != nil {
			return fmt.Errorf("failed to compact database %s after reset: %w", db.name, err)
		}
	}

	return nil
}
