package database

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test_db_*.db")
	require.NoError(t, err)
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := New(Config{
		Path:    tmpPath,
		Profile: ProfileStandard,
		Name:    "test",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	return db, func() {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		_ = os.Remove(tmpPath + "-wal")
		_ = os.Remove(tmpPath + "-shm")
	}
}

func countMoneyboxes(t *testing.T, db *DB) int {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM moneyboxes`).Scan(&count))
	return count
}

func insertMoneybox(ctx context.Context, tx *sql.Tx, name string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO moneyboxes (name, priority, created_at, modified_at) VALUES (?, NULL, 1, 1)`,
		name,
	)
	return err
}

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	// Schema was already applied by newTestDB; a second run must not fail.
	require.NoError(t, db.Migrate())
}

func TestWithTransaction_Commit(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	ctx := context.Background()
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		return insertMoneybox(ctx, tx, "Vacation")
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countMoneyboxes(t, db))
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	ctx := context.Background()
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertMoneybox(ctx, tx, "Vacation"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, 0, countMoneyboxes(t, db), "insert must be rolled back")
}

func TestWithTransaction_RollbackOnPanic(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	ctx := context.Background()
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertMoneybox(ctx, tx, "Vacation"); err != nil {
			return err
		}
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")

	assert.Equal(t, 0, countMoneyboxes(t, db), "insert must be rolled back")
}

func TestWithTransaction_NilDB(t *testing.T) {
	err := WithTransaction(context.Background(), nil, func(tx *sql.Tx) error {
		return nil
	})
	require.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, db.QuickCheck(context.Background()))
}

func TestSchemaConstraints(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	seed := func(name string, priority interface{}) error {
		_, err := db.Exec(
			`INSERT INTO moneyboxes (name, priority, created_at, modified_at) VALUES (?, ?, 1, 1)`,
			name, priority,
		)
		return err
	}

	require.NoError(t, seed("Vacation", 1))

	t.Run("active names are unique", func(t *testing.T) {
		err := seed("Vacation", 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UNIQUE constraint failed: moneyboxes.name")
	})

	t.Run("active priorities are unique", func(t *testing.T) {
		err := seed("Emergency Fund", 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UNIQUE constraint failed: moneyboxes.priority")
	})

	t.Run("soft deleted rows leave the unique indexes", func(t *testing.T) {
		_, err := db.Exec(`UPDATE moneyboxes SET is_active = 0, priority = NULL WHERE name = 'Vacation'`)
		require.NoError(t, err)

		assert.NoError(t, seed("Vacation", 1))
	})

	t.Run("balance must not go negative", func(t *testing.T) {
		_, err := db.Exec(`UPDATE moneyboxes SET balance = -1 WHERE name = 'Vacation' AND is_active = 1`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ck_moneyboxes_balance")
	})

	t.Run("blank names are rejected", func(t *testing.T) {
		err := seed("   ", 7)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ck_moneyboxes_name")
	})

	t.Run("report flag requires an email address", func(t *testing.T) {
		_, err := db.Exec(
			`INSERT INTO app_settings (send_reports_via_email, user_email_address, created_at, modified_at)
			 VALUES (1, NULL, 1, 1)`,
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ck_app_settings_email")
	})
}
