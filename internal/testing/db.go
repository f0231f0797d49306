// Package testing provides testing utilities and helpers for stashd.
package testing

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/akeil/stashd/internal/database"
)

// NewTestDB creates a temporary SQLite database for testing with the
// schema applied and the structural invariants provisioned (overflow
// moneybox, settings row). Returns the database instance and a cleanup
// function that closes the connection and removes the file. The cleanup
// function is idempotent and can be called multiple times safely.
func NewTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	db, cleanup := NewBareTestDB(t)

	if err := db.Provision(context.Background()); err != nil {
		cleanup()
		t.Fatalf("Failed to provision test database: %v", err)
	}

	return db, cleanup
}

// NewBareTestDB creates a temporary SQLite database with the schema
// applied but without provisioning. Used by tests that exercise the
// provisioning itself.
func NewBareTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	// Temporary file per test keeps tests isolated; in-memory databases
	// do not survive the connection pool.
	tmpFile, err := os.CreateTemp("", "test_stashd_*.db")
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    "test",
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
		for _, path := range []string{tmpPath, tmpPath + "-wal", tmpPath + "-shm"} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				t.Logf("Warning: Failed to remove %s: %v", path, err)
			}
		}
	}
}

// OverflowID returns the id of the provisioned overflow moneybox.
func OverflowID(t *testing.T, db *database.DB) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(`SELECT id FROM moneyboxes WHERE priority = 0 AND is_active = 1`).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to look up overflow moneybox: %v", err)
	}
	return id
}

// fatalfIfErr is a tiny shorthand for seed helpers.
func fatalfIfErr(t *testing.T, err error, format string, args ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", fmt.Sprintf(format, args...), err)
	}
}
