// Package di provides dependency injection for database connections.
package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/config"
	"github.com/akeil/stashd/internal/database"
)

// InitializeDatabase opens the savings store, applies the schema and
// provisions the structural invariants (overflow moneybox, settings
// row).
func InitializeDatabase(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// stashd.db - moneyboxes, transaction and action ledgers, settings, users.
	// The ledger profile fsyncs after every write: the transaction trail is
	// the authoritative record of the user's money.
	store, err := database.New(database.Config{
		Path:    cfg.DataDir + "/stashd.db",
		Profile: database.ProfileLedger,
		Name:    "stashd",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize savings database: %w", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate savings database: %w", err)
	}

	if err := store.Provision(context.Background()); err != nil {
		store.Close()
		return nil, err
	}

	container.Store = store

	log.Info().Str("path", store.Path()).Msg("Savings database initialized")

	return container, nil
}
