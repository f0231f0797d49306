// Package di provides dependency injection for repositories.
package di

import (
	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/modules/ledger"
	"github.com/akeil/stashd/internal/modules/moneybox"
	"github.com/akeil/stashd/internal/modules/settings"
	"github.com/akeil/stashd/internal/modules/users"
)

// InitializeRepositories initializes the data access layer. All
// repositories are stateless over the shared store; they receive a
// Queryer per call so services can compose them inside transactions.
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	container.MoneyboxRepo = moneybox.NewRepository(log)
	container.NameHistoryRepo = moneybox.NewNameHistoryRepository(log)
	container.TransactionRepo = ledger.NewTransactionRepository(log)
	container.ActionLogRepo = ledger.NewActionLogRepository(log)
	container.SettingsRepo = settings.NewRepository(log)
	container.UserRepo = users.NewRepository(log)

	log.Debug().Msg("Repositories initialized")

	return nil
}
