// Package di provides dependency injection for services.
package di

import (
	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/config"
	"github.com/akeil/stashd/internal/mailer"
	"github.com/akeil/stashd/internal/modules/distribution"
	"github.com/akeil/stashd/internal/modules/ledger"
	"github.com/akeil/stashd/internal/modules/moneybox"
	"github.com/akeil/stashd/internal/modules/settings"
	"github.com/akeil/stashd/internal/modules/users"
)

// InitializeServices initializes the business logic layer on top of the
// repositories. Ordering matters: the moneybox service feeds the
// distribution service, and the ledger service resolves names through
// the moneybox name history.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.MoneyboxService = moneybox.NewService(
		container.Store,
		container.MoneyboxRepo,
		container.NameHistoryRepo,
		container.TransactionRepo,
		log,
	)

	container.LedgerService = ledger.NewService(
		container.Store,
		container.TransactionRepo,
		container.ActionLogRepo,
		container.NameHistoryRepo,
		log,
	)

	container.SettingsService = settings.NewService(
		container.Store,
		container.SettingsRepo,
		container.ActionLogRepo,
		log,
	)

	container.UserService = users.NewService(
		container.Store,
		container.UserRepo,
		log,
	)

	container.DistributionService = distribution.NewService(
		container.Store,
		container.MoneyboxService,
		container.SettingsRepo,
		container.ActionLogRepo,
		log,
	)

	container.Mailer = mailer.New(cfg.SMTP, log)

	log.Debug().Msg("Services initialized")

	return nil
}
