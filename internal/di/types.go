/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application
 * dependencies. The Container is the single source of truth for all
 * repository and service instances and is passed to the server for
 * routing.
 */
package di

import (
	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/mailer"
	"github.com/akeil/stashd/internal/modules/distribution"
	"github.com/akeil/stashd/internal/modules/ledger"
	"github.com/akeil/stashd/internal/modules/moneybox"
	"github.com/akeil/stashd/internal/modules/settings"
	"github.com/akeil/stashd/internal/modules/users"
	"github.com/akeil/stashd/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Store: single SQLite database holding moneyboxes, ledgers, settings and users
 * - Repositories: data access layer, stateless over the shared store
 * - Services: business logic layer coordinating repositories inside transactions
 * - Mailer: SMTP transport for savings reports
 *
 * All dependencies are injected via constructor injection.
 */
type Container struct {
	// Store - the savings database (WAL mode, ledger profile)
	Store *database.DB

	// Repositories - data access layer
	MoneyboxRepo    *moneybox.Repository
	NameHistoryRepo *moneybox.NameHistoryRepository
	TransactionRepo *ledger.TransactionRepository
	ActionLogRepo   *ledger.ActionLogRepository
	SettingsRepo    *settings.Repository
	UserRepo        *users.Repository

	// Services - business logic layer
	MoneyboxService     *moneybox.Service
	LedgerService       *ledger.Service
	SettingsService     *settings.Service
	UserService         *users.Service
	DistributionService *distribution.Service

	// Mailer - savings report delivery (nil-safe: reports are skipped
	// while the SMTP configuration is incomplete)
	Mailer *mailer.Mailer
}

// JobInstances holds the scheduled jobs for registration with the
// scheduler and for manual triggering.
type JobInstances struct {
	AutomatedSavings *scheduler.AutomatedSavingsJob
	StoreMaintenance *scheduler.StoreMaintenanceJob
}
