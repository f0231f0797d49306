// Package di provides dependency injection for scheduled jobs.
package di

import (
	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/config"
	"github.com/akeil/stashd/internal/scheduler"
)

// RegisterJobs constructs the scheduled job instances. The automated
// savings job evaluates trigger days in the configured timezone; the
// store maintenance job keeps the WAL in check.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		AutomatedSavings: scheduler.NewAutomatedSavingsJob(scheduler.AutomatedSavingsConfig{
			Log:          log,
			Location:     cfg.Location(),
			Settings:     container.SettingsService,
			Ledger:       container.LedgerService,
			Distribution: container.DistributionService,
			Mailer:       container.Mailer,
		}),
		StoreMaintenance: scheduler.NewStoreMaintenanceJob(container.Store, log),
	}

	log.Debug().Msg("Jobs registered")

	return jobs, nil
}
