package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/domain"
	"github.com/akeil/stashd/internal/modules/distribution"
	"github.com/akeil/stashd/internal/modules/ledger"
	"github.com/akeil/stashd/internal/modules/settings"
)

// ReportSender delivers the savings report of an applied cycle.
type ReportSender interface {
	IsReady() bool
	SendReport(ctx context.Context, to string, report *distribution.CycleReport) error
}

// AutomatedSavingsJob wakes with the cron schedule and decides whether
// today is a distribution day. It runs the cycle at most once per
// calendar day in the configured location, guarded by the latest
// APPLIED_AUTOMATED_SAVING action log row.
type AutomatedSavingsJob struct {
	log          zerolog.Logger
	location     *time.Location
	settings     *settings.Service
	ledger       *ledger.Service
	distribution *distribution.Service
	mailer       ReportSender

	now func() time.Time
}

// AutomatedSavingsConfig holds the collaborators of the job.
type AutomatedSavingsConfig struct {
	Log          zerolog.Logger
	Location     *time.Location
	Settings     *settings.Service
	Ledger       *ledger.Service
	Distribution *distribution.Service
	Mailer       ReportSender
}

// NewAutomatedSavingsJob creates a new automated savings job.
func NewAutomatedSavingsJob(cfg AutomatedSavingsConfig) *AutomatedSavingsJob {
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	return &AutomatedSavingsJob{
		log:          cfg.Log.With().Str("job", "automated_savings").Logger(),
		location:     location,
		settings:     cfg.Settings,
		ledger:       cfg.Ledger,
		distribution: cfg.Distribution,
		mailer:       cfg.Mailer,
		now:          time.Now,
	}
}

// Name returns the job name
func (j *AutomatedSavingsJob) Name() string {
	return "automated_savings"
}

// Run executes one wake-up of the savings state machine: check the
// active flag, match the trigger day, check today's idempotence guard,
// then run the cycle and hand the report to the mailer.
func (j *AutomatedSavingsJob) Run() error {
	ctx := context.Background()
	today := j.now().In(j.location)

	cfg, err := j.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !cfg.IsAutomatedSavingActive {
		j.log.Debug().Msg("Automated saving is inactive, skipping")
		return nil
	}

	if !matchesTriggerDay(today, cfg.AutomatedSavingTriggerDay) {
		j.log.Debug().
			Str("trigger_day", string(cfg.AutomatedSavingTriggerDay)).
			Int("day", today.Day()).
			Msg("Today is not a trigger day")
		return nil
	}

	latest, err := j.ledger.LatestAction(ctx, domain.ActionAppliedAutomatedSaving)
	if err != nil {
		return err
	}
	if latest != nil && sameDay(latest.ActionAt.In(j.location), today) {
		j.log.Debug().Msg("Distribution already applied today")
		return nil
	}

	report, err := j.distribution.RunCycle(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Automated savings cycle failed")
		return err
	}
	j.log.Info().
		Str("cycle_id", report.CycleID).
		Int("allocations", len(report.Allocations)).
		Msg("Automated savings applied")

	if cfg.SendReportsViaEmail && cfg.UserEmailAddress != nil {
		j.sendReport(ctx, *cfg.UserEmailAddress, report)
	}
	return nil
}

// sendReport mails the cycle summary. Mail failures never fail the
// cycle, the money already moved.
func (j *AutomatedSavingsJob) sendReport(ctx context.Context, to string, report *distribution.CycleReport) {
	if j.mailer == nil || !j.mailer.IsReady() {
		j.log.Debug().Msg("Mailer not ready, skipping savings report")
		return
	}
	if err := j.mailer.SendReport(ctx, to, report); err != nil {
		j.log.Warn().Err(err).Str("to", to).Msg("Failed to send savings report")
		return
	}
	j.log.Info().Str("to", to).Msg("Savings report sent")
}

// matchesTriggerDay reports whether the given day is a distribution
// day: the 1st, the 15th or the last day of the month.
func matchesTriggerDay(t time.Time, day domain.TriggerDay) bool {
	switch day {
	case domain.TriggerDayFirst:
		return t.Day() == 1
	case domain.TriggerDayMiddle:
		return t.Day() == 15
	case domain.TriggerDayLast:
		return t.Day() == lastDayOfMonth(t)
	}
	return false
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
