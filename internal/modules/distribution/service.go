package distribution

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/domain"
	"github.com/akeil/stashd/internal/modules/ledger"
	"github.com/akeil/stashd/internal/modules/moneybox"
	"github.com/akeil/stashd/internal/modules/settings"
)

// ActionRecorder appends action log rows inside the caller's
// transaction. Implemented by the ledger action log repository.
type ActionRecorder interface {
	Append(ctx context.Context, q database.Queryer, action domain.ActionType, at time.Time, details interface{}) (*ledger.ActionLog, error)
}

// Service runs distribution cycles: snapshot, plan, apply, record. All
// of it commits in a single transaction so a cycle either happens
// completely or not at all.
type Service struct {
	store    *database.DB
	boxes    *moneybox.Service
	settings *settings.Repository
	actions  ActionRecorder
	log      zerolog.Logger
}

// NewService creates a new distribution service.
func NewService(store *database.DB, boxes *moneybox.Service, settings *settings.Repository, actions ActionRecorder, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		boxes:    boxes,
		settings: settings,
		actions:  actions,
		log:      log.With().Str("service", "distribution").Logger(),
	}
}

// RunCycle executes one distribution cycle against the current store
// state and appends the APPLIED_AUTOMATED_SAVING action log row. The
// row is written even when nothing moves, it is what makes the
// scheduler idempotent per calendar day. Any failure rolls the whole
// cycle back and comes out wrapped in AutomatedSavingsError.
func (s *Service) RunCycle(ctx context.Context) (*CycleReport, error) {
	var report *CycleReport
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		cfg, err := s.settings.GetActive(ctx, tx)
		if err != nil {
			return &domain.AutomatedSavingsError{Phase: "snapshot", Err: err}
		}

		boxes, err := s.boxes.ListTx(ctx, tx)
		if err != nil {
			return &domain.AutomatedSavingsError{Phase: "snapshot", Err: err}
		}

		snapshot := toSnapshot(boxes)
		plan, err := BuildPlan(cfg.OverflowMode, cfg.SavingsAmount, snapshot)
		if err != nil {
			return &domain.AutomatedSavingsError{Phase: "plan", Err: err}
		}

		if err := s.applyPlan(ctx, tx, plan); err != nil {
			return &domain.AutomatedSavingsError{Phase: "apply", Err: err}
		}

		now := time.Now().UTC()
		report = buildReport(plan, snapshot, now)
		details := map[string]interface{}{
			"cycle_id":               report.CycleID,
			"mode":                   cfg.OverflowMode,
			"savings_amount":         cfg.SavingsAmount,
			"effective_budget":       plan.EffectiveBudget,
			"trigger_day":            cfg.AutomatedSavingTriggerDay,
			"send_reports_via_email": cfg.SendReportsViaEmail,
			"allocations":            report.Allocations,
		}
		if _, err := s.actions.Append(ctx, tx, domain.ActionAppliedAutomatedSaving, now, details); err != nil {
			return &domain.AutomatedSavingsError{Phase: "record", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("cycle_id", report.CycleID).
		Str("mode", string(report.Mode)).
		Int64("effective_budget", report.EffectiveBudget).
		Int("allocations", len(report.Allocations)).
		Msg("Distribution cycle applied")
	return report, nil
}

// applyPlan writes every planned step through the moneybox service so
// each one lands in the transaction log with its post-movement
// balance.
func (s *Service) applyPlan(ctx context.Context, tx *sql.Tx, plan *Plan) error {
	for _, phase := range plan.Phases {
		for _, step := range phase.Steps {
			var err error
			if step.Amount > 0 {
				_, err = s.boxes.DepositTx(ctx, tx, step.MoneyboxID, step.Amount, step.Description,
					domain.TransactionTypeDistribution, domain.TriggerAutomatically)
			} else {
				_, err = s.boxes.WithdrawTx(ctx, tx, step.MoneyboxID, -step.Amount, step.Description,
					domain.TransactionTypeDistribution, domain.TriggerAutomatically)
			}
			if err != nil {
				return fmt.Errorf("phase %s, moneybox %d: %w", phase.Name, step.MoneyboxID, err)
			}
		}
	}
	return nil
}

// ForecastTargets predicts the months-to-target for every box with a
// positive savings target, simulated against a consistent snapshot of
// the current state.
func (s *Service) ForecastTargets(ctx context.Context) ([]TargetForecast, error) {
	var (
		cfg   *settings.AppSettings
		boxes []moneybox.Moneybox
	)
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		cfg, err = s.settings.GetActive(ctx, tx)
		if err != nil {
			return err
		}
		boxes, err = s.boxes.ListTx(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	snapshot := toSnapshot(boxes)
	if !cfg.IsAutomatedSavingActive {
		return Forecast(cfg.OverflowMode, 0, snapshot)
	}
	return Forecast(cfg.OverflowMode, cfg.SavingsAmount, snapshot)
}

// toSnapshot converts moneybox records to engine boxes, keeping the
// priority order of the input.
func toSnapshot(boxes []moneybox.Moneybox) []Box {
	snapshot := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		priority := int64(domain.OverflowPriority)
		if b.Priority != nil {
			priority = *b.Priority
		}
		snapshot = append(snapshot, Box{
			ID:            b.ID,
			Name:          b.Name,
			Balance:       b.Balance,
			SavingsAmount: b.SavingsAmount,
			SavingsTarget: b.SavingsTarget,
			Priority:      priority,
		})
	}
	return snapshot
}

// buildReport condenses a plan into per-box net amounts ordered by
// moneybox id.
func buildReport(plan *Plan, snapshot []Box, at time.Time) *CycleReport {
	names := make(map[int64]string, len(snapshot))
	for _, b := range snapshot {
		names[b.ID] = b.Name
	}

	net := make(map[int64]int64)
	for _, phase := range plan.Phases {
		for _, step := range phase.Steps {
			net[step.MoneyboxID] += step.Amount
		}
	}

	ids := make([]int64, 0, len(net))
	for id := range net {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	allocations := make([]Allocation, 0, len(ids))
	for _, id := range ids {
		if net[id] == 0 {
			continue
		}
		allocations = append(allocations, Allocation{
			MoneyboxID: id,
			Name:       names[id],
			Amount:     net[id],
		})
	}

	return &CycleReport{
		CycleID:         uuid.New().String(),
		Mode:            plan.Mode,
		SavingsAmount:   plan.Budget,
		EffectiveBudget: plan.EffectiveBudget,
		AppliedAt:       at,
		Allocations:     allocations,
	}
}
