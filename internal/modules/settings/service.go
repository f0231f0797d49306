package settings

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/domain"
	"github.com/akeil/stashd/internal/modules/ledger"
)

// ActionRecorder appends action log rows inside the caller's
// transaction. Implemented by the ledger action log repository.
type ActionRecorder interface {
	Append(ctx context.Context, q database.Queryer, action domain.ActionType, at time.Time, details interface{}) (*ledger.ActionLog, error)
}

// Service reads and updates the application settings. Toggling the
// automated saving flag and changing the savings amount leave an
// action log trail, written in the same transaction as the settings
// row itself.
type Service struct {
	store    *database.DB
	settings *Repository
	actions  ActionRecorder
	log      zerolog.Logger
}

// NewService creates a new settings service.
func NewService(store *database.DB, settings *Repository, actions ActionRecorder, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		settings: settings,
		actions:  actions,
		log:      log.With().Str("service", "settings").Logger(),
	}
}

// Get retrieves the active settings row.
func (s *Service) Get(ctx context.Context) (*AppSettings, error) {
	return s.settings.GetActive(ctx, s.store)
}

// Update applies a sparse settings update. Changing
// is_automated_saving_active appends an ACTIVATED_AUTOMATED_SAVING or
// DEACTIVATED_AUTOMATED_SAVING action log row, changing savings_amount
// appends CHANGED_AUTOMATED_SAVINGS_AMOUNT. The email pair constraint
// is enforced by the store against the merged row.
func (s *Service) Update(ctx context.Context, p UpdateParams) (*AppSettings, error) {
	if p.SavingsAmount != nil && *p.SavingsAmount < 0 {
		return nil, fmt.Errorf("%w: savings_amount must be >= 0", domain.ErrValidation)
	}
	if p.OverflowMode != nil && !p.OverflowMode.Valid() {
		return nil, fmt.Errorf("%w: unknown overflow mode %q", domain.ErrValidation, *p.OverflowMode)
	}
	if p.AutomatedSavingTriggerDay != nil && !p.AutomatedSavingTriggerDay.Valid() {
		return nil, fmt.Errorf("%w: unknown trigger day %q", domain.ErrValidation, *p.AutomatedSavingTriggerDay)
	}
	if p.SetUserEmailAddress && p.UserEmailAddress != nil {
		trimmed := strings.TrimSpace(*p.UserEmailAddress)
		if trimmed == "" || !strings.Contains(trimmed, "@") {
			return nil, fmt.Errorf("%w: invalid email address", domain.ErrValidation)
		}
		p.UserEmailAddress = &trimmed
	}

	var updated *AppSettings
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		current, err := s.settings.GetActive(ctx, tx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := s.settings.Update(ctx, tx, current.ID, p, now); err != nil {
			return err
		}

		if p.IsAutomatedSavingActive != nil && *p.IsAutomatedSavingActive != current.IsAutomatedSavingActive {
			action := domain.ActionDeactivatedAutomatedSaving
			if *p.IsAutomatedSavingActive {
				action = domain.ActionActivatedAutomatedSaving
			}
			if _, err := s.actions.Append(ctx, tx, action, now, nil); err != nil {
				return err
			}
		}
		if p.SavingsAmount != nil && *p.SavingsAmount != current.SavingsAmount {
			details := map[string]int64{
				"old_savings_amount": current.SavingsAmount,
				"new_savings_amount": *p.SavingsAmount,
			}
			if _, err := s.actions.Append(ctx, tx, domain.ActionChangedAutomatedSavingsAmount, now, details); err != nil {
				return err
			}
		}

		updated, err = s.settings.GetActive(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Msg("Settings updated")
	return updated, nil
}
