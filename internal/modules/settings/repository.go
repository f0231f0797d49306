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
)

const settingsColumns = `id, is_automated_saving_active, savings_amount,
	overflow_moneybox_automated_savings_mode, send_reports_via_email,
	user_email_address, automated_saving_trigger_day, is_active,
	created_at, modified_at`

// Repository handles app_settings database operations. Exactly one
// active row is expected; its absence signals a corrupt store.
type Repository struct {
	log zerolog.Logger
}

// NewRepository creates a new settings repository.
func NewRepository(log zerolog.Logger) *Repository {
	return &Repository{
		log: log.With().Str("repository", "settings").Logger(),
	}
}

// GetActive retrieves the single active settings row.
func (r *Repository) GetActive(ctx context.Context, q database.Queryer) (*AppSettings, error) {
	row := q.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM app_settings WHERE is_active = 1 ORDER BY id LIMIT 1
	`, settingsColumns))

	s, err := scanSettings(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no active settings row", domain.ErrInconsistentDatabase)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

// Update writes the supplied fields of the settings row. Only fields
// set in p are touched.
func (r *Repository) Update(ctx context.Context, q database.Queryer, id int64, p UpdateParams, now time.Time) error {
	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	if p.IsAutomatedSavingActive != nil {
		sets = append(sets, "is_automated_saving_active = ?")
		args = append(args, boolToInt(*p.IsAutomatedSavingActive))
	}
	if p.SavingsAmount != nil {
		sets = append(sets, "savings_amount = ?")
		args = append(args, *p.SavingsAmount)
	}
	if p.OverflowMode != nil {
		sets = append(sets, "overflow_moneybox_automated_savings_mode = ?")
		args = append(args, string(*p.OverflowMode))
	}
	if p.SendReportsViaEmail != nil {
		sets = append(sets, "send_reports_via_email = ?")
		args = append(args, boolToInt(*p.SendReportsViaEmail))
	}
	if p.SetUserEmailAddress {
		sets = append(sets, "user_email_address = ?")
		if p.UserEmailAddress != nil {
			args = append(args, *p.UserEmailAddress)
		} else {
			args = append(args, nil)
		}
	}
	if p.AutomatedSavingTriggerDay != nil {
		sets = append(sets, "automated_saving_trigger_day = ?")
		args = append(args, string(*p.AutomatedSavingTriggerDay))
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "modified_at = ?")
	args = append(args, now.UnixNano())
	args = append(args, id)

	res, err := q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE app_settings SET %s WHERE id = ? AND is_active = 1
	`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return database.TranslateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: settings row %d", domain.ErrNotFound, id)
	}
	return nil
}

func scanSettings(row *sql.Row) (*AppSettings, error) {
	var (
		s          AppSettings
		active     int64
		sendEmail  int64
		isActive   int64
		email      sql.NullString
		createdAt  int64
		modifiedAt int64
	)
	err := row.Scan(&s.ID, &active, &s.SavingsAmount, &s.OverflowMode,
		&sendEmail, &email, &s.AutomatedSavingTriggerDay, &isActive,
		&createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	s.IsAutomatedSavingActive = active != 0
	s.SendReportsViaEmail = sendEmail != 0
	s.IsActive = isActive != 0
	if email.Valid {
		s.UserEmailAddress = &email.String
	}
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	s.ModifiedAt = time.Unix(0, modifiedAt).UTC()
	return &s, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
