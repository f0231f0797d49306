package moneybox

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/domain"
	"github.com/rs/zerolog"
)

const moneyboxColumns = `id, name, balance, savings_amount, savings_target, priority, description, is_active, created_at, modified_at`

// Repository handles moneybox persistence. Every method takes a
// database.Queryer so calls compose into a service-owned transaction.
type Repository struct {
	log zerolog.Logger
}

// NewRepository creates a new moneybox repository.
func NewRepository(log zerolog.Logger) *Repository {
	return &Repository{
		log: log.With().Str("repo", "moneyboxes").Logger(),
	}
}

// Create inserts a new active moneybox with the given priority and
// returns the stored record.
func (r *Repository) Create(ctx context.Context, q database.Queryer, p CreateParams, priority int64) (*Moneybox, error) {
	now := time.Now().UTC()

	result, err := q.ExecContext(ctx,
		`INSERT INTO moneyboxes
		   (name, balance, savings_amount, savings_target, priority, description, is_active, created_at, modified_at)
		 VALUES (?, 0, ?, ?, ?, ?, 1, ?, ?)`,
		p.Name, p.SavingsAmount, nullableInt64(p.SavingsTarget), priority, p.Description,
		now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, database.TranslateError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	prio := priority
	return &Moneybox{
		ID:            id,
		Name:          p.Name,
		Balance:       0,
		SavingsAmount: p.SavingsAmount,
		SavingsTarget: p.SavingsTarget,
		Priority:      &prio,
		Description:   p.Description,
		IsActive:      true,
		CreatedAt:     now,
		ModifiedAt:    now,
	}, nil
}

// GetByID retrieves a moneybox. With activeOnly, soft-deleted rows
// report ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, q database.Queryer, id int64, activeOnly bool) (*Moneybox, error) {
	query := `SELECT ` + moneyboxColumns + ` FROM moneyboxes WHERE id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}

	box, err := scanMoneybox(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: moneybox %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get moneybox %d: %w", id, err)
	}
	return box, nil
}

// GetOverflow retrieves the overflow moneybox. Its absence is a
// structural invariant violation.
func (r *Repository) GetOverflow(ctx context.Context, q database.Queryer) (*Moneybox, error) {
	query := `SELECT ` + moneyboxColumns + ` FROM moneyboxes WHERE priority = ? AND is_active = 1`

	box, err := scanMoneybox(q.QueryRowContext(ctx, query, domain.OverflowPriority))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: overflow moneybox missing", domain.ErrInconsistentDatabase)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get overflow moneybox: %w", err)
	}
	return box, nil
}

// ListActive retrieves all active moneyboxes ascending by priority,
// overflow first.
func (r *Repository) ListActive(ctx context.Context, q database.Queryer) ([]Moneybox, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+moneyboxColumns+` FROM moneyboxes WHERE is_active = 1 ORDER BY priority ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list moneyboxes: %w", err)
	}
	defer rows.Close()

	return scanMoneyboxes(rows)
}

// ListPrioritized retrieves active moneyboxes with priority >= 1,
// ascending. The overflow moneybox and rows with a cleared priority
// are excluded.
func (r *Repository) ListPrioritized(ctx context.Context, q database.Queryer) ([]Moneybox, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+moneyboxColumns+` FROM moneyboxes WHERE is_active = 1 AND priority >= 1 ORDER BY priority ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prioritized moneyboxes: %w", err)
	}
	defer rows.Close()

	return scanMoneyboxes(rows)
}

// CountActiveNonOverflow counts active moneyboxes other than the
// overflow moneybox, including any with a cleared priority. Compared
// against the prioritized list to detect corruption.
func (r *Repository) CountActiveNonOverflow(ctx context.Context, q database.Queryer) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM moneyboxes WHERE is_active = 1 AND (priority IS NULL OR priority >= 1)`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count moneyboxes: %w", err)
	}
	return count, nil
}

// NameExists reports whether an active moneybox other than excludeID
// already uses the name.
func (r *Repository) NameExists(ctx context.Context, q database.Queryer, name string, excludeID int64) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM moneyboxes WHERE name = ? AND is_active = 1 AND id != ?`,
		name, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check name existence: %w", err)
	}
	return count > 0, nil
}

// NextPriority returns the next free priority among active moneyboxes.
func (r *Repository) NextPriority(ctx context.Context, q database.Queryer) (int64, error) {
	var next int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(priority), 0) + 1 FROM moneyboxes WHERE is_active = 1`,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next priority: %w", err)
	}
	return next, nil
}

// Update applies a sparse field set. The caller validates values and
// overflow protection; this only builds the statement.
func (r *Repository) Update(ctx context.Context, q database.Queryer, id int64, p UpdateParams, now time.Time) error {
	sets := []string{"modified_at = ?"}
	args := []interface{}{now.UnixNano()}

	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.SavingsAmount != nil {
		sets = append(sets, "savings_amount = ?")
		args = append(args, *p.SavingsAmount)
	}
	if p.SetSavingsTarget {
		sets = append(sets, "savings_target = ?")
		args = append(args, nullableInt64(p.SavingsTarget))
	}

	args = append(args, id)
	result, err := q.ExecContext(ctx,
		`UPDATE moneyboxes SET `+strings.Join(sets, ", ")+` WHERE id = ? AND is_active = 1`,
		args...,
	)
	if err != nil {
		return database.TranslateError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: moneybox %d", domain.ErrNotFound, id)
	}
	return nil
}

// UpdateBalance sets the balance of an active moneybox.
func (r *Repository) UpdateBalance(ctx context.Context, q database.Queryer, id, balance int64, now time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE moneyboxes SET balance = ?, modified_at = ? WHERE id = ? AND is_active = 1`,
		balance, now.UnixNano(), id,
	)
	if err != nil {
		return database.TranslateError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: moneybox %d", domain.ErrNotFound, id)
	}
	return nil
}

// Deactivate soft-deletes a moneybox and clears its priority.
func (r *Repository) Deactivate(ctx context.Context, q database.Queryer, id int64, now time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE moneyboxes SET is_active = 0, priority = NULL, modified_at = ? WHERE id = ? AND is_active = 1`,
		now.UnixNano(), id,
	)
	if err != nil {
		return database.TranslateError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: moneybox %d", domain.ErrNotFound, id)
	}
	return nil
}

// ClearPriorities nulls the priorities of the given moneyboxes. First
// phase of a reorder: with priorities cleared, the partial unique
// index cannot collide while new values are assigned.
func (r *Repository) ClearPriorities(ctx context.Context, q database.Queryer, ids []int64, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, now.UnixNano())
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := q.ExecContext(ctx,
		`UPDATE moneyboxes SET priority = NULL, modified_at = ? WHERE id IN (`+placeholders+`) AND is_active = 1`,
		args...,
	)
	if err != nil {
		return database.TranslateError(err)
	}
	return nil
}

// SetPriority assigns a priority to an active moneybox. Second phase
// of a reorder.
func (r *Repository) SetPriority(ctx context.Context, q database.Queryer, id, priority int64, now time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE moneyboxes SET priority = ?, modified_at = ? WHERE id = ? AND is_active = 1`,
		priority, now.UnixNano(), id,
	)
	if err != nil {
		return database.TranslateError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: moneybox %d", domain.ErrNotFound, id)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMoneybox(row rowScanner) (*Moneybox, error) {
	var m Moneybox
	var savingsTarget sql.NullInt64
	var priority sql.NullInt64
	var isActive int64
	var createdAt, modifiedAt int64

	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Balance,
		&m.SavingsAmount,
		&savingsTarget,
		&priority,
		&m.Description,
		&isActive,
		&createdAt,
		&modifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if savingsTarget.Valid {
		v := savingsTarget.Int64
		m.SavingsTarget = &v
	}
	if priority.Valid {
		v := priority.Int64
		m.Priority = &v
	}
	m.IsActive = isActive != 0
	m.CreatedAt = time.Unix(0, createdAt).UTC()
	m.ModifiedAt = time.Unix(0, modifiedAt).UTC()

	return &m, nil
}

func scanMoneyboxes(rows *sql.Rows) ([]Moneybox, error) {
	var boxes []Moneybox
	for rows.Next() {
		box, err := scanMoneybox(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan moneybox: %w", err)
		}
		boxes = append(boxes, *box)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating moneyboxes: %w", err)
	}
	return boxes, nil
}

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
