package moneybox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/domain"
	"github.com/rs/zerolog"
)

// NameHistoryEntry is one row of the append-only rename log.
type NameHistoryEntry struct {
	ID         int64     `json:"id"`
	MoneyboxID int64     `json:"moneybox_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// NameHistoryRepository records every name a moneybox ever had, so old
// transaction rows can resolve counterparty names as of their own
// timestamps. Rows are appended on creation and on every rename,
// never mutated.
type NameHistoryRepository struct {
	log zerolog.Logger
}

// NewNameHistoryRepository creates a new name history repository.
func NewNameHistoryRepository(log zerolog.Logger) *NameHistoryRepository {
	return &NameHistoryRepository{
		log: log.With().Str("repo", "moneybox_name_histories").Logger(),
	}
}

// Append records a name for the moneybox as of the given time.
func (r *NameHistoryRepository) Append(ctx context.Context, q database.Queryer, moneyboxID int64, name string, at time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO moneybox_name_histories (moneybox_id, name, created_at) VALUES (?, ?, ?)`,
		moneyboxID, name, at.UnixNano(),
	)
	if err != nil {
		return database.TranslateError(err)
	}
	return nil
}

// NameAt resolves the name the moneybox had at the given time: the
// history row with the greatest created_at <= at, ties broken by
// insertion order. Works for soft-deleted moneyboxes. Reports
// ErrNotFound when at precedes the moneybox's first recorded name.
func (r *NameHistoryRepository) NameAt(ctx context.Context, q database.Queryer, moneyboxID int64, at time.Time) (string, error) {
	var name string
	err := q.QueryRowContext(ctx,
		`SELECT name FROM moneybox_name_histories
		 WHERE moneybox_id = ? AND created_at <= ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		moneyboxID, at.UnixNano(),
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: no name recorded for moneybox %d at %s", domain.ErrNotFound, moneyboxID, at.UTC().Format(time.RFC3339Nano))
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve historical name: %w", err)
	}
	return name, nil
}

// ResolveAt returns the display name of the moneybox for an event at
// the given time. The overflow moneybox resolves to its current name,
// every other moneybox to the name it had at that time. Satisfies the
// ledger's NameResolver.
func (r *NameHistoryRepository) ResolveAt(ctx context.Context, q database.Queryer, moneyboxID int64, at time.Time) (string, error) {
	var priority sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT priority FROM moneyboxes WHERE id = ?`, moneyboxID).Scan(&priority)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: moneybox %d", domain.ErrNotFound, moneyboxID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up moneybox %d: %w", moneyboxID, err)
	}

	if priority.Valid && priority.Int64 == domain.OverflowPriority {
		return r.CurrentName(ctx, q, moneyboxID)
	}
	return r.NameAt(ctx, q, moneyboxID, at)
}

// CurrentName resolves the latest recorded name of the moneybox.
func (r *NameHistoryRepository) CurrentName(ctx context.Context, q database.Queryer, moneyboxID int64) (string, error) {
	var name string
	err := q.QueryRowContext(ctx,
		`SELECT name FROM moneybox_name_histories
		 WHERE moneybox_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		moneyboxID,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: no name recorded for moneybox %d", domain.ErrNotFound, moneyboxID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve current name: %w", err)
	}
	return name, nil
}

// HistoryFor lists the full rename history of a moneybox, oldest
// first.
func (r *NameHistoryRepository) HistoryFor(ctx context.Context, q database.Queryer, moneyboxID int64) ([]NameHistoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, moneybox_id, name, created_at FROM moneybox_name_histories
		 WHERE moneybox_id = ?
		 ORDER BY created_at ASC, id ASC`,
		moneyboxID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list name history: %w", err)
	}
	defer rows.Close()

	var entries []NameHistoryEntry
	for rows.Next() {
		var e NameHistoryEntry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.MoneyboxID, &e.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan name history entry: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating name history: %w", err)
	}
	return entries, nil
}
