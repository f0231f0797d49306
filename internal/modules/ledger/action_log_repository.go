package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/domain"
	"github.com/rs/zerolog"
)

// ActionLogRepository appends and reads the append-only action log.
type ActionLogRepository struct {
	log zerolog.Logger
}

// NewActionLogRepository creates a new action log repository.
func NewActionLogRepository(log zerolog.Logger) *ActionLogRepository {
	return &ActionLogRepository{
		log: log.With().Str("repo", "action_logs").Logger(),
	}
}

// Append writes one action log row. Details is marshalled to JSON; nil
// records an empty snapshot.
func (r *ActionLogRepository) Append(ctx context.Context, q database.Queryer, action domain.ActionType, at time.Time, details interface{}) (*ActionLog, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrValidation, action)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	detailsJSON := []byte("{}")
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal action details: %w", err)
		}
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO action_logs (action, action_at, details) VALUES (?, ?, ?)`,
		string(action), at.UnixNano(), string(detailsJSON),
	)
	if err != nil {
		return nil, database.TranslateError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return &ActionLog{
		ID:       id,
		Action:   action,
		ActionAt: at,
		Details:  detailsJSON,
	}, nil
}

// Latest retrieves the most recent row with the given action, or nil
// when none exists.
func (r *ActionLogRepository) Latest(ctx context.Context, q database.Queryer, action domain.ActionType) (*ActionLog, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, action, action_at, details FROM action_logs
		 WHERE action = ?
		 ORDER BY action_at DESC, id DESC
		 LIMIT 1`,
		string(action),
	)

	entry, err := scanActionLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest action log: %w", err)
	}
	return entry, nil
}

// List retrieves action log rows, newest first. A limit of 0 returns
// everything.
func (r *ActionLogRepository) List(ctx context.Context, q database.Queryer, limit int) ([]ActionLog, error) {
	query := `SELECT id, action, action_at, details FROM action_logs ORDER BY action_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list action logs: %w", err)
	}
	defer rows.Close()

	var entries []ActionLog
	for rows.Next() {
		entry, err := scanActionLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action log: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action logs: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActionLog(row rowScanner) (*ActionLog, error) {
	var entry ActionLog
	var action, details string
	var actionAt int64

	if err := row.Scan(&entry.ID, &action, &actionAt, &details); err != nil {
		return nil, err
	}

	entry.Action = domain.ActionType(action)
	entry.ActionAt = time.Unix(0, actionAt).UTC()
	entry.Details = json.RawMessage(details)
	return &entry, nil
}
