package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/domain"
	"github.com/rs/zerolog"
)

const transactionColumns = `id, moneybox_id, counterparty_moneybox_id, amount, balance, transaction_type, transaction_trigger, description, created_at`

// TransactionRepository appends and reads the immutable transaction
// log. Rows are written inside the caller's transaction and never
// touched again.
type TransactionRepository struct {
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// Append writes one transaction row and returns the stored record.
func (r *TransactionRepository) Append(ctx context.Context, q database.Queryer, p TransactionParams) (*Transaction, error) {
	if !p.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", domain.ErrValidation, p.Type)
	}
	if !p.Trigger.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction trigger %q", domain.ErrValidation, p.Trigger)
	}

	at := p.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var counterparty interface{}
	if p.CounterpartyMoneyboxID != nil {
		counterparty = *p.CounterpartyMoneyboxID
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO transactions
		   (moneybox_id, counterparty_moneybox_id, amount, balance, transaction_type, transaction_trigger, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.MoneyboxID, counterparty, p.Amount, p.Balance,
		string(p.Type), string(p.Trigger), p.Description, at.UnixNano(),
	)
	if err != nil {
		return nil, database.TranslateError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return &Transaction{
		ID:                     id,
		MoneyboxID:             p.MoneyboxID,
		CounterpartyMoneyboxID: p.CounterpartyMoneyboxID,
		Amount:                 p.Amount,
		Balance:                p.Balance,
		Type:                   p.Type,
		Trigger:                p.Trigger,
		Description:            p.Description,
		CreatedAt:              at,
	}, nil
}

// ListForMoneybox retrieves all rows of one moneybox, newest first.
// Timestamp ties resolve by id so the list is the exact reversal of the
// write order.
func (r *TransactionRepository) ListForMoneybox(ctx context.Context, q database.Queryer, moneyboxID int64) ([]Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE moneybox_id = ?
		 ORDER BY created_at DESC, id DESC`,
		moneyboxID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// SumForMoneybox totals the signed amounts of one moneybox. Equals the
// live balance on a consistent trail.
func (r *TransactionRepository) SumForMoneybox(ctx context.Context, q database.Queryer, moneyboxID int64) (int64, error) {
	var sum int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE moneybox_id = ?`,
		moneyboxID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}

func scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	var transactions []Transaction
	for rows.Next() {
		var t Transaction
		var counterparty sql.NullInt64
		var txType, txTrigger string
		var createdAt int64

		err := rows.Scan(
			&t.ID,
			&t.MoneyboxID,
			&counterparty,
			&t.Amount,
			&t.Balance,
			&txType,
			&txTrigger,
			&t.Description,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if counterparty.Valid {
			v := counterparty.Int64
			t.CounterpartyMoneyboxID = &v
		}
		t.Type = domain.TransactionType(txType)
		t.Trigger = domain.TransactionTrigger(txTrigger)
		t.CreatedAt = time.Unix(0, createdAt).UTC()

		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
