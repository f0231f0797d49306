// Package ledger implements the immutable money trail: the
// transaction log, the action log and the historical counterparty
// name resolution used to enrich them.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/akeil/stashd/internal/domain"
)

// Transaction is one append-only row of the money trail. Amount is
// signed: positive for deposits, negative for withdrawals. Balance is
// the moneybox balance right after the movement.
type Transaction struct {
	ID                     int64                     `json:"id"`
	MoneyboxID             int64                     `json:"moneybox_id"`
	CounterpartyMoneyboxID *int64                    `json:"counterparty_moneybox_id"`
	Amount                 int64                     `json:"amount"`
	Balance                int64                     `json:"balance"`
	Type                   domain.TransactionType    `json:"transaction_type"`
	Trigger                domain.TransactionTrigger `json:"transaction_trigger"`
	Description            string                    `json:"description"`
	CreatedAt              time.Time                 `json:"created_at"`
}

// TransactionWithCounterparty enriches a transaction with the
// counterparty name resolved as of the row's own timestamp.
type TransactionWithCounterparty struct {
	Transaction
	CounterpartyMoneyboxName *string `json:"counterparty_moneybox_name"`
}

// TransactionParams describes one row to append. A zero At stamps the
// current time; callers writing several related rows pass one shared
// timestamp.
type TransactionParams struct {
	MoneyboxID             int64
	CounterpartyMoneyboxID *int64
	Amount                 int64
	Balance                int64
	Type                   domain.TransactionType
	Trigger                domain.TransactionTrigger
	Description            string
	At                     time.Time
}

// ActionLog is one append-only row of the action log. Details is a
// JSON snapshot of whatever state the action captured.
type ActionLog struct {
	ID       int64             `json:"id"`
	Action   domain.ActionType `json:"action"`
	ActionAt time.Time         `json:"action_at"`
	Details  json.RawMessage   `json:"details"`
}
