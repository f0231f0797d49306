package moneybox

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/domain"
	"github.com/akeil/stashd/internal/modules/ledger"
	"github.com/rs/zerolog"
)

// TransactionWriter appends transaction rows inside the caller's
// transaction. Implemented by the ledger transaction repository.
type TransactionWriter interface {
	Append(ctx context.Context, q database.Queryer, p ledger.TransactionParams) (*ledger.Transaction, error)
}

// Service implements the moneybox operations and enforces the entity
// invariants: unique active names, the dense priority sequence, the
// protected overflow moneybox and non-negative balances. Every
// movement appends its transaction rows in the same database
// transaction that changes the balances.
type Service struct {
	store        *database.DB
	boxes        *Repository
	names        *NameHistoryRepository
	transactions TransactionWriter
	log          zerolog.Logger
}

// NewService creates a new moneybox service.
func NewService(store *database.DB, boxes *Repository, names *NameHistoryRepository, transactions TransactionWriter, log zerolog.Logger) *Service {
	return &Service{
		store:        store,
		boxes:        boxes,
		names:        names,
		transactions: transactions,
		log:          log.With().Str("service", "moneybox").Logger(),
	}
}

// Create adds a new moneybox at the end of the priority sequence and
// records its name in the history.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Moneybox, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", domain.ErrValidation)
	}
	if p.SavingsAmount < 0 {
		return nil, fmt.Errorf("%w: savings_amount must be >= 0", domain.ErrValidation)
	}
	if p.SavingsTarget != nil && *p.SavingsTarget < 0 {
		return nil, fmt.Errorf("%w: savings_target must be >= 0", domain.ErrValidation)
	}

	var created *Moneybox
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		exists, err := s.boxes.NameExists(ctx, tx, p.Name, 0)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %q", domain.ErrNameConflict, p.Name)
		}

		priority, err := s.boxes.NextPriority(ctx, tx)
		if err != nil {
			return err
		}

		box, err := s.boxes.Create(ctx, tx, p, priority)
		if err != nil {
			return err
		}

		if err := s.names.Append(ctx, tx, box.ID, box.Name, box.CreatedAt); err != nil {
			return err
		}

		created = box
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("id", created.ID).Str("name", created.Name).Int64("priority", *created.Priority).Msg("Moneybox created")
	return created, nil
}

// Get retrieves one active moneybox.
func (s *Service) Get(ctx context.Context, id int64) (*Moneybox, error) {
	return s.boxes.GetByID(ctx, s.store, id, true)
}

// List retrieves all active moneyboxes ascending by priority, the
// overflow moneybox first.
func (s *Service) List(ctx context.Context) ([]Moneybox, error) {
	return s.boxes.ListActive(ctx, s.store)
}

// Update modifies the supplied fields of a moneybox. The overflow
// moneybox is not updatable. A name change appends a history row.
func (s *Service) Update(ctx context.Context, id int64, p UpdateParams) (*Moneybox, error) {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domain.ErrValidation)
		}
		p.Name = &trimmed
	}
	if p.SavingsAmount != nil && *p.SavingsAmount < 0 {
		return nil, fmt.Errorf("%w: savings_amount must be >= 0", domain.ErrValidation)
	}
	if p.SetSavingsTarget && p.SavingsTarget != nil && *p.SavingsTarget < 0 {
		return nil, fmt.Errorf("%w: savings_target must be >= 0", domain.ErrValidation)
	}

	var updated *Moneybox
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		box, err := s.boxes.GetByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if box.IsOverflow() {
			return fmt.Errorf("%w: moneybox %d", domain.ErrOverflowNotModifiable, id)
		}

		nameChanged := p.Name != nil && *p.Name != box.Name
		if nameChanged {
			exists, err := s.boxes.NameExists(ctx, tx, *p.Name, id)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: %q", domain.ErrNameConflict, *p.Name)
			}
		}

		if p.Name == nil && p.Description == nil && p.SavingsAmount == nil && !p.SetSavingsTarget {
			updated = box
			return nil
		}

		now := time.Now().UTC()
		if err := s.boxes.Update(ctx, tx, id, p, now); err != nil {
			return err
		}
		if nameChanged {
			if err := s.names.Append(ctx, tx, id, *p.Name, now); err != nil {
				return err
			}
		}

		updated, err = s.boxes.GetByID(ctx, tx, id, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes an empty moneybox and re-packs the remaining
// priorities to 1..N preserving their relative order.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		box, err := s.boxes.GetByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if box.IsOverflow() {
			return fmt.Errorf("%w: moneybox %d", domain.ErrOverflowNotDeletable, id)
		}
		if box.Balance != 0 {
			return fmt.Errorf("%w: moneybox %d holds %d", domain.ErrHasBalance, id, box.Balance)
		}

		now := time.Now().UTC()
		if err := s.boxes.Deactivate(ctx, tx, id, now); err != nil {
			return err
		}

		return s.repackPriorities(ctx, tx, now)
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("id", id).Msg("Moneybox deleted")
	return nil
}

// repackPriorities reassigns 1..N to the active non-overflow
// moneyboxes preserving their current order. Runs inside the caller's
// transaction using the two-phase clear-then-assign pattern.
func (s *Service) repackPriorities(ctx context.Context, tx *sql.Tx, now time.Time) error {
	remaining, err := s.boxes.ListPrioritized(ctx, tx)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(remaining))
	for _, box := range remaining {
		ids = append(ids, box.ID)
	}
	if err := s.boxes.ClearPriorities(ctx, tx, ids, now); err != nil {
		return err
	}
	for i, box := range remaining {
		if err := s.boxes.SetPriority(ctx, tx, box.ID, int64(i+1), now); err != nil {
			return err
		}
	}
	return nil
}

// Deposit adds funds to a moneybox in its own transaction.
func (s *Service) Deposit(ctx context.Context, id, amount int64, description string, txType domain.TransactionType, trigger domain.TransactionTrigger) (*Moneybox, error) {
	var box *Moneybox
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		box, err = s.DepositTx(ctx, tx, id, amount, description, txType, trigger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return box, nil
}

// DepositTx adds funds to a moneybox inside the caller's transaction
// and appends the matching transaction row.
func (s *Service) DepositTx(ctx context.Context, q database.Queryer, id, amount int64, description string, txType domain.TransactionType, trigger domain.TransactionTrigger) (*Moneybox, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrNonPositiveAmount, amount)
	}

	box, err := s.boxes.GetByID(ctx, q, id, true)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newBalance := box.Balance + amount
	if err := s.boxes.UpdateBalance(ctx, q, id, newBalance, now); err != nil {
		return nil, err
	}

	_, err = s.transactions.Append(ctx, q, ledger.TransactionParams{
		MoneyboxID:  id,
		Amount:      amount,
		Balance:     newBalance,
		Type:        txType,
		Trigger:     trigger,
		Description: description,
		At:          now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Int64("id", id).Int64("amount", amount).Int64("balance", newBalance).Msg("Deposit applied")
	box.Balance = newBalance
	box.ModifiedAt = now
	return box, nil
}

// Withdraw removes funds from a moneybox in its own transaction.
func (s *Service) Withdraw(ctx context.Context, id, amount int64, description string, txType domain.TransactionType, trigger domain.TransactionTrigger) (*Moneybox, error) {
	var box *Moneybox
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		box, err = s.WithdrawTx(ctx, tx, id, amount, description, txType, trigger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return box, nil
}

// WithdrawTx removes funds from a moneybox inside the caller's
// transaction and appends the matching transaction row.
func (s *Service) WithdrawTx(ctx context.Context, q database.Queryer, id, amount int64, description string, txType domain.TransactionType, trigger domain.TransactionTrigger) (*Moneybox, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrNonPositiveAmount, amount)
	}

	box, err := s.boxes.GetByID(ctx, q, id, true)
	if err != nil {
		return nil, err
	}
	if box.Balance-amount < 0 {
		return nil, fmt.Errorf("%w: moneybox %d holds %d, cannot withdraw %d", domain.ErrBalanceNegative, id, box.Balance, amount)
	}

	now := time.Now().UTC()
	newBalance := box.Balance - amount
	if err := s.boxes.UpdateBalance(ctx, q, id, newBalance, now); err != nil {
		return nil, err
	}

	_, err = s.transactions.Append(ctx, q, ledger.TransactionParams{
		MoneyboxID:  id,
		Amount:      -amount,
		Balance:     newBalance,
		Type:        txType,
		Trigger:     trigger,
		Description: description,
		At:          now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Int64("id", id).Int64("amount", amount).Int64("balance", newBalance).Msg("Withdrawal applied")
	box.Balance = newBalance
	box.ModifiedAt = now
	return box, nil
}

// Transfer moves funds between two moneyboxes atomically.
func (s *Service) Transfer(ctx context.Context, fromID, toID, amount int64, description string, txType domain.TransactionType, trigger domain.TransactionTrigger) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		return s.TransferTx(ctx, tx, fromID, toID, amount, description, txType, trigger)
	})
}

// TransferTx moves funds between two moneyboxes inside the caller's
// transaction. Two transaction rows are appended with one shared
// timestamp, each referencing the other moneybox as counterparty.
func (s *Service) TransferTx(ctx context.Context, q database.Queryer, fromID, toID, amount int64, description string, txType domain.TransactionType, trigger domain.TransactionTrigger) error {
	if fromID == toID {
		return fmt.Errorf("%w: moneybox %d", domain.ErrTransferEqualMoneybox, fromID)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", domain.ErrNonPositiveAmount, amount)
	}

	from, err := s.boxes.GetByID(ctx, q, fromID, true)
	if err != nil {
		return err
	}
	to, err := s.boxes.GetByID(ctx, q, toID, true)
	if err != nil {
		return err
	}
	if from.Balance-amount < 0 {
		return fmt.Errorf("%w: moneybox %d holds %d, cannot transfer %d", domain.ErrBalanceNegative, fromID, from.Balance, amount)
	}

	now := time.Now().UTC()
	newFrom := from.Balance - amount
	newTo := to.Balance + amount

	if err := s.boxes.UpdateBalance(ctx, q, fromID, newFrom, now); err != nil {
		return err
	}
	if err := s.boxes.UpdateBalance(ctx, q, toID, newTo, now); err != nil {
		return err
	}

	_, err = s.transactions.Append(ctx, q, ledger.TransactionParams{
		MoneyboxID:             fromID,
		CounterpartyMoneyboxID: &toID,
		Amount:                 -amount,
		Balance:                newFrom,
		Type:                   txType,
		Trigger:                trigger,
		Description:            description,
		At:                     now,
	})
	if err != nil {
		return err
	}
	_, err = s.transactions.Append(ctx, q, ledger.TransactionParams{
		MoneyboxID:             toID,
		CounterpartyMoneyboxID: &fromID,
		Amount:                 amount,
		Balance:                newTo,
		Type:                   txType,
		Trigger:                trigger,
		Description:            description,
		At:                     now,
	})
	if err != nil {
		return err
	}

	s.log.Debug().Int64("from", fromID).Int64("to", toID).Int64("amount", amount).Msg("Transfer applied")
	return nil
}

// ListTx retrieves all active moneyboxes inside the caller's
// transaction, ascending by priority with the overflow moneybox first.
func (s *Service) ListTx(ctx context.Context, q database.Queryer) ([]Moneybox, error) {
	return s.boxes.ListActive(ctx, q)
}

// PriorityList retrieves the active non-overflow moneyboxes ascending
// by priority. An active non-overflow moneybox without a priority
// signals corruption.
func (s *Service) PriorityList(ctx context.Context) ([]PriorityEntry, error) {
	var entries []PriorityEntry
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		boxes, err := s.boxes.ListPrioritized(ctx, tx)
		if err != nil {
			return err
		}
		count, err := s.boxes.CountActiveNonOverflow(ctx, tx)
		if err != nil {
			return err
		}
		if count != len(boxes) {
			return fmt.Errorf("%w: %d active moneyboxes hold no priority", domain.ErrInconsistentDatabase, count-len(boxes))
		}

		entries = make([]PriorityEntry, 0, len(boxes))
		for _, box := range boxes {
			entries = append(entries, PriorityEntry{
				MoneyboxID: box.ID,
				Name:       box.Name,
				Priority:   *box.Priority,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ReorderPriorities assigns new priorities to the active non-overflow
// moneyboxes. The submitted list must cover exactly the active
// non-overflow set with priorities forming 1..N. Clearing all affected
// priorities before assigning the new ones keeps the partial unique
// index satisfied at every point.
func (s *Service) ReorderPriorities(ctx context.Context, updates []PriorityUpdate) ([]PriorityEntry, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: empty priority list", domain.ErrValidation)
	}

	seen := make(map[int64]struct{}, len(updates))
	for _, u := range updates {
		if _, dup := seen[u.MoneyboxID]; dup {
			return nil, fmt.Errorf("%w: duplicate moneybox id %d", domain.ErrValidation, u.MoneyboxID)
		}
		seen[u.MoneyboxID] = struct{}{}
		if u.Priority < 1 {
			return nil, fmt.Errorf("%w: priority %d for moneybox %d must be >= 1", domain.ErrValidation, u.Priority, u.MoneyboxID)
		}
	}

	var entries []PriorityEntry
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		overflow, err := s.boxes.GetOverflow(ctx, tx)
		if err != nil {
			return err
		}
		for _, u := range updates {
			if u.MoneyboxID == overflow.ID {
				return fmt.Errorf("%w: moneybox %d", domain.ErrOverflowNotModifiable, u.MoneyboxID)
			}
		}

		current, err := s.boxes.ListPrioritized(ctx, tx)
		if err != nil {
			return err
		}
		active := make(map[int64]struct{}, len(current))
		for _, box := range current {
			active[box.ID] = struct{}{}
		}
		for _, u := range updates {
			if _, ok := active[u.MoneyboxID]; !ok {
				return fmt.Errorf("%w: moneybox %d is not in the active priority list", domain.ErrValidation, u.MoneyboxID)
			}
		}
		if len(updates) != len(current) {
			return fmt.Errorf("%w: priority list covers %d of %d moneyboxes", domain.ErrValidation, len(updates), len(current))
		}

		priorities := make([]int64, 0, len(updates))
		for _, u := range updates {
			priorities = append(priorities, u.Priority)
		}
		sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })
		for i, p := range priorities {
			if p != int64(i+1) {
				return fmt.Errorf("%w: priorities must form the dense sequence 1..%d", domain.ErrValidation, len(updates))
			}
		}

		now := time.Now().UTC()
		ids := make([]int64, 0, len(updates))
		for _, u := range updates {
			ids = append(ids, u.MoneyboxID)
		}
		if err := s.boxes.ClearPriorities(ctx, tx, ids, now); err != nil {
			return err
		}
		for _, u := range updates {
			if err := s.boxes.SetPriority(ctx, tx, u.MoneyboxID, u.Priority, now); err != nil {
				return err
			}
		}

		reordered, err := s.boxes.ListPrioritized(ctx, tx)
		if err != nil {
			return err
		}
		entries = make([]PriorityEntry, 0, len(reordered))
		for _, box := range reordered {
			entries = append(entries, PriorityEntry{
				MoneyboxID: box.ID,
				Name:       box.Name,
				Priority:   *box.Priority,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("count", len(entries)).Msg("Priorities reordered")
	return entries, nil
}
