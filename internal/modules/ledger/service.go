package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/domain"
	"github.com/rs/zerolog"
)

// NameResolver resolves moneybox display names for log enrichment.
// Implemented by the moneybox name history repository.
type NameResolver interface {
	// ResolveAt returns the name the moneybox displays for an event at
	// the given time. The overflow moneybox always resolves to its
	// current name; every other moneybox resolves to the name it had
	// at that time.
	ResolveAt(ctx context.Context, q database.Queryer, moneyboxID int64, at time.Time) (string, error)
}

// Service reads the money trail and enriches it with resolved
// counterparty names.
type Service struct {
	store        *database.DB
	transactions *TransactionRepository
	actions      *ActionLogRepository
	resolver     NameResolver
	log          zerolog.Logger
}

// NewService creates a new ledger service.
func NewService(store *database.DB, transactions *TransactionRepository, actions *ActionLogRepository, resolver NameResolver, log zerolog.Logger) *Service {
	return &Service{
		store:        store,
		transactions: transactions,
		actions:      actions,
		resolver:     resolver,
		log:          log.With().Str("service", "ledger").Logger(),
	}
}

// ListForMoneybox retrieves the full transaction history of one
// moneybox, newest first, each row enriched with the counterparty name
// as of the row's timestamp.
func (s *Service) ListForMoneybox(ctx context.Context, moneyboxID int64) ([]TransactionWithCounterparty, error) {
	rows, err := s.transactions.ListForMoneybox(ctx, s.store, moneyboxID)
	if err != nil {
		return nil, err
	}

	enriched := make([]TransactionWithCounterparty, 0, len(rows))
	for _, row := range rows {
		entry := TransactionWithCounterparty{Transaction: row}
		if row.CounterpartyMoneyboxID != nil {
			name, err := s.resolver.ResolveAt(ctx, s.store, *row.CounterpartyMoneyboxID, row.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve counterparty of transaction %d: %w", row.ID, err)
			}
			entry.CounterpartyMoneyboxName = &name
		}
		enriched = append(enriched, entry)
	}

	return enriched, nil
}

// LatestAction retrieves the most recent action log row of the given
// kind, or nil when none exists.
func (s *Service) LatestAction(ctx context.Context, action domain.ActionType) (*ActionLog, error) {
	return s.actions.Latest(ctx, s.store, action)
}
