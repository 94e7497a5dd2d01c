package command

import (
	"context"
	"fmt"
	"log"

	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/events"
	"github.com/openbank/openbank/internal/models"
)

// LedgerStore is the write-side persistence for balances.
// Implemented by repository.AccountWriteRepository.
type LedgerStore interface {
	GetByAccountNumber(accountNumber string) (*models.Account, error)
	ApplyDebit(accountNumber string, amount float64) error
	ApplyCredit(accountNumber string, amount float64) error
}

// LedgerViews owns the operation-key reservations and the Redis read model.
// Implemented by repository.AccountReadRepository.
type LedgerViews interface {
	ReserveOperation(ctx context.Context, opKey string) (bool, error)
	ReleaseOperation(ctx context.Context, opKey string)
	CacheAccountView(ctx context.Context, view *models.AccountView)
}

// LedgerPublisher emits balance events. Implemented by events.Publisher.
type LedgerPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// LedgerCommandService applies debits and credits on behalf of the
// transaction service. Every operation is idempotent per
// (operation, transactionId): a replayed call returns the current account
// without touching the balance.
type LedgerCommandService struct {
	store     LedgerStore
	views     LedgerViews
	publisher LedgerPublisher
}

func NewLedgerCommandService(store LedgerStore, views LedgerViews, publisher LedgerPublisher) *LedgerCommandService {
	return &LedgerCommandService{
		store:     store,
		views:     views,
		publisher: publisher,
	}
}

func (s *LedgerCommandService) Debit(cmd cqrs.DebitCommand) (*models.Account, error) {
	return s.apply(cmd.AccountNumber, cmd.Amount, cmd.TransactionID, "debit")
}

func (s *LedgerCommandService) Credit(cmd cqrs.CreditCommand) (*models.Account, error) {
	return s.apply(cmd.AccountNumber, cmd.Amount, cmd.TransactionID, "credit")
}

func (s *LedgerCommandService) apply(accountNumber string, amount float64, transactionID, op string) (*models.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	ctx := context.Background()
	opKey := op + ":" + transactionID

	account, err := s.store.GetByAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}

	// Claim the operation key before touching the balance. Of two concurrent
	// deliveries only one gets through; a replay returns the current account
	// without re-applying. When the guard itself is unreachable the operation
	// is refused rather than applied on a guess.
	reserved, err := s.views.ReserveOperation(ctx, opKey)
	if err != nil {
		return nil, fmt.Errorf("ledger unavailable: %w", err)
	}
	if !reserved {
		log.Printf("Ledger op %s on %s already applied, skipping", opKey, accountNumber)
		return account, nil
	}

	if account.Status != models.AccountActive {
		s.views.ReleaseOperation(ctx, opKey)
		return nil, fmt.Errorf("account not active")
	}

	if op == "debit" {
		err = s.store.ApplyDebit(accountNumber, amount)
	} else {
		err = s.store.ApplyCredit(accountNumber, amount)
	}
	if err != nil {
		// The balance did not move. Free the key so a later legitimate retry
		// of this operation is not mistaken for a replay.
		s.views.ReleaseOperation(ctx, opKey)
		return nil, err
	}

	updated, err := s.store.GetByAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	s.views.CacheAccountView(ctx, accountToView(updated))

	eventType := events.BalanceDebited
	if op == "credit" {
		eventType = events.BalanceCredited
	}
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, eventType, events.BalanceChangedEvent{
		AccountNumber: accountNumber,
		TransactionID: transactionID,
		NewBalance:    updated.Balance,
		Change:        amount,
	}); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}

	log.Printf("Ledger %s of %.2f on account %s: balance %.2f -> %.2f",
		op, amount, accountNumber, account.Balance, updated.Balance)
	return updated, nil
}
