package command

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/events"
	"github.com/openbank/openbank/internal/models"
	"github.com/openbank/openbank/internal/transaction/client"
	"github.com/openbank/openbank/internal/utils"
)

// TransactionStore is the write-side persistence used by the command service.
// Implemented by repository.TransactionWriteRepository.
type TransactionStore interface {
	Create(*models.Transaction) error
	GetByID(id string) (*models.Transaction, error)
	UpdateStatus(id string, from, to models.Status) error
	MarkCompleted(id string, processedAt time.Time) error
	MarkFailed(id, reason string) error
	MarkReversed(id string) error
	IncrementAttempt(id string) error
}

// AccountGateway is the account service's internal ledger API.
// Implemented by client.AccountClient.
type AccountGateway interface {
	GetAccount(ctx context.Context, accountNumber string) (*client.Account, error)
	Debit(ctx context.Context, accountNumber string, amount float64, transactionID string) error
	Credit(ctx context.Context, accountNumber string, amount float64, transactionID string) error
}

// ViewCacher keeps the Redis read model current after each status change.
// Implemented by repository.TransactionReadRepository.
type ViewCacher interface {
	CacheTransactionView(ctx context.Context, view *models.TransactionView)
}

// Publisher emits lifecycle events. Implemented by events.Publisher.
type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// TransactionCommandService owns the transaction lifecycle: create (pending),
// process (processing → completed/failed), cancel, retry and reverse. Ledger
// moves go through the account service; a failed credit after a successful
// debit triggers a best-effort compensating credit back to the source.
type TransactionCommandService struct {
	store     TransactionStore
	accounts  AccountGateway
	views     ViewCacher
	publisher Publisher
}

func NewTransactionCommandService(
	store TransactionStore,
	accounts AccountGateway,
	views ViewCacher,
	publisher Publisher,
) *TransactionCommandService {
	return &TransactionCommandService{
		store:     store,
		accounts:  accounts,
		views:     views,
		publisher: publisher,
	}
}

func (s *TransactionCommandService) CreateTransaction(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
	if cmd.Amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	txn := &models.Transaction{
		ID:          utils.GenerateID("txn"),
		Type:        cmd.Type,
		FromAccount: cmd.FromAccount,
		ToAccount:   cmd.ToAccount,
		UserID:      cmd.UserID,
		Amount:      cmd.Amount,
		Currency:    cmd.Currency,
		Status:      models.StatusPending,
		Description: cmd.Description,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if !txn.DebitsFrom() && !txn.CreditsTo() {
		return nil, fmt.Errorf("unknown transaction type")
	}
	if txn.DebitsFrom() && txn.FromAccount == "" {
		return nil, fmt.Errorf("fromAccount required")
	}
	if txn.CreditsTo() && txn.ToAccount == "" {
		return nil, fmt.Errorf("toAccount required")
	}
	if txn.DebitsFrom() && txn.CreditsTo() && txn.FromAccount == txn.ToAccount {
		return nil, fmt.Errorf("accounts must differ")
	}

	ctx := context.Background()
	if err := s.checkAccounts(ctx, txn); err != nil {
		return nil, err
	}

	if err := s.store.Create(txn); err != nil {
		return nil, err
	}
	s.views.CacheTransactionView(ctx, txToView(txn))
	if err := s.publisher.Publish(ctx, events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID: txn.ID,
		Type:          txn.Type,
		FromAccount:   txn.FromAccount,
		ToAccount:     txn.ToAccount,
		UserID:        txn.UserID,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
	}); err != nil {
		log.Printf("Failed to publish transaction.created event: %v", err)
	}
	return txn, nil
}

// checkAccounts validates ownership and account state at creation time. The
// balance check here is only a precheck; the authoritative check runs inside
// the account service's conditional debit.
func (s *TransactionCommandService) checkAccounts(ctx context.Context, txn *models.Transaction) error {
	if txn.DebitsFrom() {
		from, err := s.accounts.GetAccount(ctx, txn.FromAccount)
		if err != nil {
			return fmt.Errorf("account not found")
		}
		if from.UserID != txn.UserID {
			return fmt.Errorf("forbidden")
		}
		if from.Status != models.AccountActive {
			return fmt.Errorf("account not active")
		}
		if from.Balance < txn.Amount {
			return fmt.Errorf("insufficient funds")
		}
	}
	if txn.CreditsTo() {
		to, err := s.accounts.GetAccount(ctx, txn.ToAccount)
		if err != nil {
			return fmt.Errorf("account not found")
		}
		if to.Status != models.AccountActive {
			return fmt.Errorf("account not active")
		}
		// Deposits and refunds land on the user's own account; transfers and
		// payments may credit anyone.
		if !txn.DebitsFrom() && to.UserID != txn.UserID {
			return fmt.Errorf("forbidden")
		}
	}
	return nil
}

// ProcessTransaction moves a pending transaction through its ledger steps.
// A ledger failure is a processing outcome, not an error: the transaction is
// returned in failed status with FailureReason set.
func (s *TransactionCommandService) ProcessTransaction(cmd cqrs.ProcessTransactionCommand) (*models.Transaction, error) {
	txn, err := s.store.GetByID(cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if cmd.UserID != "" && txn.UserID != cmd.UserID {
		return nil, fmt.Errorf("forbidden")
	}
	if !txn.Status.CanTransitionTo(models.StatusProcessing) {
		return nil, fmt.Errorf("invalid status transition")
	}
	if err := s.store.UpdateStatus(txn.ID, txn.Status, models.StatusProcessing); err != nil {
		return nil, err
	}
	return s.execute(context.Background(), txn)
}

// CancelTransaction withdraws a transaction that has not started processing.
func (s *TransactionCommandService) CancelTransaction(cmd cqrs.CancelTransactionCommand) (*models.Transaction, error) {
	txn, err := s.store.GetByID(cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != cmd.UserID {
		return nil, fmt.Errorf("forbidden")
	}
	if !txn.Status.CanTransitionTo(models.StatusCancelled) {
		return nil, fmt.Errorf("invalid status transition")
	}
	if err := s.store.UpdateStatus(txn.ID, txn.Status, models.StatusCancelled); err != nil {
		return nil, err
	}
	txn.Status = models.StatusCancelled
	ctx := context.Background()
	s.views.CacheTransactionView(ctx, txToView(txn))
	s.publishStatus(ctx, events.TransactionCancelled, txn)
	return txn, nil
}

// RetryTransaction re-runs processing for a failed transaction. When the
// previous attempt left money applied (debit succeeded, compensation did not),
// the retry replays under the same idempotency keys and the account service
// skips the steps that already landed. When the previous attempt was fully
// compensated, the attempt counter has moved on and every step runs fresh.
func (s *TransactionCommandService) RetryTransaction(cmd cqrs.RetryTransactionCommand) (*models.Transaction, error) {
	txn, err := s.store.GetByID(cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != cmd.UserID {
		return nil, fmt.Errorf("forbidden")
	}
	if txn.Status != models.StatusFailed {
		return nil, fmt.Errorf("invalid status transition")
	}
	if err := s.store.UpdateStatus(txn.ID, models.StatusFailed, models.StatusProcessing); err != nil {
		return nil, err
	}
	return s.execute(context.Background(), txn)
}

// ReverseTransaction undoes a completed transaction by issuing the opposite
// ledger steps. Reversal ops carry the ":reversal" idempotency suffix so they
// can never collide with the forward ops. If any reversal step fails the
// transaction stays completed and the caller may try again.
func (s *TransactionCommandService) ReverseTransaction(cmd cqrs.ReverseTransactionCommand) (*models.Transaction, error) {
	txn, err := s.store.GetByID(cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != cmd.UserID {
		return nil, fmt.Errorf("forbidden")
	}
	if !txn.Status.CanTransitionTo(models.StatusReversed) {
		return nil, fmt.Errorf("invalid status transition")
	}

	ctx := context.Background()
	reversalKey := txn.ID + ":reversal"

	// Undo the credited side first: pulling money back is the step that can
	// legitimately fail (recipient already spent it), and it must fail before
	// the source is made whole.
	if txn.CreditsTo() {
		if err := s.accounts.Debit(ctx, txn.ToAccount, txn.Amount, reversalKey); err != nil {
			return nil, fmt.Errorf("reversal failed: %w", err)
		}
	}
	if txn.DebitsFrom() {
		if err := s.accounts.Credit(ctx, txn.FromAccount, txn.Amount, reversalKey); err != nil {
			return nil, fmt.Errorf("reversal failed: %w", err)
		}
	}

	if err := s.store.MarkReversed(txn.ID); err != nil {
		return nil, err
	}
	txn.Status = models.StatusReversed
	s.views.CacheTransactionView(ctx, txToView(txn))
	s.publishStatus(ctx, events.TransactionReversed, txn)
	return txn, nil
}

// ledgerKey is the idempotency key for the current attempt's forward ledger
// ops. The first attempt uses the bare transaction ID; every fully compensated
// attempt bumps the counter so the next run is not mistaken for a replay.
func ledgerKey(txn *models.Transaction) string {
	if txn.Attempt == 0 {
		return txn.ID
	}
	return fmt.Sprintf("%s:r%d", txn.ID, txn.Attempt)
}

// execute runs the ledger steps for a transaction already moved to
// processing in the store.
func (s *TransactionCommandService) execute(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	txn.Status = models.StatusProcessing
	key := ledgerKey(txn)

	debited := false
	if txn.DebitsFrom() {
		if err := s.accounts.Debit(ctx, txn.FromAccount, txn.Amount, key); err != nil {
			return s.fail(ctx, txn, fmt.Sprintf("debit %s: %v", txn.FromAccount, err))
		}
		debited = true
	}
	if txn.CreditsTo() {
		if err := s.accounts.Credit(ctx, txn.ToAccount, txn.Amount, key); err != nil {
			reason := fmt.Sprintf("credit %s: %v", txn.ToAccount, err)
			if debited {
				// Best-effort compensation: put the money back where it came
				// from. The ":comp" suffix keeps the compensating credit
				// distinct from the forward ops.
				if compErr := s.accounts.Credit(ctx, txn.FromAccount, txn.Amount, key+":comp"); compErr != nil {
					// The debit stands. Keep the attempt so a retry replays
					// under the same keys: debit skipped, credit and
					// compensation tried again.
					reason = fmt.Sprintf("%s; compensation failed: %v", reason, compErr)
				} else {
					// Net zero. Move the keys on so a retry re-applies the
					// debit instead of skipping it as a replay.
					if err := s.store.IncrementAttempt(txn.ID); err != nil {
						return nil, fmt.Errorf("failed to advance attempt: %w", err)
					}
					txn.Attempt++
				}
			}
			return s.fail(ctx, txn, reason)
		}
	}

	now := time.Now().UTC()
	if err := s.store.MarkCompleted(txn.ID, now); err != nil {
		return nil, err
	}
	txn.Status = models.StatusCompleted
	txn.FailureReason = ""
	txn.ProcessedAt = &now
	s.views.CacheTransactionView(ctx, txToView(txn))
	s.publishStatus(ctx, events.TransactionCompleted, txn)
	return txn, nil
}

// fail records a processing failure and returns the transaction in failed
// status. The error return is reserved for store faults.
func (s *TransactionCommandService) fail(ctx context.Context, txn *models.Transaction, reason string) (*models.Transaction, error) {
	if err := s.store.MarkFailed(txn.ID, reason); err != nil {
		return nil, err
	}
	txn.Status = models.StatusFailed
	txn.FailureReason = reason
	s.views.CacheTransactionView(ctx, txToView(txn))
	s.publishStatus(ctx, events.TransactionFailed, txn)
	return txn, nil
}

func (s *TransactionCommandService) publishStatus(ctx context.Context, eventType string, txn *models.Transaction) {
	if err := s.publisher.Publish(ctx, events.TransactionEventsStream, eventType, events.TransactionStatusEvent{
		TransactionID: txn.ID,
		Type:          txn.Type,
		Status:        string(txn.Status),
		Amount:        txn.Amount,
		FailureReason: txn.FailureReason,
	}); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}

// txToView converts the write model to a read view model.
func txToView(t *models.Transaction) *models.TransactionView {
	return &models.TransactionView{
		ID:            t.ID,
		Type:          t.Type,
		FromAccount:   t.FromAccount,
		ToAccount:     t.ToAccount,
		UserID:        t.UserID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Status:        t.Status,
		Description:   t.Description,
		FailureReason: t.FailureReason,
		CreatedAt:     t.CreatedAt,
		ProcessedAt:   t.ProcessedAt,
	}
}
