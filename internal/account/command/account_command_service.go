package command

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/openbank/openbank/internal/account/repository"
	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/events"
	"github.com/openbank/openbank/internal/models"
	"github.com/openbank/openbank/internal/utils"
)

// AccountCommandService writes account state and keeps the read model in sync.
type AccountCommandService struct {
	writeRepo *repository.AccountWriteRepository
	readRepo  *repository.AccountReadRepository
	publisher *events.Publisher
}

func NewAccountCommandService(
	writeRepo *repository.AccountWriteRepository,
	readRepo *repository.AccountReadRepository,
	publisher *events.Publisher,
) *AccountCommandService {
	return &AccountCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		publisher: publisher,
	}
}

func (s *AccountCommandService) CreateAccount(cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	account := &models.Account{
		AccountNumber: utils.GenerateAccountNumber(),
		UserID:        cmd.UserID,
		AccountType:   cmd.AccountType,
		Balance:       0.00,
		Currency:      "USD",
		Status:        models.AccountActive,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.writeRepo.Create(account); err != nil {
		return nil, err
	}
	ctx := context.Background()
	s.readRepo.CacheAccountView(ctx, accountToView(account))
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
		AccountType:   account.AccountType,
	}); err != nil {
		log.Printf("Failed to publish account.created event: %v", err)
	}
	return account, nil
}

// UpdateAccount freezes or unfreezes an account. Closed accounts stay closed.
func (s *AccountCommandService) UpdateAccount(cmd cqrs.UpdateAccountCommand) (*models.AccountView, error) {
	account, err := s.writeRepo.GetByAccountNumber(cmd.AccountNumber)
	if err != nil {
		return nil, err
	}
	if account.UserID != cmd.RequestingUserID {
		return nil, fmt.Errorf("forbidden")
	}
	if account.Status == models.AccountClosed {
		return nil, fmt.Errorf("account closed")
	}
	if err := s.writeRepo.UpdateStatus(cmd.AccountNumber, cmd.Status); err != nil {
		return nil, err
	}
	updated, err := s.writeRepo.GetByAccountNumber(cmd.AccountNumber)
	if err != nil {
		return nil, err
	}
	view := accountToView(updated)
	s.readRepo.CacheAccountView(context.Background(), view)
	if err := s.publisher.Publish(context.Background(), events.AccountEventsStream, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountNumber: updated.AccountNumber,
		UserID:        updated.UserID,
		Status:        updated.Status,
	}); err != nil {
		log.Printf("Failed to publish account.updated event: %v", err)
	}
	return view, nil
}

// CloseAccount is a soft state change, not a row delete. An account must be
// drained to a zero balance before it can be closed.
func (s *AccountCommandService) CloseAccount(cmd cqrs.CloseAccountCommand) error {
	account, err := s.writeRepo.GetByAccountNumber(cmd.AccountNumber)
	if err != nil {
		return err
	}
	if account.UserID != cmd.RequestingUserID {
		return fmt.Errorf("forbidden")
	}
	if account.Status == models.AccountClosed {
		return fmt.Errorf("account closed")
	}
	if account.Balance != 0 {
		return fmt.Errorf("account not empty")
	}
	if err := s.writeRepo.UpdateStatus(cmd.AccountNumber, models.AccountClosed); err != nil {
		return err
	}
	s.readRepo.InvalidateAccountView(context.Background(), cmd.AccountNumber)
	if err := s.publisher.Publish(context.Background(), events.AccountEventsStream, events.AccountClosed, events.AccountClosedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
	}); err != nil {
		log.Printf("Failed to publish account.closed event: %v", err)
	}
	return nil
}

// accountToView converts the PostgreSQL write model to the Redis read view model.
func accountToView(a *models.Account) *models.AccountView {
	return &models.AccountView{
		AccountNumber: a.AccountNumber,
		UserID:        a.UserID,
		AccountType:   a.AccountType,
		Balance:       a.Balance,
		Currency:      a.Currency,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
