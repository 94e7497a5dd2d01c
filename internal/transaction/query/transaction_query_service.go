package query

import (
	"context"
	"fmt"

	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/models"
	"github.com/openbank/openbank/internal/transaction/client"
	"github.com/openbank/openbank/internal/transaction/repository"
)

// AccountLookup is the subset of the account client the query service needs
// for ownership checks on account-scoped listings.
type AccountLookup interface {
	GetAccount(ctx context.Context, accountNumber string) (*client.Account, error)
}

// TransactionQueryService serves transaction reads. Single-transaction reads
// are owner-checked against the record itself; account-scoped listings are
// owner-checked against the account service.
type TransactionQueryService struct {
	readRepo *repository.TransactionReadRepository
	accounts AccountLookup
}

func NewTransactionQueryService(readRepo *repository.TransactionReadRepository, accounts AccountLookup) *TransactionQueryService {
	return &TransactionQueryService{readRepo: readRepo, accounts: accounts}
}

func (s *TransactionQueryService) GetTransaction(q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	view, err := s.readRepo.GetByID(context.Background(), q.TransactionID)
	if err != nil {
		return nil, err
	}
	if view.UserID != q.UserID {
		return nil, fmt.Errorf("forbidden")
	}
	return view, nil
}

// ListTransactions returns all transactions touching an account the
// requesting user owns, optionally filtered by status.
func (s *TransactionQueryService) ListTransactions(q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	ctx := context.Background()
	account, err := s.accounts.GetAccount(ctx, q.AccountNumber)
	if err != nil {
		return nil, fmt.Errorf("account not found")
	}
	if account.UserID != q.UserID {
		return nil, fmt.Errorf("forbidden")
	}
	if q.Status != "" && !models.Status(q.Status).Valid() {
		return nil, fmt.Errorf("unknown status")
	}
	return s.readRepo.ListByAccountNumber(ctx, q.AccountNumber, q.Status)
}
