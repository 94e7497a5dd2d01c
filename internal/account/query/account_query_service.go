package query

import (
	"context"
	"fmt"

	"github.com/openbank/openbank/internal/account/repository"
	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/models"
)

// AccountQueryService serves account reads from the Redis read model with a
// PostgreSQL fallback. Ownership is enforced here, not in handlers.
type AccountQueryService struct {
	readRepo *repository.AccountReadRepository
}

func NewAccountQueryService(readRepo *repository.AccountReadRepository) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo}
}

func (s *AccountQueryService) GetAccount(q cqrs.GetAccountQuery) (*models.AccountView, error) {
	view, err := s.readRepo.GetByAccountNumber(context.Background(), q.AccountNumber)
	if err != nil {
		return nil, err
	}
	if view.UserID != q.RequestingUserID {
		return nil, fmt.Errorf("forbidden")
	}
	return view, nil
}

func (s *AccountQueryService) ListAccounts(q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	return s.readRepo.ListByUserID(context.Background(), q.UserID)
}

// GetAccountInternal serves the service-to-service lookup used by the
// transaction service. No ownership check: the caller needs UserID to do its
// own check against the authenticated user.
func (s *AccountQueryService) GetAccountInternal(accountNumber string) (*models.AccountView, error) {
	return s.readRepo.GetByAccountNumber(context.Background(), accountNumber)
}
