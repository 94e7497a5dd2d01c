package query

import (
	"context"
	"fmt"

	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/models"
	"github.com/openbank/openbank/internal/user/repository"
)

// UserQueryService reads user views from the Redis cache (with a Postgres
// fallback). Users can only fetch themselves.
type UserQueryService struct {
	readRepo *repository.UserReadRepository
}

func NewUserQueryService(readRepo *repository.UserReadRepository) *UserQueryService {
	return &UserQueryService{readRepo: readRepo}
}

func (s *UserQueryService) GetUser(q cqrs.GetUserQuery) (*models.UserView, error) {
	if q.UserID != q.RequestingUserID {
		return nil, fmt.Errorf("forbidden")
	}
	return s.readRepo.GetByID(context.Background(), q.UserID)
}
