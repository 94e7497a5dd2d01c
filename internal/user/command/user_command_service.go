package command

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/events"
	"github.com/openbank/openbank/internal/models"
	"github.com/openbank/openbank/internal/user/repository"
	"github.com/openbank/openbank/internal/utils"
)

// UserCommandService writes user state to PostgreSQL and keeps the Redis
// read model up to date.
type UserCommandService struct {
	writeRepo *repository.UserWriteRepository
	readRepo  *repository.UserReadRepository
	publisher *events.Publisher
}

func NewUserCommandService(
	writeRepo *repository.UserWriteRepository,
	readRepo *repository.UserReadRepository,
	publisher *events.Publisher,
) *UserCommandService {
	return &UserCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		publisher: publisher,
	}
}

func (s *UserCommandService) CreateUser(cmd cqrs.CreateUserCommand) (*models.User, error) {
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		ID:           utils.GenerateID("usr"),
		Username:     cmd.Username,
		FullName:     cmd.FullName,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		PhoneNumber:  cmd.PhoneNumber,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.writeRepo.Create(user); err != nil {
		return nil, err
	}
	ctx := context.Background()
	s.readRepo.CacheUserView(ctx, userToView(user))
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}); err != nil {
		log.Printf("Failed to publish user.created event: %v", err)
	}
	return user, nil
}

func (s *UserCommandService) UpdateUser(cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	user, err := s.writeRepo.GetByID(cmd.UserID)
	if err != nil {
		return nil, err
	}
	user.FullName = cmd.FullName
	user.Email = cmd.Email
	user.PhoneNumber = cmd.PhoneNumber
	user.UpdatedAt = time.Now().UTC()
	if err := s.writeRepo.Update(user); err != nil {
		return nil, err
	}
	view := userToView(user)
	s.readRepo.CacheUserView(context.Background(), view)
	if err := s.publisher.Publish(context.Background(), events.UserEventsStream, events.UserUpdated, events.UserUpdatedEvent{
		UserID: user.ID,
		Email:  user.Email,
	}); err != nil {
		log.Printf("Failed to publish user.updated event: %v", err)
	}
	return view, nil
}

// DeleteUser rejects the operation while the user still has open accounts.
func (s *UserCommandService) DeleteUser(cmd cqrs.DeleteUserCommand) error {
	if s.readRepo.HasOpenAccounts(context.Background(), cmd.UserID) {
		return fmt.Errorf("user has open accounts")
	}
	if err := s.writeRepo.Delete(cmd.UserID); err != nil {
		return err
	}
	s.readRepo.InvalidateUserView(context.Background(), cmd.UserID)
	if err := s.publisher.Publish(context.Background(), events.UserEventsStream, events.UserDeleted, events.UserDeletedEvent{
		UserID: cmd.UserID,
	}); err != nil {
		log.Printf("Failed to publish user.deleted event: %v", err)
	}
	return nil
}

// HandleAccountEvent is the Redis stream subscriber handler. It tracks how
// many open accounts each user holds so DeleteUser can refuse while any
// remain.
func (s *UserCommandService) HandleAccountEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.AccountCreated:
		var data events.AccountCreatedEvent
		if err := events.DecodeEventData(event, &data); err != nil {
			return err
		}
		log.Printf("User %s opened account %s", data.UserID, data.AccountNumber)
		s.readRepo.IncrAccountCount(ctx, data.UserID)
	case events.AccountClosed:
		var data events.AccountClosedEvent
		if err := events.DecodeEventData(event, &data); err != nil {
			return err
		}
		log.Printf("User %s closed account %s", data.UserID, data.AccountNumber)
		s.readRepo.DecrAccountCount(ctx, data.UserID)
	}
	return nil
}

func userToView(u *models.User) *models.UserView {
	return &models.UserView{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
