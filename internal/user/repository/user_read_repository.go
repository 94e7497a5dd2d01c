package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openbank/openbank/internal/models"
	obredis "github.com/openbank/openbank/internal/redis"
)

const accountCountKeyPrefix = "user:accounts:open:"

// UserReadRepository handles all read operations for users. It uses Redis as
// the primary read store, falling back to PostgreSQL on a miss. It also keeps
// a per-user open-account counter, maintained from account events, which
// guards user deletion.
type UserReadRepository struct {
	db     *sql.DB
	client *goredis.Client
	cache  *obredis.ViewCache[models.UserView]
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client) *UserReadRepository {
	return &UserReadRepository{
		db:     db,
		client: redisClient,
		cache:  obredis.NewViewCache[models.UserView](redisClient, "user:view:", 0),
	}
}

// GetByID returns a UserView from Redis first, then PostgreSQL.
func (r *UserReadRepository) GetByID(ctx context.Context, id string) (*models.UserView, error) {
	if view, ok := r.cache.Get(ctx, id); ok {
		return view, nil
	}

	// Fallback: PostgreSQL
	query := `
		SELECT id, username, full_name, email, phone_number, created_at, updated_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`
	var view models.UserView
	var phoneNumber sql.NullString

	pgErr := r.db.QueryRow(query, id).Scan(
		&view.ID, &view.Username, &view.FullName, &view.Email,
		&phoneNumber, &view.CreatedAt, &view.UpdatedAt,
	)
	if pgErr == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if pgErr != nil {
		return nil, fmt.Errorf("failed to get user: %w", pgErr)
	}
	view.PhoneNumber = phoneNumber.String

	// Warm the cache
	r.CacheUserView(ctx, &view)
	return &view, nil
}

// CacheUserView stores or refreshes the Redis read model for a user.
// Called by the command service after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, view.ID, view)
}

// InvalidateUserView removes the Redis read model entry for a deleted user.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, userID string) {
	r.cache.Delete(ctx, userID)
}

// HasOpenAccounts reports whether the open-account counter for the user is
// positive. Errors read as "has accounts" so a Redis outage cannot let a
// deletion slip through.
func (r *UserReadRepository) HasOpenAccounts(ctx context.Context, userID string) bool {
	val, err := r.client.Get(ctx, accountCountKeyPrefix+userID).Int64()
	if err == goredis.Nil {
		return false
	}
	if err != nil {
		log.Printf("Failed to read account count for %s: %v", userID, err)
		return true
	}
	return val > 0
}

// IncrAccountCount bumps the open-account counter when an account.created
// event arrives.
func (r *UserReadRepository) IncrAccountCount(ctx context.Context, userID string) {
	if err := r.client.Incr(ctx, accountCountKeyPrefix+userID).Err(); err != nil {
		log.Printf("Failed to increment account count for %s: %v", userID, err)
	}
}

// DecrAccountCount drops the counter on account.closed, clamping at zero in
// case events are replayed out of order.
func (r *UserReadRepository) DecrAccountCount(ctx context.Context, userID string) {
	val, err := r.client.Decr(ctx, accountCountKeyPrefix+userID).Result()
	if err != nil {
		log.Printf("Failed to decrement account count for %s: %v", userID, err)
		return
	}
	if val < 0 {
		r.client.Set(ctx, accountCountKeyPrefix+userID, 0, 0)
	}
}
