package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openbank/openbank/internal/models"
	redisx "github.com/openbank/openbank/internal/redis"
	goredis "github.com/redis/go-redis/v9"
)

// accountCacheEntry is the internal Redis representation of an account.
// Unlike models.AccountView, it includes UserID so that downstream services
// (e.g. transaction-service) can perform ownership checks from the cache.
type accountCacheEntry struct {
	AccountNumber string    `json:"accountNumber"`
	UserID        string    `json:"userId"`
	AccountType   string    `json:"accountType"`
	Balance       float64   `json:"balance"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdTimestamp"`
	UpdatedAt     time.Time `json:"updatedTimestamp"`
}

// AccountReadRepository handles all read operations for accounts.
// It treats Redis as the primary read store (the CQRS read model) and falls
// back to PostgreSQL transparently, warming the cache on every cold read.
type AccountReadRepository struct {
	db    *sql.DB
	cache *redisx.ViewCache[accountCacheEntry]
	guard *redisx.IdempotencyGuard
}

func NewAccountReadRepository(db *sql.DB, redisClient *goredis.Client) *AccountReadRepository {
	return &AccountReadRepository{
		db:    db,
		cache: redisx.NewViewCache[accountCacheEntry](redisClient, "account:view:", 0),
		// 72h comfortably outlasts any redelivery or manual-retry window.
		guard: redisx.NewIdempotencyGuard(redisClient, "ledger:applied:", 72*time.Hour),
	}
}

func cacheEntryToView(e *accountCacheEntry) *models.AccountView {
	return &models.AccountView{
		AccountNumber: e.AccountNumber,
		UserID:        e.UserID,
		AccountType:   e.AccountType,
		Balance:       e.Balance,
		Currency:      e.Currency,
		Status:        e.Status,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// GetByAccountNumber returns an AccountView, trying Redis first then PostgreSQL.
func (r *AccountReadRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountView, error) {
	if entry, ok := r.cache.Get(ctx, accountNumber); ok {
		return cacheEntryToView(entry), nil
	}

	// Fallback: PostgreSQL — include user_id so the service can enforce ownership.
	query := `
		SELECT account_number, user_id, account_type, balance, currency, status, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
	`
	var view models.AccountView
	pgErr := r.db.QueryRow(query, accountNumber).Scan(
		&view.AccountNumber, &view.UserID, &view.AccountType,
		&view.Balance, &view.Currency, &view.Status,
		&view.CreatedAt, &view.UpdatedAt,
	)
	if pgErr == sql.ErrNoRows {
		return nil, fmt.Errorf("account not found")
	}
	if pgErr != nil {
		return nil, fmt.Errorf("failed to get account: %w", pgErr)
	}

	// Warm the cache
	r.CacheAccountView(ctx, &view)
	return &view, nil
}

// ListByUserID returns all AccountViews for the given user from PostgreSQL.
func (r *AccountReadRepository) ListByUserID(ctx context.Context, userID string) ([]models.AccountView, error) {
	query := `
		SELECT account_number, user_id, account_type, balance, currency, status, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var views []models.AccountView
	for rows.Next() {
		var view models.AccountView
		if err := rows.Scan(
			&view.AccountNumber, &view.UserID, &view.AccountType,
			&view.Balance, &view.Currency, &view.Status,
			&view.CreatedAt, &view.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		views = append(views, view)
	}
	return views, nil
}

// CacheAccountView stores or refreshes the Redis read model for an account.
// Called by the command service after every mutation to keep the read model current.
func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	entry := &accountCacheEntry{
		AccountNumber: view.AccountNumber,
		UserID:        view.UserID,
		AccountType:   view.AccountType,
		Balance:       view.Balance,
		Currency:      view.Currency,
		Status:        view.Status,
		CreatedAt:     view.CreatedAt,
		UpdatedAt:     view.UpdatedAt,
	}
	r.cache.Set(ctx, view.AccountNumber, entry)
}

// InvalidateAccountView removes the Redis read model entry for an account.
func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, accountNumber string) {
	r.cache.Delete(ctx, accountNumber)
}

// ReserveOperation claims a ledger operation key (debit:<txnID> or
// credit:<txnID>) before the balance change is applied. False means another
// delivery of the same operation already holds it.
func (r *AccountReadRepository) ReserveOperation(ctx context.Context, opKey string) (bool, error) {
	return r.guard.Reserve(ctx, opKey)
}

// ReleaseOperation frees a reservation whose balance change did not apply.
func (r *AccountReadRepository) ReleaseOperation(ctx context.Context, opKey string) {
	r.guard.Release(ctx, opKey)
}
