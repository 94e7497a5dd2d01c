package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openbank/openbank/internal/models"
	redisx "github.com/openbank/openbank/internal/redis"
	goredis "github.com/redis/go-redis/v9"
)

// TransactionReadRepository handles all read operations for transactions.
// It uses Redis as the primary read store, falling back to PostgreSQL on a miss.
type TransactionReadRepository struct {
	db    *sql.DB
	cache *redisx.ViewCache[models.TransactionView]
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client) *TransactionReadRepository {
	return &TransactionReadRepository{
		db:    db,
		cache: redisx.NewViewCache[models.TransactionView](redisClient, "transaction:view:", 0),
	}
}

// GetByID returns a TransactionView by attempting Redis first, then PostgreSQL.
func (r *TransactionReadRepository) GetByID(ctx context.Context, id string) (*models.TransactionView, error) {
	if view, ok := r.cache.Get(ctx, id); ok {
		return view, nil
	}

	// Fallback: PostgreSQL
	query := `
		SELECT id, type, from_account, to_account, user_id, amount, currency, status,
		       description, failure_reason, created_at, processed_at
		FROM transactions
		WHERE id = $1
	`
	view, err := r.scanView(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}

	// Warm the cache
	r.CacheTransactionView(ctx, view)
	return view, nil
}

// ListByAccountNumber returns all TransactionViews that touch an account on
// either ledger side, newest first, optionally filtered by status.
func (r *TransactionReadRepository) ListByAccountNumber(ctx context.Context, accountNumber, status string) ([]models.TransactionView, error) {
	query := `
		SELECT id, type, from_account, to_account, user_id, amount, currency, status,
		       description, failure_reason, created_at, processed_at
		FROM transactions
		WHERE (from_account = $1 OR to_account = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, accountNumber, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var views []models.TransactionView
	for rows.Next() {
		view, err := r.scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TransactionReadRepository) scanView(row rowScanner) (*models.TransactionView, error) {
	var view models.TransactionView
	var fromAccount, toAccount, description, failureReason sql.NullString
	var processedAt sql.NullTime

	err := row.Scan(
		&view.ID, &view.Type, &fromAccount, &toAccount, &view.UserID,
		&view.Amount, &view.Currency, &view.Status,
		&description, &failureReason, &view.CreatedAt, &processedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	view.FromAccount = fromAccount.String
	view.ToAccount = toAccount.String
	view.Description = description.String
	view.FailureReason = failureReason.String
	if processedAt.Valid {
		t := processedAt.Time
		view.ProcessedAt = &t
	}
	return &view, nil
}

// CacheTransactionView stores the read model for a transaction in Redis.
// Called by the command service after every status change.
func (r *TransactionReadRepository) CacheTransactionView(ctx context.Context, view *models.TransactionView) {
	r.cache.Set(ctx, view.ID, view)
}
