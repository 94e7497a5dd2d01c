package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/openbank/openbank/internal/models"
)

// TransactionWriteRepository handles all state-mutating operations for
// transactions. It operates exclusively against the PostgreSQL write store
// (source of truth). Status changes are guarded in SQL so concurrent workers
// cannot race each other through the lifecycle.
type TransactionWriteRepository struct {
	db *sql.DB
}

func NewTransactionWriteRepository(db *sql.DB) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

func (r *TransactionWriteRepository) Create(transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, type, from_account, to_account, user_id, amount, currency, status, description, attempt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(query,
		transaction.ID, transaction.Type,
		nullString(transaction.FromAccount), nullString(transaction.ToAccount),
		transaction.UserID, transaction.Amount, transaction.Currency,
		string(transaction.Status), nullString(transaction.Description),
		transaction.Attempt, transaction.CreatedAt, transaction.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID fetches the full write model including UserID for ownership checks.
func (r *TransactionWriteRepository) GetByID(id string) (*models.Transaction, error) {
	query := `
		SELECT id, type, from_account, to_account, user_id, amount, currency, status,
		       description, failure_reason, attempt, created_at, updated_at, processed_at
		FROM transactions
		WHERE id = $1
	`
	var txn models.Transaction
	var fromAccount, toAccount, description, failureReason sql.NullString
	var processedAt sql.NullTime

	err := r.db.QueryRow(query, id).Scan(
		&txn.ID, &txn.Type, &fromAccount, &toAccount, &txn.UserID,
		&txn.Amount, &txn.Currency, &txn.Status,
		&description, &failureReason, &txn.Attempt, &txn.CreatedAt, &txn.UpdatedAt, &processedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	txn.FromAccount = fromAccount.String
	txn.ToAccount = toAccount.String
	txn.Description = description.String
	txn.FailureReason = failureReason.String
	if processedAt.Valid {
		t := processedAt.Time
		txn.ProcessedAt = &t
	}
	return &txn, nil
}

// UpdateStatus moves a transaction from one status to another. The old status
// is part of the WHERE clause, so of two concurrent workers trying the same
// move only one wins; the loser gets "invalid status transition".
func (r *TransactionWriteRepository) UpdateStatus(id string, from, to models.Status) error {
	query := `
		UPDATE transactions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	result, err := r.db.Exec(query, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invalid status transition")
	}
	return nil
}

// MarkCompleted finishes processing: stamps processed_at and clears any
// failure reason left by an earlier failed attempt.
func (r *TransactionWriteRepository) MarkCompleted(id string, processedAt time.Time) error {
	query := `
		UPDATE transactions
		SET status = 'completed', failure_reason = NULL, processed_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`
	result, err := r.db.Exec(query, id, processedAt)
	if err != nil {
		return fmt.Errorf("failed to mark transaction completed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invalid status transition")
	}
	return nil
}

// MarkFailed records the failure reason alongside the status change.
func (r *TransactionWriteRepository) MarkFailed(id, reason string) error {
	query := `
		UPDATE transactions
		SET status = 'failed', failure_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`
	result, err := r.db.Exec(query, id, reason)
	if err != nil {
		return fmt.Errorf("failed to mark transaction failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invalid status transition")
	}
	return nil
}

// IncrementAttempt advances the idempotency-key scope after an attempt whose
// ledger effects were fully compensated, so the next attempt re-applies them.
func (r *TransactionWriteRepository) IncrementAttempt(id string) error {
	query := `
		UPDATE transactions
		SET attempt = attempt + 1, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to increment attempt: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction not found")
	}
	return nil
}

// MarkReversed finishes a manual reversal.
func (r *TransactionWriteRepository) MarkReversed(id string) error {
	query := `
		UPDATE transactions
		SET status = 'reversed', updated_at = NOW()
		WHERE id = $1 AND status = 'completed'
	`
	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction reversed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invalid status transition")
	}
	return nil
}

// ListPendingBefore returns transactions still pending after the grace
// period, oldest first. The background poller feeds on this.
func (r *TransactionWriteRepository) ListPendingBefore(cutoff time.Time, limit int) ([]models.Transaction, error) {
	query := `
		SELECT id, type, from_account, to_account, user_id, amount, currency, status,
		       description, failure_reason, attempt, created_at, updated_at, processed_at
		FROM transactions
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`
	rows, err := r.db.Query(query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		var fromAccount, toAccount, description, failureReason sql.NullString
		var processedAt sql.NullTime

		if err := rows.Scan(
			&txn.ID, &txn.Type, &fromAccount, &toAccount, &txn.UserID,
			&txn.Amount, &txn.Currency, &txn.Status,
			&description, &failureReason, &txn.Attempt, &txn.CreatedAt, &txn.UpdatedAt, &processedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.FromAccount = fromAccount.String
		txn.ToAccount = toAccount.String
		txn.Description = description.String
		txn.FailureReason = failureReason.String
		if processedAt.Valid {
			t := processedAt.Time
			txn.ProcessedAt = &t
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
