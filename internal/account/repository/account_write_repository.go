package repository

import (
	"database/sql"
	"fmt"

	"github.com/openbank/openbank/internal/models"
)

// AccountWriteRepository handles all state-mutating operations for accounts.
// It operates exclusively against the PostgreSQL write store (source of truth).
type AccountWriteRepository struct {
	db *sql.DB
}

func NewAccountWriteRepository(db *sql.DB) *AccountWriteRepository {
	return &AccountWriteRepository{db: db}
}

func (r *AccountWriteRepository) Create(account *models.Account) error {
	query := `
		INSERT INTO accounts (account_number, user_id, account_type, balance, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(query,
		account.AccountNumber, account.UserID, account.AccountType,
		account.Balance, account.Currency, account.Status,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByAccountNumber fetches the full write model including UserID for ownership checks.
func (r *AccountWriteRepository) GetByAccountNumber(accountNumber string) (*models.Account, error) {
	query := `
		SELECT account_number, user_id, account_type, balance, currency, status, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
	`
	var account models.Account
	err := r.db.QueryRow(query, accountNumber).Scan(
		&account.AccountNumber, &account.UserID, &account.AccountType,
		&account.Balance, &account.Currency, &account.Status,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// UpdateStatus moves an account between active/frozen/closed. Guard conditions
// (zero balance before close, ownership) belong to the command service.
func (r *AccountWriteRepository) UpdateStatus(accountNumber, status string) error {
	query := `
		UPDATE accounts
		SET status = $2, updated_at = NOW()
		WHERE account_number = $1
	`
	result, err := r.db.Exec(query, accountNumber, status)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found")
	}
	return nil
}

// ApplyDebit subtracts amount from the balance in a single conditional UPDATE.
// The balance check runs inside the statement, so two concurrent debits can
// never drive the balance negative. Callers verify existence and active
// status first; zero rows affected therefore means insufficient funds.
func (r *AccountWriteRepository) ApplyDebit(accountNumber string, amount float64) error {
	query := `
		UPDATE accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE account_number = $1 AND status = 'active' AND balance >= $2
	`
	result, err := r.db.Exec(query, accountNumber, amount)
	if err != nil {
		return fmt.Errorf("failed to apply debit: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("insufficient funds")
	}
	return nil
}

// ApplyCredit adds amount to the balance.
func (r *AccountWriteRepository) ApplyCredit(accountNumber string, amount float64) error {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE account_number = $1 AND status = 'active'
	`
	result, err := r.db.Exec(query, accountNumber, amount)
	if err != nil {
		return fmt.Errorf("failed to apply credit: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not active")
	}
	return nil
}
