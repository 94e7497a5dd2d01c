package models

import "time"

// Account types
const (
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"
)

// Account statuses
const (
	AccountActive = "active"
	AccountFrozen = "frozen"
	AccountClosed = "closed"
)

// Transaction types
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
	TypeTransfer   = "transfer"
	TypePayment    = "payment"
	TypeRefund     = "refund"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	CreatedAt    time.Time `json:"createdTimestamp"`
	UpdatedAt    time.Time `json:"updatedTimestamp"`
}

type Account struct {
	AccountNumber string    `json:"accountNumber"`
	UserID        string    `json:"-"`
	AccountType   string    `json:"accountType"`
	Balance       float64   `json:"balance"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdTimestamp"`
	UpdatedAt     time.Time `json:"updatedTimestamp"`
}

// Transaction is a financial operation record, not a database transaction.
// FromAccount/ToAccount are populated according to Type: deposits and refunds
// only credit ToAccount, withdrawals only debit FromAccount, transfers and
// payments move money between the two.
type Transaction struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	FromAccount   string     `json:"fromAccount,omitempty"`
	ToAccount     string     `json:"toAccount,omitempty"`
	UserID        string     `json:"userId"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Status        Status     `json:"status"`
	Description   string     `json:"description,omitempty"`
	FailureReason string     `json:"failureReason,omitempty"`
	CreatedAt     time.Time  `json:"createdTimestamp"`
	UpdatedAt     time.Time  `json:"updatedTimestamp"`
	ProcessedAt   *time.Time `json:"processedTimestamp,omitempty"`

	// Attempt counts processing attempts whose ledger effects were fully
	// undone. It scopes the idempotency keys sent to the account service: a
	// retry after a compensated attempt must not have its debit skipped as a
	// replay of the first one.
	Attempt int `json:"-"`
}

// DebitsFrom reports whether processing this transaction debits FromAccount.
func (t *Transaction) DebitsFrom() bool {
	switch t.Type {
	case TypeWithdrawal, TypeTransfer, TypePayment:
		return true
	}
	return false
}

// CreditsTo reports whether processing this transaction credits ToAccount.
func (t *Transaction) CreditsTo() bool {
	switch t.Type {
	case TypeDeposit, TypeTransfer, TypePayment, TypeRefund:
		return true
	}
	return false
}
