package events

import "time"

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"

	AccountCreated = "account.created"
	AccountUpdated = "account.updated"
	AccountClosed  = "account.closed"

	BalanceDebited  = "balance.debited"
	BalanceCredited = "balance.credited"

	TransactionCreated   = "transaction.created"
	TransactionCompleted = "transaction.completed"
	TransactionFailed    = "transaction.failed"
	TransactionCancelled = "transaction.cancelled"
	TransactionReversed  = "transaction.reversed"
)

// Stream names
const (
	UserEventsStream        = "user.events"
	AccountEventsStream     = "account.events"
	TransactionEventsStream = "transaction.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// User events
type UserCreatedEvent struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type UserUpdatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type UserDeletedEvent struct {
	UserID string `json:"userId"`
}

// Account events
type AccountCreatedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
	AccountType   string `json:"accountType"`
}

type AccountUpdatedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
	Status        string `json:"status"`
}

type AccountClosedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
}

// BalanceChangedEvent is published for both balance.debited and
// balance.credited. Change is always positive; the event type carries the sign.
type BalanceChangedEvent struct {
	AccountNumber string  `json:"accountNumber"`
	TransactionID string  `json:"transactionId"`
	NewBalance    float64 `json:"newBalance"`
	Change        float64 `json:"change"`
}

// Transaction events
type TransactionCreatedEvent struct {
	TransactionID string  `json:"transactionId"`
	Type          string  `json:"type"`
	FromAccount   string  `json:"fromAccount,omitempty"`
	ToAccount     string  `json:"toAccount,omitempty"`
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

type TransactionStatusEvent struct {
	TransactionID string  `json:"transactionId"`
	Type          string  `json:"type"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	FailureReason string  `json:"failureReason,omitempty"`
}
