package cqrs

type CreateUserCommand struct {
	Username    string
	FullName    string
	Email       string
	Password    string
	PhoneNumber string
}

type UpdateUserCommand struct {
	UserID      string
	FullName    string
	Email       string
	PhoneNumber string
}

type DeleteUserCommand struct {
	UserID string
}

type CreateAccountCommand struct {
	UserID      string
	AccountType string
}

// UpdateAccountCommand freezes or unfreezes an account. Closing goes through
// CloseAccountCommand because it carries a zero-balance precondition.
type UpdateAccountCommand struct {
	AccountNumber    string
	RequestingUserID string
	Status           string
}

type CloseAccountCommand struct {
	AccountNumber    string
	RequestingUserID string
}

// DebitCommand and CreditCommand are the internal ledger operations invoked by
// the transaction service. TransactionID doubles as the idempotency key.
type DebitCommand struct {
	AccountNumber string
	Amount        float64
	TransactionID string
}

type CreditCommand struct {
	AccountNumber string
	Amount        float64
	TransactionID string
}

type CreateTransactionCommand struct {
	Type        string
	FromAccount string
	ToAccount   string
	UserID      string
	Amount      float64
	Currency    string
	Description string
}

// ProcessTransactionCommand runs the ledger steps for a pending transaction.
// UserID is empty when the background poller issues the command; the manual
// endpoint fills it in for an ownership check.
type ProcessTransactionCommand struct {
	TransactionID string
	UserID        string
}

type CancelTransactionCommand struct {
	TransactionID string
	UserID        string
}

type RetryTransactionCommand struct {
	TransactionID string
	UserID        string
}

type ReverseTransactionCommand struct {
	TransactionID string
	UserID        string
}

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
