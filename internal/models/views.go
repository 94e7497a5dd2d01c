package models

import "time"

// UserView is the read-optimised projection of a user.
// It never exposes PasswordHash.
type UserView struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	CreatedAt   time.Time `json:"createdTimestamp"`
	UpdatedAt   time.Time `json:"updatedTimestamp"`
}

// AccountView is the read-optimised projection of an account.
// UserID is populated for ownership checks but never serialised to the API response.
type AccountView struct {
	AccountNumber string    `json:"accountNumber"`
	UserID        string    `json:"-"`
	AccountType   string    `json:"accountType"`
	Balance       float64   `json:"balance"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdTimestamp"`
	UpdatedAt     time.Time `json:"updatedTimestamp"`
}

// TransactionView is the read-optimised projection of a transaction.
// UserID is populated for ownership checks but never serialised to the API response.
type TransactionView struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	FromAccount   string     `json:"fromAccount,omitempty"`
	ToAccount     string     `json:"toAccount,omitempty"`
	UserID        string     `json:"-"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Status        Status     `json:"status"`
	Description   string     `json:"description,omitempty"`
	FailureReason string     `json:"failureReason,omitempty"`
	CreatedAt     time.Time  `json:"createdTimestamp"`
	ProcessedAt   *time.Time `json:"processedTimestamp,omitempty"`
}
