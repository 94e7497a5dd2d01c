// Package client implements the HTTP client for the account service's
// internal ledger API. The transaction processor drives debits and credits
// through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors mapped from the ledger API's status codes. Callers branch
// on these to decide between failing a transaction and compensating.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotActive  = errors.New("account not active")
)

// Account is the internal account representation returned by the account
// service. It includes UserID for ownership checks.
type Account struct {
	AccountNumber string  `json:"accountNumber"`
	UserID        string  `json:"userId"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
}

type ledgerRequest struct {
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// AccountClient talks to the account service over HTTP.
type AccountClient struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *AccountClient {
	return &AccountClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GetAccount fetches an account via the internal lookup endpoint.
func (c *AccountClient) GetAccount(ctx context.Context, accountNumber string) (*Account, error) {
	url := c.baseURL + "/internal/accounts/" + accountNumber
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("account service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrAccountNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("account lookup failed: %s", readMessage(resp))
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	return &account, nil
}

// Debit removes amount from the account. transactionID is the idempotency
// key: re-issuing a debit for the same transaction is a no-op on the account
// service side.
func (c *AccountClient) Debit(ctx context.Context, accountNumber string, amount float64, transactionID string) error {
	return c.post(ctx, accountNumber, "debit", amount, transactionID)
}

// Credit adds amount to the account, idempotent per transactionID.
func (c *AccountClient) Credit(ctx context.Context, accountNumber string, amount float64, transactionID string) error {
	return c.post(ctx, accountNumber, "credit", amount, transactionID)
}

func (c *AccountClient) post(ctx context.Context, accountNumber, op string, amount float64, transactionID string) error {
	body, err := json.Marshal(ledgerRequest{Amount: amount, TransactionID: transactionID})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	url := c.baseURL + "/internal/accounts/" + accountNumber + "/" + op
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("account service unavailable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrAccountNotFound
	case http.StatusUnprocessableEntity:
		return ErrInsufficientFunds
	case http.StatusConflict:
		return ErrAccountNotActive
	default:
		return fmt.Errorf("%s failed: %s", op, readMessage(resp))
	}
}

func readMessage(resp *http.Response) string {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Status
	}
	var errResp errorResponse
	if json.Unmarshal(data, &errResp) == nil && errResp.Message != "" {
		return errResp.Message
	}
	return resp.Status
}
