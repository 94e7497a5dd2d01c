package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/models"
)

// fakeLedgerStore holds a single account and applies balance changes the way
// the SQL write repository does.
type fakeLedgerStore struct {
	account   *models.Account
	debitErr  error
	creditErr error
	applies   []string
}

func (f *fakeLedgerStore) GetByAccountNumber(accountNumber string) (*models.Account, error) {
	if f.account == nil || f.account.AccountNumber != accountNumber {
		return nil, fmt.Errorf("account not found")
	}
	cp := *f.account
	return &cp, nil
}

func (f *fakeLedgerStore) ApplyDebit(accountNumber string, amount float64) error {
	f.applies = append(f.applies, fmt.Sprintf("debit %.2f", amount))
	if f.debitErr != nil {
		return f.debitErr
	}
	f.account.Balance -= amount
	return nil
}

func (f *fakeLedgerStore) ApplyCredit(accountNumber string, amount float64) error {
	f.applies = append(f.applies, fmt.Sprintf("credit %.2f", amount))
	if f.creditErr != nil {
		return f.creditErr
	}
	f.account.Balance += amount
	return nil
}

// fakeLedgerViews mimics the Redis-backed reservation guard.
type fakeLedgerViews struct {
	reserved   map[string]bool
	reserveErr error
	released   []string
	cached     int
}

func newFakeLedgerViews() *fakeLedgerViews {
	return &fakeLedgerViews{reserved: map[string]bool{}}
}

func (f *fakeLedgerViews) ReserveOperation(ctx context.Context, opKey string) (bool, error) {
	if f.reserveErr != nil {
		return false, f.reserveErr
	}
	if f.reserved[opKey] {
		return false, nil
	}
	f.reserved[opKey] = true
	return true, nil
}

func (f *fakeLedgerViews) ReleaseOperation(ctx context.Context, opKey string) {
	delete(f.reserved, opKey)
	f.released = append(f.released, opKey)
}

func (f *fakeLedgerViews) CacheAccountView(ctx context.Context, view *models.AccountView) {
	f.cached++
}

type capturingPublisher struct {
	events []string
}

func (p *capturingPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	p.events = append(p.events, eventType)
	return nil
}

func activeLedgerAccount(balance float64) *models.Account {
	return &models.Account{
		AccountNumber: "2011111111", UserID: "usr-001",
		AccountType: models.AccountTypeChecking, Balance: balance,
		Currency: "USD", Status: models.AccountActive,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
}

func TestDebitAppliesExactlyOnce(t *testing.T) {
	store := &fakeLedgerStore{account: activeLedgerAccount(100.00)}
	views := newFakeLedgerViews()
	pub := &capturingPublisher{}
	svc := NewLedgerCommandService(store, views, pub)

	cmd := cqrs.DebitCommand{AccountNumber: "2011111111", Amount: 40.00, TransactionID: "txn-001"}

	account, err := svc.Debit(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 60.00 {
		t.Fatalf("expected balance 60.00, got %.2f", account.Balance)
	}
	if len(pub.events) != 1 || pub.events[0] != "balance.debited" {
		t.Errorf("expected balance.debited event, got %v", pub.events)
	}

	// Same delivery again: the key is held, the balance must not move.
	replay, err := svc.Debit(cmd)
	if err != nil {
		t.Fatalf("replay must succeed without applying: %v", err)
	}
	if replay.Balance != 60.00 {
		t.Errorf("replay changed the balance: %.2f", replay.Balance)
	}
	if len(store.applies) != 1 {
		t.Errorf("expected a single apply, got %v", store.applies)
	}
}

func TestFailedApplyFreesReservation(t *testing.T) {
	store := &fakeLedgerStore{account: activeLedgerAccount(10.00)}
	store.debitErr = fmt.Errorf("insufficient funds")
	views := newFakeLedgerViews()
	svc := NewLedgerCommandService(store, views, &capturingPublisher{})

	cmd := cqrs.DebitCommand{AccountNumber: "2011111111", Amount: 40.00, TransactionID: "txn-001"}
	if _, err := svc.Debit(cmd); err == nil || err.Error() != "insufficient funds" {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if len(views.released) != 1 || views.released[0] != "debit:txn-001" {
		t.Fatalf("expected the key to be released, got %v", views.released)
	}

	// The account is topped up and the same operation retried: it must not be
	// mistaken for a replay.
	store.debitErr = nil
	store.account.Balance = 100.00
	account, err := svc.Debit(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 60.00 {
		t.Errorf("expected balance 60.00 after retry, got %.2f", account.Balance)
	}
}

func TestGuardOutageRefusesOperation(t *testing.T) {
	store := &fakeLedgerStore{account: activeLedgerAccount(100.00)}
	views := newFakeLedgerViews()
	views.reserveErr = fmt.Errorf("connection refused")
	svc := NewLedgerCommandService(store, views, &capturingPublisher{})

	_, err := svc.Credit(cqrs.CreditCommand{AccountNumber: "2011111111", Amount: 40.00, TransactionID: "txn-001"})
	if err == nil {
		t.Fatal("expected an error when the guard is unreachable")
	}
	if len(store.applies) != 0 {
		t.Errorf("no balance change may happen without a reservation: %v", store.applies)
	}
}

func TestInactiveAccountReleasesReservation(t *testing.T) {
	store := &fakeLedgerStore{account: activeLedgerAccount(100.00)}
	store.account.Status = models.AccountFrozen
	views := newFakeLedgerViews()
	svc := NewLedgerCommandService(store, views, &capturingPublisher{})

	_, err := svc.Credit(cqrs.CreditCommand{AccountNumber: "2011111111", Amount: 40.00, TransactionID: "txn-001"})
	if err == nil || err.Error() != "account not active" {
		t.Fatalf("expected account not active, got %v", err)
	}
	if len(views.released) != 1 {
		t.Errorf("expected the key to be released, got %v", views.released)
	}
}

func TestLedgerAmountValidation(t *testing.T) {
	svc := NewLedgerCommandService(&fakeLedgerStore{}, newFakeLedgerViews(), &capturingPublisher{})
	for _, amount := range []float64{0, -5.00} {
		_, err := svc.Debit(cqrs.DebitCommand{AccountNumber: "2011111111", Amount: amount, TransactionID: "txn-001"})
		if err == nil || err.Error() != "amount must be greater than zero" {
			t.Errorf("amount %.2f: expected validation error, got %v", amount, err)
		}
	}
}
