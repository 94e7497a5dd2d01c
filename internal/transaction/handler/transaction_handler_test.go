package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/models"
)

// ---- mock implementations ----

type mockTransactionCommander struct {
	createFn  func(cqrs.CreateTransactionCommand) (*models.Transaction, error)
	processFn func(cqrs.ProcessTransactionCommand) (*models.Transaction, error)
	cancelFn  func(cqrs.CancelTransactionCommand) (*models.Transaction, error)
	retryFn   func(cqrs.RetryTransactionCommand) (*models.Transaction, error)
	reverseFn func(cqrs.ReverseTransactionCommand) (*models.Transaction, error)
}

func (m *mockTransactionCommander) CreateTransaction(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionCommander) ProcessTransaction(cmd cqrs.ProcessTransactionCommand) (*models.Transaction, error) {
	if m.processFn != nil {
		return m.processFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionCommander) CancelTransaction(cmd cqrs.CancelTransactionCommand) (*models.Transaction, error) {
	if m.cancelFn != nil {
		return m.cancelFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionCommander) RetryTransaction(cmd cqrs.RetryTransactionCommand) (*models.Transaction, error) {
	if m.retryFn != nil {
		return m.retryFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionCommander) ReverseTransaction(cmd cqrs.ReverseTransactionCommand) (*models.Transaction, error) {
	if m.reverseFn != nil {
		return m.reverseFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockTransactionQuerier struct {
	getFn  func(cqrs.GetTransactionQuery) (*models.TransactionView, error)
	listFn func(cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
}

func (m *mockTransactionQuerier) GetTransaction(q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionQuerier) ListTransactions(q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeAuthTx(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newTxTestRouter(cmds TransactionCommander, qrys TransactionQuerier, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuthTx(authUserID))
	h := NewTransactionHandler(cmds, qrys)
	v1 := r.Group("/v1")
	v1.POST("/transactions", h.CreateTransaction)
	v1.GET("/transactions/:transactionId", h.GetTransaction)
	v1.POST("/transactions/:transactionId/process", h.ProcessTransaction)
	v1.POST("/transactions/:transactionId/cancel", h.CancelTransaction)
	v1.POST("/transactions/:transactionId/retry", h.RetryTransaction)
	v1.POST("/transactions/:transactionId/reverse", h.ReverseTransaction)
	v1.GET("/accounts/:accountNumber/transactions", h.ListTransactions)
	return r
}

func txDoRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

func testTransaction(status models.Status) *models.Transaction {
	return &models.Transaction{
		ID: "txn-001", Type: "transfer",
		FromAccount: "2011111111", ToAccount: "2022222222",
		UserID: "usr-001", Amount: 40.00, Currency: "USD",
		Status: status, CreatedAt: time.Now(),
	}
}

var txTestView = &models.TransactionView{
	ID: "txn-001", Type: "transfer",
	FromAccount: "2011111111", ToAccount: "2022222222",
	UserID: "usr-001", Amount: 40.00, Currency: "USD",
	Status: models.StatusCompleted, CreatedAt: time.Now(),
}

func transferBody() map[string]interface{} {
	return map[string]interface{}{
		"type": "transfer", "fromAccount": "2011111111", "toAccount": "2022222222",
		"amount": 40.0, "currency": "USD", "description": "Rent",
	}
}

// ---- tests ----

func TestCreateTransactionEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreateTransactionCommand) (*models.Transaction, error)
		expectedStatus int
	}{
		{
			name: "created - transfer between accounts",
			body: transferBody(),
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return testTransaction(models.StatusPending), nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "unprocessable entity - insufficient funds",
			body: transferBody(),
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("insufficient funds")
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "forbidden - another user's account",
			body: transferBody(),
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("forbidden")
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "not found - account does not exist",
			body: transferBody(),
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("account not found")
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "conflict - frozen account",
			body: transferBody(),
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("account not active")
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "bad request - transfer missing toAccount",
			body: map[string]interface{}{
				"type": "transfer", "fromAccount": "2011111111",
				"amount": 40.0, "currency": "USD",
			},
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("toAccount required")
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - missing required fields",
			body:           map[string]interface{}{},
			createFn:       nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - unknown type",
			body: map[string]interface{}{
				"type": "chargeback", "fromAccount": "2011111111",
				"amount": 40.0, "currency": "USD",
			},
			createFn:       nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - amount is zero",
			body: map[string]interface{}{
				"type": "deposit", "toAccount": "2011111111",
				"amount": 0, "currency": "USD",
			},
			createFn:       nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - unsupported currency",
			body: map[string]interface{}{
				"type": "deposit", "toAccount": "2011111111",
				"amount": 10.0, "currency": "GBP",
			},
			createFn:       nil,
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockTransactionCommander{createFn: tt.createFn}
			router := newTxTestRouter(cmds, &mockTransactionQuerier{}, "usr-001")
			w := txDoRequest(router, http.MethodPost, "/v1/transactions", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	okTxn := func(status models.Status) *models.Transaction { return testTransaction(status) }
	tests := []struct {
		name           string
		path           string
		cmds           *mockTransactionCommander
		expectedStatus int
	}{
		{
			name: "process - ok",
			path: "/v1/transactions/txn-001/process",
			cmds: &mockTransactionCommander{processFn: func(cqrs.ProcessTransactionCommand) (*models.Transaction, error) {
				return okTxn(models.StatusCompleted), nil
			}},
			expectedStatus: http.StatusOK,
		},
		{
			name: "process - illegal from completed",
			path: "/v1/transactions/txn-001/process",
			cmds: &mockTransactionCommander{processFn: func(cqrs.ProcessTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("invalid status transition")
			}},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "cancel - ok",
			path: "/v1/transactions/txn-001/cancel",
			cmds: &mockTransactionCommander{cancelFn: func(cqrs.CancelTransactionCommand) (*models.Transaction, error) {
				return okTxn(models.StatusCancelled), nil
			}},
			expectedStatus: http.StatusOK,
		},
		{
			name: "cancel - not found",
			path: "/v1/transactions/txn-404/cancel",
			cmds: &mockTransactionCommander{cancelFn: func(cqrs.CancelTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("transaction not found")
			}},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "retry - ok",
			path: "/v1/transactions/txn-001/retry",
			cmds: &mockTransactionCommander{retryFn: func(cqrs.RetryTransactionCommand) (*models.Transaction, error) {
				return okTxn(models.StatusCompleted), nil
			}},
			expectedStatus: http.StatusOK,
		},
		{
			name: "retry - only failed transactions",
			path: "/v1/transactions/txn-001/retry",
			cmds: &mockTransactionCommander{retryFn: func(cqrs.RetryTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("invalid status transition")
			}},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "reverse - ok",
			path: "/v1/transactions/txn-001/reverse",
			cmds: &mockTransactionCommander{reverseFn: func(cqrs.ReverseTransactionCommand) (*models.Transaction, error) {
				return okTxn(models.StatusReversed), nil
			}},
			expectedStatus: http.StatusOK,
		},
		{
			name: "reverse - ledger refused reversal",
			path: "/v1/transactions/txn-001/reverse",
			cmds: &mockTransactionCommander{reverseFn: func(cqrs.ReverseTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("reversal failed: insufficient funds")
			}},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "reverse - forbidden",
			path: "/v1/transactions/txn-001/reverse",
			cmds: &mockTransactionCommander{reverseFn: func(cqrs.ReverseTransactionCommand) (*models.Transaction, error) {
				return nil, fmt.Errorf("forbidden")
			}},
			expectedStatus: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(tt.cmds, &mockTransactionQuerier{}, "usr-001")
			w := txDoRequest(router, http.MethodPost, tt.path, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetTransactionEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		transactionID  string
		getFn          func(cqrs.GetTransactionQuery) (*models.TransactionView, error)
		expectedStatus int
	}{
		{
			name:          "success - fetch own transaction",
			transactionID: "txn-001",
			getFn: func(q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
				return txTestView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:          "forbidden - another user's transaction",
			transactionID: "txn-001",
			getFn: func(q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
				return nil, fmt.Errorf("forbidden")
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:          "not found - transaction does not exist",
			transactionID: "txn-999",
			getFn: func(q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
				return nil, fmt.Errorf("transaction not found")
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{getFn: tt.getFn}, "usr-001")
			w := txDoRequest(router, http.MethodGet, "/v1/transactions/"+tt.transactionID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListTransactionsEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		listFn         func(cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
		expectedStatus int
	}{
		{
			name: "success - list transactions on own account",
			url:  "/v1/accounts/2011111111/transactions",
			listFn: func(q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
				return []models.TransactionView{*txTestView}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "success - status filter passed through",
			url:  "/v1/accounts/2011111111/transactions?status=failed",
			listFn: func(q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
				if q.Status != "failed" {
					return nil, fmt.Errorf("status filter not forwarded")
				}
				return nil, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "bad request - unknown status filter",
			url:  "/v1/accounts/2011111111/transactions?status=bogus",
			listFn: func(q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
				return nil, fmt.Errorf("unknown status")
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "forbidden - another user's account",
			url:  "/v1/accounts/2099999999/transactions",
			listFn: func(q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
				return nil, fmt.Errorf("forbidden")
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "not found - account does not exist",
			url:  "/v1/accounts/2000000000/transactions",
			listFn: func(q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
				return nil, fmt.Errorf("account not found")
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{listFn: tt.listFn}, "usr-001")
			w := txDoRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
