package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/middleware"
	"github.com/openbank/openbank/internal/models"
)

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	CreateTransaction(cqrs.CreateTransactionCommand) (*models.Transaction, error)
	ProcessTransaction(cqrs.ProcessTransactionCommand) (*models.Transaction, error)
	CancelTransaction(cqrs.CancelTransactionCommand) (*models.Transaction, error)
	RetryTransaction(cqrs.RetryTransactionCommand) (*models.Transaction, error)
	ReverseTransaction(cqrs.ReverseTransactionCommand) (*models.Transaction, error)
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	GetTransaction(cqrs.GetTransactionQuery) (*models.TransactionView, error)
	ListTransactions(cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
}

type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
}

type CreateTransactionRequest struct {
	Type        string  `json:"type" validate:"required,oneof=deposit withdrawal transfer payment refund"`
	FromAccount string  `json:"fromAccount"`
	ToAccount   string  `json:"toAccount"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"required,oneof=USD"`
	Description string  `json:"description" validate:"max=255"`
}

type ListTransactionsResponse struct {
	Transactions []any `json:"transactions"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier) *TransactionHandler {
	return &TransactionHandler{commands: commands, queries: queries}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	transaction, err := h.commands.CreateTransaction(cqrs.CreateTransactionCommand{
		Type:        req.Type,
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		UserID:      userID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		switch err.Error() {
		case "account not found":
			middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		case "forbidden":
			middleware.RespondWithError(c, http.StatusForbidden, "You can only create transactions for your own accounts")
		case "insufficient funds":
			middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Insufficient funds")
		case "account not active":
			middleware.RespondWithError(c, http.StatusConflict, "Account is not active")
		case "fromAccount required", "toAccount required", "accounts must differ",
			"amount must be greater than zero", "unknown transaction type":
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid transaction: "+err.Error())
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create transaction")
		}
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) ProcessTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")
	userID, _ := middleware.GetUserID(c)

	transaction, err := h.commands.ProcessTransaction(cqrs.ProcessTransactionCommand{
		TransactionID: transactionID,
		UserID:        userID,
	})
	if err != nil {
		respondTransactionError(c, err, "process")
		return
	}

	c.JSON(http.StatusOK, transaction)
}

func (h *TransactionHandler) CancelTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")
	userID, _ := middleware.GetUserID(c)

	transaction, err := h.commands.CancelTransaction(cqrs.CancelTransactionCommand{
		TransactionID: transactionID,
		UserID:        userID,
	})
	if err != nil {
		respondTransactionError(c, err, "cancel")
		return
	}

	c.JSON(http.StatusOK, transaction)
}

func (h *TransactionHandler) RetryTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")
	userID, _ := middleware.GetUserID(c)

	transaction, err := h.commands.RetryTransaction(cqrs.RetryTransactionCommand{
		TransactionID: transactionID,
		UserID:        userID,
	})
	if err != nil {
		respondTransactionError(c, err, "retry")
		return
	}

	c.JSON(http.StatusOK, transaction)
}

func (h *TransactionHandler) ReverseTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")
	userID, _ := middleware.GetUserID(c)

	transaction, err := h.commands.ReverseTransaction(cqrs.ReverseTransactionCommand{
		TransactionID: transactionID,
		UserID:        userID,
	})
	if err != nil {
		respondTransactionError(c, err, "reverse")
		return
	}

	c.JSON(http.StatusOK, transaction)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetTransaction(cqrs.GetTransactionQuery{
		TransactionID: transactionID,
		UserID:        userID,
	})
	if err != nil {
		switch err.Error() {
		case "transaction not found":
			middleware.RespondWithError(c, http.StatusNotFound, "Transaction not found")
		case "forbidden":
			middleware.RespondWithError(c, http.StatusForbidden, "You can only view your own transactions")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get transaction")
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	userID, _ := middleware.GetUserID(c)

	views, err := h.queries.ListTransactions(cqrs.ListTransactionsQuery{
		AccountNumber: accountNumber,
		UserID:        userID,
		Status:        c.Query("status"),
	})
	if err != nil {
		switch err.Error() {
		case "account not found":
			middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		case "forbidden":
			middleware.RespondWithError(c, http.StatusForbidden, "You can only view transactions for your own accounts")
		case "unknown status":
			middleware.RespondWithError(c, http.StatusBadRequest, "Unknown status filter")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list transactions")
		}
		return
	}

	transactionsAny := make([]any, len(views))
	for i, v := range views {
		transactionsAny[i] = v
	}
	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: transactionsAny})
}

func respondTransactionError(c *gin.Context, err error, op string) {
	if strings.HasPrefix(err.Error(), "reversal failed") {
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Reversal could not be applied")
		return
	}
	switch err.Error() {
	case "transaction not found":
		middleware.RespondWithError(c, http.StatusNotFound, "Transaction not found")
	case "forbidden":
		middleware.RespondWithError(c, http.StatusForbidden, "You can only "+op+" your own transactions")
	case "invalid status transition":
		middleware.RespondWithError(c, http.StatusConflict, "Transaction status does not allow "+op)
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to "+op+" transaction")
	}
}
