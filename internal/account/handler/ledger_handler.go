package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/middleware"
	"github.com/openbank/openbank/internal/models"
)

// LedgerCommander defines the internal ledger operations used by LedgerHandler.
type LedgerCommander interface {
	Debit(cqrs.DebitCommand) (*models.Account, error)
	Credit(cqrs.CreditCommand) (*models.Account, error)
}

// InternalAccountQuerier serves the unscoped account lookup for other services.
type InternalAccountQuerier interface {
	GetAccountInternal(accountNumber string) (*models.AccountView, error)
}

// LedgerHandler exposes the internal (service-to-service) ledger API. These
// routes are not JWT-protected; they must only be reachable on the internal
// network.
type LedgerHandler struct {
	commands LedgerCommander
	queries  InternalAccountQuerier
}

type LedgerRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	TransactionID string  `json:"transactionId" validate:"required"`
}

// InternalAccountResponse includes UserID, which the public API never
// serialises. The transaction service needs it for ownership checks.
type InternalAccountResponse struct {
	AccountNumber string  `json:"accountNumber"`
	UserID        string  `json:"userId"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
}

func NewLedgerHandler(commands LedgerCommander, queries InternalAccountQuerier) *LedgerHandler {
	return &LedgerHandler{commands: commands, queries: queries}
}

func (h *LedgerHandler) GetAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")

	view, err := h.queries.GetAccountInternal(accountNumber)
	if err != nil {
		// A store fault must not read as a missing account: the transaction
		// service treats 404 as a terminal failure, not a retryable one.
		if err.Error() == "account not found" {
			middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to load account")
		return
	}

	c.JSON(http.StatusOK, InternalAccountResponse{
		AccountNumber: view.AccountNumber,
		UserID:        view.UserID,
		Balance:       view.Balance,
		Currency:      view.Currency,
		Status:        view.Status,
	})
}

func (h *LedgerHandler) Debit(c *gin.Context) {
	accountNumber := c.Param("accountNumber")

	var req LedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.commands.Debit(cqrs.DebitCommand{
		AccountNumber: accountNumber,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *LedgerHandler) Credit(c *gin.Context) {
	accountNumber := c.Param("accountNumber")

	var req LedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.commands.Credit(cqrs.CreditCommand{
		AccountNumber: accountNumber,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func respondLedgerError(c *gin.Context, err error) {
	switch err.Error() {
	case "account not found":
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
	case "insufficient funds":
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Insufficient funds")
	case "account not active":
		middleware.RespondWithError(c, http.StatusConflict, "Account is not active")
	case "amount must be greater than zero":
		middleware.RespondWithError(c, http.StatusBadRequest, "Amount must be greater than zero")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, "Ledger operation failed")
	}
}
