package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/middleware"
	"github.com/openbank/openbank/internal/models"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(cqrs.CreateAccountCommand) (*models.Account, error)
	UpdateAccount(cqrs.UpdateAccountCommand) (*models.AccountView, error)
	CloseAccount(cqrs.CloseAccountCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetAccount(cqrs.GetAccountQuery) (*models.AccountView, error)
	ListAccounts(cqrs.ListAccountsQuery) ([]models.AccountView, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

type CreateAccountRequest struct {
	AccountType string `json:"accountType" validate:"required,oneof=checking savings"`
}

type UpdateAccountRequest struct {
	Status string `json:"status" validate:"required,oneof=active frozen"`
}

type ListAccountsResponse struct {
	Accounts []any `json:"accounts"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.commands.CreateAccount(cqrs.CreateAccountCommand{
		UserID:      userID,
		AccountType: req.AccountType,
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	views, err := h.queries.ListAccounts(cqrs.ListAccountsQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	accountsAny := make([]any, len(views))
	for i, v := range views {
		accountsAny[i] = v
	}
	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: accountsAny})
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetAccount(cqrs.GetAccountQuery{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
	})
	if err != nil {
		if err.Error() == "forbidden" {
			middleware.RespondWithError(c, http.StatusForbidden, "You can only access your own accounts")
			return
		}
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	userID, _ := middleware.GetUserID(c)

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, err := h.commands.UpdateAccount(cqrs.UpdateAccountCommand{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
		Status:           req.Status,
	})
	if err != nil {
		switch err.Error() {
		case "account not found":
			middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		case "forbidden":
			middleware.RespondWithError(c, http.StatusForbidden, "You can only update your own accounts")
		case "account closed":
			middleware.RespondWithError(c, http.StatusConflict, "Account is closed")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to update account")
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) CloseAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	userID, _ := middleware.GetUserID(c)

	err := h.commands.CloseAccount(cqrs.CloseAccountCommand{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
	})
	if err != nil {
		switch err.Error() {
		case "account not found":
			middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		case "forbidden":
			middleware.RespondWithError(c, http.StatusForbidden, "You can only close your own accounts")
		case "account closed":
			middleware.RespondWithError(c, http.StatusConflict, "Account is already closed")
		case "account not empty":
			middleware.RespondWithError(c, http.StatusConflict, "Account balance must be zero before closing")
		default:
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to close account")
		}
		return
	}

	c.Status(http.StatusNoContent)
}
