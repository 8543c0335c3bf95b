package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/middleware"
	"github.com/eaglebank/bank-api/shared/models"
	"github.com/gin-gonic/gin"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.Account, error)
	UpdateAccount(context.Context, cqrs.UpdateAccountCommand) (*models.Account, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.AccountView, error)
	ListAccounts(context.Context, cqrs.ListAccountsQuery) ([]models.AccountView, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

type CreateAccountRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	AccountType string `json:"accountType" validate:"required"`
}

type UpdateAccountRequest struct {
	Name        string `json:"name" validate:"omitempty,max=100"`
	AccountType string `json:"accountType"`
}

type ListAccountsResponse struct {
	Accounts []models.AccountView `json:"accounts"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}

	var req CreateAccountRequest
	if !bindRequest(c, &req) {
		return
	}

	account, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		UserID:      userID,
		Name:        req.Name,
		AccountType: req.AccountType,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewAccountView(account))
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}

	views, err := h.queries.ListAccounts(c.Request.Context(), cqrs.ListAccountsQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: views})
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}

	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if !bindRequest(c, &req) {
		return
	}

	account, err := h.commands.UpdateAccount(c.Request.Context(), cqrs.UpdateAccountCommand{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
		Name:             req.Name,
		AccountType:      req.AccountType,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewAccountView(account))
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}

	err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
