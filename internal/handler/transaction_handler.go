package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/middleware"
	"github.com/eaglebank/bank-api/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	CreateTransaction(context.Context, cqrs.CreateTransactionCommand) (*models.Transaction, error)
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	GetTransaction(context.Context, cqrs.GetTransactionQuery) (*models.TransactionView, error)
	ListTransactions(context.Context, cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
}

type TransactionHandler struct {
	commands  TransactionCommander
	queries   TransactionQuerier
	maxAmount decimal.Decimal
}

type CreateTransactionRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Currency  string          `json:"currency" validate:"required,iso4217"`
	Type      string          `json:"type" validate:"required,oneof=deposit withdrawal"`
	Reference string          `json:"reference" validate:"max=140"`
}

type ListTransactionsResponse struct {
	Transactions []models.TransactionView `json:"transactions"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier, maxAmount decimal.Decimal) *TransactionHandler {
	return &TransactionHandler{commands: commands, queries: queries, maxAmount: maxAmount}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if !bindRequest(c, &req) {
		return
	}
	if !req.Amount.Equal(req.Amount.Round(2)) || req.Amount.GreaterThan(h.maxAmount) {
		middleware.RespondWithAppError(c, apperr.ErrInvalidAmount)
		return
	}

	transaction, err := h.commands.CreateTransaction(c.Request.Context(), cqrs.CreateTransactionCommand{
		AccountNumber: accountNumber,
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Type:          req.Type,
		Reference:     req.Reference,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewTransactionView(transaction))
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}

	views, err := h.queries.ListTransactions(c.Request.Context(), cqrs.ListTransactionsQuery{
		AccountNumber: accountNumber,
		UserID:        userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: views})
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	accountNumber, ok := accountNumberParam(c)
	if !ok {
		return
	}

	view, err := h.queries.GetTransaction(c.Request.Context(), cqrs.GetTransactionQuery{
		TransactionID: c.Param("transactionId"),
		AccountNumber: accountNumber,
		UserID:        userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
