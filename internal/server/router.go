// Package server assembles the HTTP routes and runs the listener.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/eaglebank/bank-api/internal/handler"
	"github.com/eaglebank/bank-api/shared/middleware"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Accounts     *handler.AccountHandler
	Transactions *handler.TransactionHandler
}

func NewRouter(h Handlers, authn middleware.Authenticator, health Pinger, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		if err := health.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth routes (no authentication required)
	router.POST("/v1/auth/login", h.Auth.Login)
	router.POST("/v1/auth/refresh", h.Auth.RefreshToken)

	// Registration is open
	router.POST("/v1/users", h.Users.CreateUser)

	authed := router.Group("/v1", middleware.AuthMiddleware(authn))
	{
		authed.GET("/users/:userId", h.Users.GetUser)
		authed.PATCH("/users/:userId", h.Users.UpdateUser)
		authed.DELETE("/users/:userId", h.Users.DeleteUser)

		authed.POST("/accounts", h.Accounts.CreateAccount)
		authed.GET("/accounts", h.Accounts.ListAccounts)
		authed.GET("/accounts/:accountNumber", h.Accounts.GetAccount)
		authed.PATCH("/accounts/:accountNumber", h.Accounts.UpdateAccount)
		authed.DELETE("/accounts/:accountNumber", h.Accounts.DeleteAccount)

		authed.POST("/accounts/:accountNumber/transactions", h.Transactions.CreateTransaction)
		authed.GET("/accounts/:accountNumber/transactions", h.Transactions.ListTransactions)
		authed.GET("/accounts/:accountNumber/transactions/:transactionId", h.Transactions.GetTransaction)
	}

	return router
}
