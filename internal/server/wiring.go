package server

import (
	"log/slog"

	"github.com/eaglebank/bank-api/internal/auth"
	"github.com/eaglebank/bank-api/internal/command"
	"github.com/eaglebank/bank-api/internal/handler"
	"github.com/eaglebank/bank-api/internal/query"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/models"
	sharedredis "github.com/eaglebank/bank-api/shared/redis"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Dependencies struct {
	Store     repository.Store
	UserCache sharedredis.Cache[models.UserView]
	Publisher command.EventPublisher
	Tokens    *auth.TokenManager
	Currency  string
	MaxAmount decimal.Decimal
	Logger    *slog.Logger
}

// NewApp wires the command and query services behind the HTTP router.
func NewApp(d Dependencies) *gin.Engine {
	userCommands := command.NewUserCommandService(d.Store, d.UserCache, d.Publisher, d.Logger)
	userQueries := query.NewUserQueryService(d.Store, d.UserCache)
	accountCommands := command.NewAccountCommandService(d.Store, d.Publisher, d.Logger, d.Currency)
	accountQueries := query.NewAccountQueryService(d.Store)
	transactionCommands := command.NewTransactionCommandService(d.Store, d.Publisher, d.Logger)
	transactionQueries := query.NewTransactionQueryService(d.Store)
	authQueries := query.NewAuthQueryService(d.Store, d.Tokens)

	handlers := Handlers{
		Auth:         handler.NewAuthHandler(authQueries),
		Users:        handler.NewUserHandler(userCommands, userQueries),
		Accounts:     handler.NewAccountHandler(accountCommands, accountQueries),
		Transactions: handler.NewTransactionHandler(transactionCommands, transactionQueries, d.MaxAmount),
	}
	authn := auth.NewAuthenticator(d.Tokens, userQueries)

	return NewRouter(handlers, authn, d.Store, d.Logger)
}
