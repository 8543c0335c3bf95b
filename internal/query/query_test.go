package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/internal/auth"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/internal/repository/memory"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/models"
	sharedredis "github.com/eaglebank/bank-api/shared/redis"
	"github.com/eaglebank/bank-api/shared/utils"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func seedAccount(t *testing.T, store *memory.Store, number, owner, balance string) *models.Account {
	t.Helper()
	a := &models.Account{
		UserID:        owner,
		AccountNumber: number,
		SortCode:      "10-10-10",
		Name:          "Main",
		AccountType:   models.AccountTypePersonal,
		Balance:       decimal.RequireFromString(balance),
		Currency:      "GBP",
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}
	require.NoError(t, store.Accounts().Insert(context.Background(), a))
	return a
}

func seedTransaction(t *testing.T, store *memory.Store, id string, account *models.Account, offset time.Duration) {
	t.Helper()
	require.NoError(t, store.Transactions().Insert(context.Background(), &models.Transaction{
		ID:        id,
		AccountID: account.ID,
		UserID:    account.UserID,
		Amount:    decimal.RequireFromString("10.00"),
		Currency:  "GBP",
		Type:      models.TransactionTypeDeposit,
		CreatedAt: t0.Add(offset),
	}))
}

func TestGetAccount(t *testing.T) {
	store := memory.NewStore()
	seedAccount(t, store, "01000001", "usr-1", "12.5")
	svc := NewAccountQueryService(store)

	tests := []struct {
		name        string
		number      string
		userID      string
		expectedErr error
	}{
		{"owner", "01000001", "usr-1", nil},
		{"other user", "01000001", "usr-2", apperr.ErrAccountForbidden},
		{"missing", "01999999", "usr-1", apperr.ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.GetAccount(context.Background(), cqrs.GetAccountQuery{
				AccountNumber: tt.number, RequestingUserID: tt.userID,
			})
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "12.50", view.Balance.StringFixed(2))
			assert.Equal(t, "10-10-10", view.SortCode)
		})
	}
}

func TestListAccounts(t *testing.T) {
	store := memory.NewStore()
	seedAccount(t, store, "01000001", "usr-1", "0")
	seedAccount(t, store, "01000002", "usr-1", "0")
	seedAccount(t, store, "01000003", "usr-2", "0")
	svc := NewAccountQueryService(store)

	views, err := svc.ListAccounts(context.Background(), cqrs.ListAccountsQuery{UserID: "usr-1"})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "01000001", views[0].AccountNumber)
	assert.Equal(t, "01000002", views[1].AccountNumber)

	views, err = svc.ListAccounts(context.Background(), cqrs.ListAccountsQuery{UserID: "usr-3"})
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestListTransactions(t *testing.T) {
	store := memory.NewStore()
	a := seedAccount(t, store, "01000001", "usr-1", "20")
	seedTransaction(t, store, "tan-old", a, 0)
	seedTransaction(t, store, "tan-new", a, time.Minute)
	svc := NewTransactionQueryService(store)

	views, err := svc.ListTransactions(context.Background(), cqrs.ListTransactionsQuery{AccountNumber: "01000001", UserID: "usr-1"})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "tan-new", views[0].ID)
	assert.Equal(t, "tan-old", views[1].ID)

	_, err = svc.ListTransactions(context.Background(), cqrs.ListTransactionsQuery{AccountNumber: "01000001", UserID: "usr-2"})
	assert.ErrorIs(t, err, apperr.ErrAccountForbidden)

	_, err = svc.ListTransactions(context.Background(), cqrs.ListTransactionsQuery{AccountNumber: "01000009", UserID: "usr-1"})
	assert.ErrorIs(t, err, apperr.ErrAccountNotFound)
}

func TestGetTransaction(t *testing.T) {
	store := memory.NewStore()
	a := seedAccount(t, store, "01000001", "usr-1", "10")
	b := seedAccount(t, store, "01000002", "usr-1", "10")
	seedTransaction(t, store, "tan-a", a, 0)
	seedTransaction(t, store, "tan-b", b, 0)
	svc := NewTransactionQueryService(store)

	tests := []struct {
		name        string
		number      string
		userID      string
		id          string
		expectedErr error
	}{
		{"own transaction", "01000001", "usr-1", "tan-a", nil},
		{"transaction of another account", "01000001", "usr-1", "tan-b", apperr.ErrTransactionNotFound},
		{"unknown transaction", "01000001", "usr-1", "tan-zzz", apperr.ErrTransactionNotFound},
		{"account of another user", "01000001", "usr-2", "tan-a", apperr.ErrAccountForbidden},
		{"unknown account", "01000009", "usr-1", "tan-a", apperr.ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.GetTransaction(context.Background(), cqrs.GetTransactionQuery{
				TransactionID: tt.id, AccountNumber: tt.number, UserID: tt.userID,
			})
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, view.ID)
			assert.Equal(t, "usr-1", view.UserID)
		})
	}
}

func newCache(t *testing.T) *sharedredis.ViewCache[models.UserView] {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return sharedredis.NewViewCache[models.UserView](client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedUser(t *testing.T, store *memory.Store, id, email, password string) {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(context.Background(), &models.User{
		ID: id, Name: "Ada", Email: email, PasswordHash: hash, CreatedAt: t0, UpdatedAt: t0,
	}))
}

func TestGetUser(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "usr-1", "ada@example.com", "pw")
	seedUser(t, store, "usr-2", "bob@example.com", "pw")
	cache := newCache(t)
	svc := NewUserQueryService(store, cache)

	view, err := svc.GetUser(context.Background(), cqrs.GetUserQuery{UserID: "usr-1", RequestingUserID: "usr-1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", view.Email)

	cached, ok := cache.Get(context.Background(), sharedredis.UserViewKey("usr-1"))
	require.True(t, ok)
	assert.Equal(t, "usr-1", cached.ID)

	_, err = svc.GetUser(context.Background(), cqrs.GetUserQuery{UserID: "usr-2", RequestingUserID: "usr-1"})
	assert.ErrorIs(t, err, apperr.ErrUserForbidden)

	_, err = svc.GetUser(context.Background(), cqrs.GetUserQuery{UserID: "usr-9", RequestingUserID: "usr-1"})
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestGetUserPrefersCache(t *testing.T) {
	cache := newCache(t)
	cache.Set(context.Background(), sharedredis.UserViewKey("usr-1"), &models.UserView{ID: "usr-1", Name: "Cached"})
	svc := NewUserQueryService(memory.NewStore(), cache)

	view, err := svc.GetUser(context.Background(), cqrs.GetUserQuery{UserID: "usr-1", RequestingUserID: "usr-1"})
	require.NoError(t, err)
	assert.Equal(t, "Cached", view.Name)
}

func TestResolvePrincipal(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "usr-1", "ada@example.com", "pw")
	svc := NewUserQueryService(store, sharedredis.NopCache[models.UserView]{})

	view, err := svc.ResolvePrincipal(context.Background(), "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", view.ID)

	_, err = svc.ResolvePrincipal(context.Background(), "usr-gone")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestLogin(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "usr-1", "ada@example.com", "correct-horse")
	tokens := auth.NewTokenManager("secret", time.Hour)
	svc := NewAuthQueryService(store, tokens)

	token, err := svc.Login(context.Background(), cqrs.LoginCommand{Email: "Ada@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)

	_, err = svc.Login(context.Background(), cqrs.LoginCommand{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), cqrs.LoginCommand{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "usr-1", "ada@example.com", "pw")
	tokens := auth.NewTokenManager("secret", time.Hour)
	svc := NewAuthQueryService(store, tokens)

	token, err := tokens.Generate("usr-1", "ada@example.com")
	require.NoError(t, err)
	refreshed, err := svc.RefreshToken(context.Background(), cqrs.RefreshTokenCommand{Token: token})
	require.NoError(t, err)
	_, err = tokens.Parse(refreshed)
	require.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), cqrs.RefreshTokenCommand{Token: "junk"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	orphan, err := tokens.Generate("usr-gone", "gone@example.com")
	require.NoError(t, err)
	_, err = svc.RefreshToken(context.Background(), cqrs.RefreshTokenCommand{Token: orphan})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

type brokenUsers struct {
	repository.UserRepository
}

func (brokenUsers) GetByID(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection reset")
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) Users() repository.UserRepository { return brokenUsers{} }

func TestGetUserStoreFailureIsInternal(t *testing.T) {
	svc := NewUserQueryService(brokenStore{memory.NewStore()}, sharedredis.NopCache[models.UserView]{})
	_, err := svc.GetUser(context.Background(), cqrs.GetUserQuery{UserID: "usr-1", RequestingUserID: "usr-1"})
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.CodeOf(err))
}
