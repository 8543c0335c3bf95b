package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eaglebank/bank-api/internal/auth"
	"github.com/eaglebank/bank-api/internal/repository/memory"
	"github.com/eaglebank/bank-api/shared/events"
	"github.com/eaglebank/bank-api/shared/models"
	sharedredis "github.com/eaglebank/bank-api/shared/redis"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	router http.Handler
	token  string
}

func (c *client) do(method, path, body string) (int, map[string]any) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func newTestApp(t *testing.T) http.Handler {
	gin.SetMode(gin.TestMode)
	return NewApp(Dependencies{
		Store:     memory.NewStore(),
		UserCache: sharedredis.NopCache[models.UserView]{},
		Publisher: events.NopPublisher{},
		Tokens:    auth.NewTokenManager("test-secret", time.Hour),
		Currency:  "GBP",
		MaxAmount: decimal.RequireFromString("10000"),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// signUp registers a user and returns a client authenticated as them.
func signUp(t *testing.T, router http.Handler, email string) (*client, string) {
	t.Helper()
	anon := &client{t: t, router: router}
	status, user := anon.do(http.MethodPost, "/v1/users", `{
		"name": "Test User", "email": "`+email+`", "password": "password123",
		"phoneNumber": "+447911123456",
		"address": {"line1": "1 High St", "town": "London", "county": "London", "postcode": "E1 1AA"}
	}`)
	require.Equal(t, http.StatusCreated, status, user)

	status, login := anon.do(http.MethodPost, "/v1/auth/login", `{"email": "`+email+`", "password": "password123"}`)
	require.Equal(t, http.StatusOK, status, login)
	return &client{t: t, router: router, token: login["token"].(string)}, user["id"].(string)
}

func TestBankingJourney(t *testing.T) {
	router := newTestApp(t)
	alice, aliceID := signUp(t, router, "alice@example.com")
	bob, _ := signUp(t, router, "bob@example.com")

	status, account := alice.do(http.MethodPost, "/v1/accounts", `{"name": "Main", "accountType": "Personal"}`)
	require.Equal(t, http.StatusCreated, status, account)
	number := account["accountNumber"].(string)
	assert.Equal(t, "personal", account["accountType"])
	assert.Equal(t, 0.0, account["balance"])
	txPath := "/v1/accounts/" + number + "/transactions"

	status, deposit := alice.do(http.MethodPost, txPath, `{"amount": 100.00, "currency": "GBP", "type": "deposit"}`)
	require.Equal(t, http.StatusCreated, status, deposit)
	assert.Equal(t, aliceID, deposit["userId"])

	status, _ = alice.do(http.MethodPost, txPath, `{"amount": 150.00, "currency": "GBP", "type": "withdrawal"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = alice.do(http.MethodPost, txPath, `{"amount": 100.00, "currency": "GBP", "type": "withdrawal"}`)
	assert.Equal(t, http.StatusCreated, status)

	status, got := alice.do(http.MethodGet, "/v1/accounts/"+number, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, got["balance"])

	status, history := alice.do(http.MethodGet, txPath, "")
	require.Equal(t, http.StatusOK, status)
	items := history["transactions"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "withdrawal", items[0].(map[string]any)["type"])
	assert.Equal(t, "deposit", items[1].(map[string]any)["type"])

	status, detail := alice.do(http.MethodGet, txPath+"/"+deposit["id"].(string), "")
	assert.Equal(t, http.StatusOK, status, detail)

	status, _ = bob.do(http.MethodGet, "/v1/accounts/"+number, "")
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = bob.do(http.MethodPost, txPath, `{"amount": 1, "currency": "GBP", "type": "deposit"}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = alice.do(http.MethodPost, txPath, `{"amount": 1, "currency": "EUR", "type": "deposit"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = alice.do(http.MethodDelete, "/v1/users/"+aliceID, "")
	assert.Equal(t, http.StatusConflict, status)

	status, _ = alice.do(http.MethodDelete, "/v1/accounts/"+number, "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = alice.do(http.MethodGet, "/v1/accounts/"+number, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = alice.do(http.MethodDelete, "/v1/users/"+aliceID, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = alice.do(http.MethodGet, "/v1/accounts", "")
	assert.Equal(t, http.StatusUnauthorized, status, "token of a deleted user must be rejected")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestApp(t)
	anon := &client{t: t, router: router}

	for _, path := range []string{"/v1/accounts", "/v1/accounts/01234567", "/v1/users/usr-1", "/v1/accounts/01234567/transactions"} {
		status, _ := anon.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}

	forged := &client{t: t, router: router, token: "eyJhbGciOiJIUzI1NiJ9.e30.bad"}
	status, _ := forged.do(http.MethodGet, "/v1/accounts", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, tc := range []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{errors.New("connection refused"), http.StatusServiceUnavailable},
	} {
		router := NewRouter(Handlers{}, nil, pingFunc(func(context.Context) error { return tc.err }), logger)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, tc.status, w.Code)
	}
}
