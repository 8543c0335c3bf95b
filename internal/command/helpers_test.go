package command

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/eaglebank/bank-api/internal/repository/memory"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	stream    string
	eventType string
	data      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, stream, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{stream: stream, eventType: eventType, data: data})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.eventType
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	store        *memory.Store
	publisher    *recordingPublisher
	accounts     *AccountCommandService
	transactions *TransactionCommandService
}

func newFixture() *fixture {
	store := memory.NewStore()
	pub := &recordingPublisher{}
	return &fixture{
		store:        store,
		publisher:    pub,
		accounts:     NewAccountCommandService(store, pub, discardLogger(), "GBP"),
		transactions: NewTransactionCommandService(store, pub, discardLogger()),
	}
}

func (f *fixture) openAccount(t *testing.T, userID string) *models.Account {
	t.Helper()
	account, err := f.accounts.CreateAccount(context.Background(), cqrs.CreateAccountCommand{
		UserID:      userID,
		Name:        "Main",
		AccountType: "personal",
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) apply(number, userID, txType, amount string) (*models.Transaction, error) {
	return f.transactions.CreateTransaction(context.Background(), cqrs.CreateTransactionCommand{
		AccountNumber: number,
		UserID:        userID,
		Amount:        dec(amount),
		Currency:      "GBP",
		Type:          txType,
	})
}

func (f *fixture) balance(t *testing.T, number string) decimal.Decimal {
	t.Helper()
	a, err := f.store.Accounts().FindByNumber(context.Background(), number)
	require.NoError(t, err)
	return a.Balance
}
