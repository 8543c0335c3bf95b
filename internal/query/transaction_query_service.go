package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/internal/ownership"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/models"
)

// TransactionQueryService serves transaction reads. Ownership of the account
// is resolved before anything about its transactions is revealed.
type TransactionQueryService struct {
	store repository.Store
}

func NewTransactionQueryService(store repository.Store) *TransactionQueryService {
	return &TransactionQueryService{store: store}
}

// GetTransaction reports a transaction that belongs to a different account
// as not found.
func (s *TransactionQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	account, err := ownership.Resolve(ctx, s.store.Accounts(), q.AccountNumber, q.UserID)
	if err != nil {
		return nil, err
	}
	t, err := s.store.Transactions().FindByIDAndAccount(ctx, q.TransactionID, account.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return models.NewTransactionView(t), nil
}

// ListTransactions returns the account history, newest first.
func (s *TransactionQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	account, err := ownership.Resolve(ctx, s.store.Accounts(), q.AccountNumber, q.UserID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.store.Transactions().FindAllByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	views := make([]models.TransactionView, len(transactions))
	for i := range transactions {
		views[i] = *models.NewTransactionView(&transactions[i])
	}
	return views, nil
}
