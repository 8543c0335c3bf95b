// Package query holds the read-side services.
package query

import (
	"context"
	"fmt"

	"github.com/eaglebank/bank-api/internal/ownership"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/models"
)

// AccountQueryService serves account reads straight from the store so that
// balances are never stale.
type AccountQueryService struct {
	store repository.Store
}

func NewAccountQueryService(store repository.Store) *AccountQueryService {
	return &AccountQueryService{store: store}
}

func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	account, err := ownership.Resolve(ctx, s.store.Accounts(), q.AccountNumber, q.RequestingUserID)
	if err != nil {
		return nil, err
	}
	return models.NewAccountView(account), nil
}

func (s *AccountQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	accounts, err := s.store.Accounts().FindAllByOwner(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	views := make([]models.AccountView, len(accounts))
	for i := range accounts {
		views[i] = *models.NewAccountView(&accounts[i])
	}
	return views, nil
}
