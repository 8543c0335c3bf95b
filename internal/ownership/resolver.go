// Package ownership decides whether a caller may act on an account.
package ownership

import (
	"context"
	"fmt"

	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/models"
)

// Resolve returns the account when userID owns it, ErrAccountForbidden when it
// belongs to someone else and ErrAccountNotFound when it does not exist.
func Resolve(ctx context.Context, accounts repository.AccountRepository, number, userID string) (*models.Account, error) {
	o, account, err := accounts.Resolve(ctx, number, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	return outcome(o, account)
}

// ResolveForUpdate is Resolve holding the account until the surrounding
// transaction ends.
func ResolveForUpdate(ctx context.Context, accounts repository.AccountRepository, number, userID string) (*models.Account, error) {
	o, account, err := accounts.ResolveForUpdate(ctx, number, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve account for update: %w", err)
	}
	return outcome(o, account)
}

func outcome(o repository.Ownership, account *models.Account) (*models.Account, error) {
	switch o {
	case repository.Owned:
		return account, nil
	case repository.ExistsElsewhere:
		return nil, apperr.ErrAccountForbidden
	default:
		return nil, apperr.ErrAccountNotFound
	}
}
