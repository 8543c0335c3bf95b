package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/models"
	"github.com/shopspring/decimal"
)

type accountRepository struct {
	store *Store
}

func (st *state) accountByNumber(number string) *models.Account {
	id, ok := st.byNumber[number]
	if !ok {
		return nil
	}
	a := *st.accounts[id]
	return &a
}

func classify(a *models.Account, userID string) (repository.Ownership, *models.Account) {
	switch {
	case a == nil:
		return repository.Absent, nil
	case a.UserID == userID:
		return repository.Owned, a
	default:
		return repository.ExistsElsewhere, nil
	}
}

func accountMissing(id int64) func(st *state) error {
	return func(st *state) error {
		if _, ok := st.accounts[id]; !ok {
			return fmt.Errorf("account %d: %w", id, repository.ErrNotFound)
		}
		return nil
	}
}

func (r *accountRepository) FindByNumber(_ context.Context, number string) (*models.Account, error) {
	st := r.store.state
	st.mu.RLock()
	defer st.mu.RUnlock()

	a := st.accountByNumber(number)
	if a == nil {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (r *accountRepository) Resolve(_ context.Context, number, userID string) (repository.Ownership, *models.Account, error) {
	st := r.store.state
	st.mu.RLock()
	defer st.mu.RUnlock()

	o, a := classify(st.accountByNumber(number), userID)
	return o, a, nil
}

func (r *accountRepository) ResolveForUpdate(ctx context.Context, number, userID string) (repository.Ownership, *models.Account, error) {
	uow := r.store.uow
	if uow == nil {
		return r.Resolve(ctx, number, userID)
	}

	st := r.store.state
	st.mu.RLock()
	id, ok := st.byNumber[number]
	st.mu.RUnlock()
	if !ok {
		return repository.Absent, nil, nil
	}

	if err := uow.lock(ctx, r.store.locks, id); err != nil {
		return repository.Absent, nil, err
	}

	// re-read: the account may have gone while we waited
	st.mu.RLock()
	var current *models.Account
	if a, ok := st.accounts[id]; ok {
		cp := *a
		current = &cp
	}
	st.mu.RUnlock()

	o, a := classify(current, userID)
	return o, a, nil
}

func (r *accountRepository) FindAllByOwner(_ context.Context, userID string) ([]models.Account, error) {
	st := r.store.state
	st.mu.RLock()
	defer st.mu.RUnlock()

	accounts := make([]models.Account, 0)
	for _, a := range st.accounts {
		if a.UserID == userID {
			accounts = append(accounts, *a)
		}
	}
	slices.SortFunc(accounts, func(a, b models.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return accounts, nil
}

func (r *accountRepository) CountByOwner(_ context.Context, userID string) (int, error) {
	st := r.store.state
	st.mu.RLock()
	defer st.mu.RUnlock()

	n := 0
	for _, a := range st.accounts {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *accountRepository) Insert(_ context.Context, account *models.Account) error {
	id := r.store.nextID.Add(1)
	stored := *account
	stored.ID = id

	err := r.store.write(op{
		check: func(st *state) error {
			if _, taken := st.byNumber[stored.AccountNumber]; taken {
				return fmt.Errorf("account number %s: %w", stored.AccountNumber, repository.ErrDuplicate)
			}
			if _, gone := st.removed[stored.UserID]; gone {
				return fmt.Errorf("owner %s: %w", stored.UserID, repository.ErrNotFound)
			}
			return nil
		},
		apply: func(st *state) {
			a := stored
			st.accounts[id] = &a
			st.byNumber[a.AccountNumber] = id
		},
	})
	if err != nil {
		return err
	}
	account.ID = id
	return nil
}

func (r *accountRepository) Update(_ context.Context, account *models.Account) error {
	id, name, accountType, updatedAt := account.ID, account.Name, account.AccountType, account.UpdatedAt
	return r.store.write(op{
		check: accountMissing(id),
		apply: func(st *state) {
			a := st.accounts[id]
			a.Name = name
			a.AccountType = accountType
			a.UpdatedAt = updatedAt
		},
	})
}

func (r *accountRepository) ReplaceBalance(_ context.Context, id int64, balance decimal.Decimal, updatedAt time.Time) error {
	return r.store.write(op{
		check: accountMissing(id),
		apply: func(st *state) {
			a := st.accounts[id]
			a.Balance = balance
			a.UpdatedAt = updatedAt
		},
	})
}

// Delete leaves the account's transactions in place. Outside a unit of work
// it takes the account lock so it cannot interleave with a mutation.
func (r *accountRepository) Delete(ctx context.Context, id int64) error {
	if r.store.uow == nil {
		release, err := r.store.locks.acquire(ctx, id)
		if err != nil {
			return err
		}
		defer release()
	}
	return r.store.write(op{
		check: accountMissing(id),
		apply: func(st *state) {
			delete(st.byNumber, st.accounts[id].AccountNumber)
			delete(st.accounts, id)
		},
	})
}
