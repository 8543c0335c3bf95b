// Package repository defines the persistence contracts implemented by the
// memory and postgres stores.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/eaglebank/bank-api/shared/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenced means a delete was refused because other records point at the row.
	ErrReferenced = errors.New("record still referenced")
)

// Ownership is the outcome of resolving an account number for a caller.
type Ownership int

const (
	Absent Ownership = iota
	Owned
	ExistsElsewhere
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case ExistsElsewhere:
		return "exists_elsewhere"
	default:
		return "absent"
	}
}

type AccountRepository interface {
	FindByNumber(ctx context.Context, number string) (*models.Account, error)
	// Resolve classifies the caller against the account from a single read.
	// The account is returned only when the outcome is Owned.
	Resolve(ctx context.Context, number, userID string) (Ownership, *models.Account, error)
	// ResolveForUpdate is Resolve that also holds the account exclusively
	// until the surrounding transaction ends. Outside WithTx it behaves like Resolve.
	ResolveForUpdate(ctx context.Context, number, userID string) (Ownership, *models.Account, error)
	FindAllByOwner(ctx context.Context, userID string) ([]models.Account, error)
	CountByOwner(ctx context.Context, userID string) (int, error)
	// Insert assigns account.ID. A taken account number yields ErrDuplicate
	// and an owner that no longer exists yields ErrNotFound.
	Insert(ctx context.Context, account *models.Account) error
	// Update persists Name, AccountType and UpdatedAt.
	Update(ctx context.Context, account *models.Account) error
	ReplaceBalance(ctx context.Context, id int64, balance decimal.Decimal, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

type TransactionRepository interface {
	Insert(ctx context.Context, transaction *models.Transaction) error
	// FindAllByAccount returns newest first.
	FindAllByAccount(ctx context.Context, accountID int64) ([]models.Transaction, error)
	FindByIDAndAccount(ctx context.Context, id string, accountID int64) (*models.Transaction, error)
}

type UserRepository interface {
	// Create yields ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// Delete yields ErrReferenced while the user still owns accounts.
	Delete(ctx context.Context, id string) error
}

// Store groups the repositories behind one unit of work.
type Store interface {
	Accounts() AccountRepository
	Transactions() TransactionRepository
	Users() UserRepository
	// WithTx runs fn against a transactional view of the store. Writes made
	// through tx become visible together when fn returns nil and are
	// discarded otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
