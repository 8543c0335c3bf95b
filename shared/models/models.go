package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Address struct {
	Line1    string `json:"line1" validate:"required"`
	Line2    string `json:"line2,omitempty"`
	Line3    string `json:"line3,omitempty"`
	Town     string `json:"town" validate:"required"`
	County   string `json:"county" validate:"required"`
	Postcode string `json:"postcode" validate:"required"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PhoneNumber  string    `json:"phoneNumber"`
	Address      Address   `json:"address"`
	CreatedAt    time.Time `json:"createdTimestamp"`
	UpdatedAt    time.Time `json:"updatedTimestamp"`
}

type AccountType string

const (
	AccountTypePersonal AccountType = "personal"
	AccountTypeBusiness AccountType = "business"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
)

// ParseAccountType accepts any letter case.
func ParseAccountType(s string) (AccountType, bool) {
	switch t := AccountType(strings.ToLower(strings.TrimSpace(s))); t {
	case AccountTypePersonal, AccountTypeBusiness, AccountTypeSavings, AccountTypeChecking:
		return t, true
	}
	return "", false
}

// Account is the write model. ID is assigned by the store and never leaves
// the service; clients address accounts by AccountNumber.
type Account struct {
	ID            int64
	UserID        string
	AccountNumber string
	SortCode      string
	Name          string
	AccountType   AccountType
	Balance       decimal.Decimal
	Currency      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

func ParseTransactionType(s string) (TransactionType, bool) {
	switch t := TransactionType(s); t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal:
		return t, true
	}
	return "", false
}

// Transaction is immutable once stored.
type Transaction struct {
	ID        string
	AccountID int64
	UserID    string
	Amount    decimal.Decimal
	Currency  string
	Type      TransactionType
	Reference string
	CreatedAt time.Time
}

// Signed returns the amount as it applies to the balance.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionTypeWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}
