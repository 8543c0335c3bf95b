package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money renders as a JSON number with two decimal places.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UserView is the read-optimised projection of a user.
// It never exposes PasswordHash.
type UserView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     Address   `json:"address"`
	CreatedAt   time.Time `json:"createdTimestamp"`
	UpdatedAt   time.Time `json:"updatedTimestamp"`
}

// AccountView is the API projection of an account.
type AccountView struct {
	AccountNumber string      `json:"accountNumber"`
	SortCode      string      `json:"sortCode"`
	Name          string      `json:"name"`
	AccountType   AccountType `json:"accountType"`
	Balance       Money       `json:"balance"`
	Currency      string      `json:"currency"`
	CreatedAt     time.Time   `json:"createdTimestamp"`
	UpdatedAt     time.Time   `json:"updatedTimestamp"`
}

// TransactionView is the API projection of a transaction.
type TransactionView struct {
	ID        string          `json:"id"`
	Amount    Money           `json:"amount"`
	Currency  string          `json:"currency"`
	Type      TransactionType `json:"type"`
	Reference string          `json:"reference,omitempty"`
	UserID    string          `json:"userId"`
	CreatedAt time.Time       `json:"createdTimestamp"`
}

func NewUserView(u *User) *UserView {
	return &UserView{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func NewAccountView(a *Account) *AccountView {
	return &AccountView{
		AccountNumber: a.AccountNumber,
		SortCode:      a.SortCode,
		Name:          a.Name,
		AccountType:   a.AccountType,
		Balance:       NewMoney(a.Balance),
		Currency:      a.Currency,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func NewTransactionView(t *Transaction) *TransactionView {
	return &TransactionView{
		ID:        t.ID,
		Amount:    NewMoney(t.Amount),
		Currency:  t.Currency,
		Type:      t.Type,
		Reference: t.Reference,
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt,
	}
}
