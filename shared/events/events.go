package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"

	AccountCreated = "account.created"
	AccountUpdated = "account.updated"
	AccountDeleted = "account.deleted"

	TransactionCreated = "transaction.created"
	BalanceUpdated     = "balance.updated"
)

// Stream names
const (
	UserEventsStream        = "user.events"
	AccountEventsStream     = "account.events"
	TransactionEventsStream = "transaction.events"
)

// Base event structure
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Decode unmarshals the event payload into T.
func Decode[T any](event Event) (T, error) {
	var v T
	if err := json.Unmarshal(event.Data, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}
	return v, nil
}

// User events
type UserCreatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserUpdatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserDeletedEvent struct {
	UserID string `json:"userId"`
}

// Account events
type AccountCreatedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	AccountType   string `json:"accountType"`
}

type AccountUpdatedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	AccountType   string `json:"accountType"`
}

type AccountDeletedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
}

// Transaction events
type TransactionCreatedEvent struct {
	TransactionID string          `json:"transactionId"`
	AccountNumber string          `json:"accountNumber"`
	UserID        string          `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Currency      string          `json:"currency"`
}

type BalanceUpdatedEvent struct {
	AccountNumber string          `json:"accountNumber"`
	NewBalance    decimal.Decimal `json:"newBalance"`
	Change        decimal.Decimal `json:"change"`
}
