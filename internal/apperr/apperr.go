// Package apperr holds the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"net/http"
)

type Code string

const (
	NotFound          Code = "not_found"
	Forbidden         Code = "forbidden"
	Validation        Code = "validation_failed"
	Conflict          Code = "conflict"
	InsufficientFunds Code = "insufficient_funds"
	Unauthenticated   Code = "unauthenticated"
	Internal          Code = "internal_error"
)

// Error is a classified failure. Message is safe to return to clients.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrAccountNotFound     = New(NotFound, "Bank account was not found")
	ErrAccountForbidden    = New(Forbidden, "The user is not allowed to access the bank account")
	ErrTransactionNotFound = New(NotFound, "Transaction was not found")
	ErrUserNotFound        = New(NotFound, "User was not found")
	ErrUserForbidden       = New(Forbidden, "The user is not allowed to access this user's details")
	ErrUserHasAccounts     = New(Conflict, "A user cannot be deleted when they are associated with a bank account")
	ErrEmailTaken          = New(Conflict, "A user with this email already exists")

	ErrCurrencyMismatch       = New(Validation, "Currency does not match the account currency")
	ErrInvalidTransactionType = New(Validation, "Transaction type must be deposit or withdrawal")
	ErrInvalidAccountType     = New(Validation, "Account type must be personal, business, savings or checking")
	ErrInvalidAmount          = New(Validation, "Amount is outside the permitted range")
	ErrInsufficientFunds      = New(InsufficientFunds, "Insufficient funds to process transaction")

	ErrUnauthenticated    = New(Unauthenticated, "Access token is missing or invalid")
	ErrInvalidCredentials = New(Unauthenticated, "Invalid credentials")
)

// CodeOf returns the classification of err, or Internal when err is not an *Error.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Internal
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case InsufficientFunds:
		return http.StatusUnprocessableEntity
	case Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
