package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/internal/ownership"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/events"
	"github.com/eaglebank/bank-api/shared/models"
	"github.com/eaglebank/bank-api/shared/utils"
	"github.com/shopspring/decimal"
)

const accountNumberAttempts = 5

// AccountCommandService opens, renames and closes accounts.
type AccountCommandService struct {
	store     repository.Store
	publisher EventPublisher
	logger    *slog.Logger
	currency  string
	now       func() time.Time
	newNumber func() string
}

func NewAccountCommandService(store repository.Store, publisher EventPublisher, logger *slog.Logger, currency string) *AccountCommandService {
	return &AccountCommandService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		currency:  currency,
		now:       time.Now,
		newNumber: utils.GenerateAccountNumber,
	}
}

// CreateAccount opens a zero-balance account. A generated number that is
// already taken is replaced and the insert retried.
func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	accountType, ok := models.ParseAccountType(cmd.AccountType)
	if !ok {
		return nil, apperr.ErrInvalidAccountType
	}

	now := s.now().UTC()
	account := &models.Account{
		UserID:      cmd.UserID,
		SortCode:    utils.GenerateSortCode(),
		Name:        cmd.Name,
		AccountType: accountType,
		Balance:     decimal.Zero,
		Currency:    s.currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var err error
	for attempt := 1; attempt <= accountNumberAttempts; attempt++ {
		account.AccountNumber = s.newNumber()
		err = s.store.Accounts().Insert(ctx, account)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		s.logger.Debug("account number collision", "attempt", attempt)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account created", "account_number", account.AccountNumber, "user_id", account.UserID)
	publish(ctx, s.logger, s.publisher, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
		Name:          account.Name,
		AccountType:   string(account.AccountType),
	})
	return account, nil
}

// UpdateAccount changes the name and type. Empty fields keep their value.
func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*models.Account, error) {
	var accountType models.AccountType
	if cmd.AccountType != "" {
		t, ok := models.ParseAccountType(cmd.AccountType)
		if !ok {
			return nil, apperr.ErrInvalidAccountType
		}
		accountType = t
	}

	var updated *models.Account
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		account, err := ownership.ResolveForUpdate(ctx, tx.Accounts(), cmd.AccountNumber, cmd.RequestingUserID)
		if err != nil {
			return err
		}
		if cmd.Name != "" {
			account.Name = cmd.Name
		}
		if accountType != "" {
			account.AccountType = accountType
		}
		account.UpdatedAt = s.now().UTC()
		if err := tx.Accounts().Update(ctx, account); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.logger, s.publisher, events.AccountEventsStream, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountNumber: updated.AccountNumber,
		UserID:        updated.UserID,
		Name:          updated.Name,
		AccountType:   string(updated.AccountType),
	})
	return updated, nil
}

// DeleteAccount closes the account. Its transactions are retained.
func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	var deleted *models.Account
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		account, err := ownership.ResolveForUpdate(ctx, tx.Accounts(), cmd.AccountNumber, cmd.RequestingUserID)
		if err != nil {
			return err
		}
		if err := tx.Accounts().Delete(ctx, account.ID); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		deleted = account
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", "account_number", deleted.AccountNumber, "user_id", deleted.UserID)
	publish(ctx, s.logger, s.publisher, events.AccountEventsStream, events.AccountDeleted, events.AccountDeletedEvent{
		AccountNumber: deleted.AccountNumber,
		UserID:        deleted.UserID,
	})
	return nil
}
