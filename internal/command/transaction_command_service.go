package command

import (
	"context"
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

// TransactionCommandService applies deposits and withdrawals. The balance
// change and the transaction record are written in one unit of work while
// the account is held exclusively.
type TransactionCommandService struct {
	store     repository.Store
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

func NewTransactionCommandService(store repository.Store, publisher EventPublisher, logger *slog.Logger) *TransactionCommandService {
	return &TransactionCommandService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     utils.GenerateTransactionID,
	}
}

// CreateTransaction expects cmd.Amount to be already validated as positive
// and within the configured ceiling.
func (s *TransactionCommandService) CreateTransaction(ctx context.Context, cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
	txType, ok := models.ParseTransactionType(cmd.Type)
	if !ok {
		return nil, apperr.ErrInvalidTransactionType
	}

	var (
		transaction   *models.Transaction
		accountNumber string
		newBalance    decimal.Decimal
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		account, err := ownership.ResolveForUpdate(ctx, tx.Accounts(), cmd.AccountNumber, cmd.UserID)
		if err != nil {
			return err
		}
		if cmd.Currency != account.Currency {
			return apperr.ErrCurrencyMismatch
		}

		balance := account.Balance
		switch txType {
		case models.TransactionTypeDeposit:
			balance = balance.Add(cmd.Amount)
		case models.TransactionTypeWithdrawal:
			if balance.LessThan(cmd.Amount) {
				return apperr.ErrInsufficientFunds
			}
			balance = balance.Sub(cmd.Amount)
		}

		now := s.now().UTC()
		if err := tx.Accounts().ReplaceBalance(ctx, account.ID, balance, now); err != nil {
			return fmt.Errorf("replace balance: %w", err)
		}

		t := &models.Transaction{
			ID:        s.newID(),
			AccountID: account.ID,
			UserID:    cmd.UserID,
			Amount:    cmd.Amount,
			Currency:  account.Currency,
			Type:      txType,
			Reference: cmd.Reference,
			CreatedAt: now,
		}
		if err := tx.Transactions().Insert(ctx, t); err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}

		transaction = t
		accountNumber = account.AccountNumber
		newBalance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction applied",
		"transaction_id", transaction.ID,
		"account_number", accountNumber,
		"type", transaction.Type,
		"amount", transaction.Amount.StringFixed(2),
	)

	publish(ctx, s.logger, s.publisher, events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID: transaction.ID,
		AccountNumber: accountNumber,
		UserID:        transaction.UserID,
		Amount:        transaction.Amount,
		Type:          string(transaction.Type),
		Currency:      transaction.Currency,
	})
	publish(ctx, s.logger, s.publisher, events.AccountEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountNumber: accountNumber,
		NewBalance:    newBalance,
		Change:        transaction.Signed(),
	})

	return transaction, nil
}
