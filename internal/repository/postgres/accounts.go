package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/models"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, account_number, user_id, sort_code, name, account_type, balance, currency, created_at, updated_at`

type accountRepository struct {
	db     executor
	logger *slog.Logger
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.AccountNumber, &a.UserID, &a.SortCode, &a.Name,
		&a.AccountType, &a.Balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) FindByNumber(ctx context.Context, number string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

func (r *accountRepository) Resolve(ctx context.Context, number, userID string) (repository.Ownership, *models.Account, error) {
	return r.resolve(ctx, number, userID, false)
}

func (r *accountRepository) ResolveForUpdate(ctx context.Context, number, userID string) (repository.Ownership, *models.Account, error) {
	return r.resolve(ctx, number, userID, true)
}

// resolve reads the row once and classifies the caller against it.
func (r *accountRepository) resolve(ctx context.Context, number, userID string, lock bool) (repository.Ownership, *models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return repository.Absent, nil, nil
	}
	if err != nil {
		return repository.Absent, nil, fmt.Errorf("failed to resolve account: %w", err)
	}
	if a.UserID != userID {
		return repository.ExistsElsewhere, nil, nil
	}
	return repository.Owned, a, nil
}

func (r *accountRepository) FindAllByOwner(ctx context.Context, userID string) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *accountRepository) CountByOwner(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

func (r *accountRepository) Insert(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (account_number, user_id, sort_code, name, account_type, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		account.AccountNumber, account.UserID, account.SortCode, account.Name,
		account.AccountType, account.Balance, account.Currency,
		account.CreatedAt, account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn("account number collision", "account_number", account.AccountNumber)
			return fmt.Errorf("account number %s: %w", account.AccountNumber, repository.ErrDuplicate)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("owner %s: %w", account.UserID, repository.ErrNotFound)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	query := `UPDATE accounts SET name = $2, account_type = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, account.ID, account.Name, account.AccountType, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireAffected(result, "account")
}

func (r *accountRepository) ReplaceBalance(ctx context.Context, id int64, balance decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, balance, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return requireAffected(result, "account")
}

func (r *accountRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return requireAffected(result, "account")
}
