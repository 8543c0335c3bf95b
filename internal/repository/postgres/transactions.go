package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/models"
)

const transactionColumns = `id, account_id, user_id, amount, currency, type, reference, created_at`

type transactionRepository struct {
	db     executor
	logger *slog.Logger
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var reference sql.NullString
	err := row.Scan(&t.ID, &t.AccountID, &t.UserID, &t.Amount, &t.Currency, &t.Type, &reference, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Reference = reference.String
	return &t, nil
}

func (r *transactionRepository) Insert(ctx context.Context, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, user_id, amount, currency, type, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		transaction.ID, transaction.AccountID, transaction.UserID,
		transaction.Amount, transaction.Currency, transaction.Type,
		nullString(transaction.Reference), transaction.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transaction %s: %w", transaction.ID, repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) FindAllByAccount(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 ORDER BY created_at DESC, seq DESC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func (r *transactionRepository) FindByIDAndAccount(ctx context.Context, id string, accountID int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND account_id = $2`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}
