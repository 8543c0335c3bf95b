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

const userColumns = `id, name, email, password_hash, phone_number,
	address_line1, address_line2, address_line3, address_town, address_county, address_postcode,
	created_at, updated_at`

type userRepository struct {
	db     executor
	logger *slog.Logger
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var line2, line3 sql.NullString
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PhoneNumber,
		&u.Address.Line1, &line2, &line3, &u.Address.Town, &u.Address.County, &u.Address.Postcode,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Address.Line2 = line2.String
	u.Address.Line3 = line3.String
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.PhoneNumber,
		user.Address.Line1, nullString(user.Address.Line2), nullString(user.Address.Line3),
		user.Address.Town, user.Address.County, user.Address.Postcode,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email already exists: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, phone_number = $4,
			address_line1 = $5, address_line2 = $6, address_line3 = $7,
			address_town = $8, address_county = $9, address_postcode = $10,
			updated_at = $11
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PhoneNumber,
		user.Address.Line1, nullString(user.Address.Line2), nullString(user.Address.Line3),
		user.Address.Town, user.Address.County, user.Address.Postcode,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email already exists: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireAffected(result, "user")
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("user %s owns accounts: %w", id, repository.ErrReferenced)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(result, "user")
}
