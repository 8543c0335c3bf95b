package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/internal/auth"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/utils"
)

// AuthQueryService handles login and token refresh. There's no command
// service for auth because these operations don't mutate application state.
type AuthQueryService struct {
	store  repository.Store
	tokens *auth.TokenManager
}

func NewAuthQueryService(store repository.Store, tokens *auth.TokenManager) *AuthQueryService {
	return &AuthQueryService{store: store, tokens: tokens}
}

func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (string, error) {
	user, err := s.store.Users().GetByEmail(ctx, cmd.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		return "", apperr.ErrInvalidCredentials
	}
	return s.tokens.Generate(user.ID, user.Email)
}

// RefreshToken issues a new token for a still-valid one whose user still exists.
func (s *AuthQueryService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	claims, err := s.tokens.Parse(cmd.Token)
	if err != nil {
		return "", err
	}
	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.ErrUnauthenticated
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	return s.tokens.Generate(user.ID, user.Email)
}
