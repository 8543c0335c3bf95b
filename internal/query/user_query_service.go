package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/models"
	sharedredis "github.com/eaglebank/bank-api/shared/redis"
)

// UserQueryService reads user views from the cache first, falling back to the store.
type UserQueryService struct {
	store repository.Store
	cache sharedredis.Cache[models.UserView]
}

func NewUserQueryService(store repository.Store, cache sharedredis.Cache[models.UserView]) *UserQueryService {
	return &UserQueryService{store: store, cache: cache}
}

// GetUser returns ErrUserNotFound for an unknown id before it checks that
// the caller is asking for themselves.
func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	view, err := s.lookup(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	if view.ID != q.RequestingUserID {
		return nil, apperr.ErrUserForbidden
	}
	return view, nil
}

// ResolvePrincipal confirms a token subject still exists.
func (s *UserQueryService) ResolvePrincipal(ctx context.Context, userID string) (*models.UserView, error) {
	view, err := s.lookup(ctx, userID)
	if errors.Is(err, apperr.ErrUserNotFound) {
		return nil, apperr.ErrUnauthenticated
	}
	return view, err
}

func (s *UserQueryService) lookup(ctx context.Context, userID string) (*models.UserView, error) {
	key := sharedredis.UserViewKey(userID)
	if view, ok := s.cache.Get(ctx, key); ok {
		return view, nil
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	view := models.NewUserView(user)
	s.cache.Set(ctx, key, view)
	return view, nil
}
