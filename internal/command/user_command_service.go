package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/events"
	"github.com/eaglebank/bank-api/shared/models"
	sharedredis "github.com/eaglebank/bank-api/shared/redis"
	"github.com/eaglebank/bank-api/shared/utils"
)

// UserCommandService writes users and keeps the cached user views current.
type UserCommandService struct {
	store     repository.Store
	cache     sharedredis.Cache[models.UserView]
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewUserCommandService(
	store repository.Store,
	cache sharedredis.Cache[models.UserView],
	publisher EventPublisher,
	logger *slog.Logger,
) *UserCommandService {
	return &UserCommandService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.User, error) {
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()
	user := &models.User{
		ID:           utils.GenerateID("usr"),
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		PhoneNumber:  cmd.PhoneNumber,
		Address:      cmd.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.cache.Set(ctx, sharedredis.UserViewKey(user.ID), models.NewUserView(user))
	s.logger.Info("user created", "user_id", user.ID)
	publish(ctx, s.logger, s.publisher, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	return user, nil
}

// UpdateUser replaces the profile fields of the caller's own user.
func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	user, err := s.getUser(ctx, cmd.UserID, cmd.RequestingUserID)
	if err != nil {
		return nil, err
	}
	if cmd.Name != "" {
		user.Name = cmd.Name
	}
	if cmd.Email != "" {
		user.Email = cmd.Email
	}
	if cmd.PhoneNumber != "" {
		user.PhoneNumber = cmd.PhoneNumber
	}
	if cmd.Address != (models.Address{}) {
		user.Address = cmd.Address
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.store.Users().Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	view := models.NewUserView(user)
	s.cache.Set(ctx, sharedredis.UserViewKey(user.ID), view)
	publish(ctx, s.logger, s.publisher, events.UserEventsStream, events.UserUpdated, events.UserUpdatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	return view, nil
}

// DeleteUser rejects the operation while the user still owns accounts.
func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := getUser(ctx, tx.Users(), cmd.UserID, cmd.RequestingUserID); err != nil {
			return err
		}
		n, err := tx.Accounts().CountByOwner(ctx, cmd.UserID)
		if err != nil {
			return fmt.Errorf("count accounts: %w", err)
		}
		if n > 0 {
			return apperr.ErrUserHasAccounts
		}
		if err := tx.Users().Delete(ctx, cmd.UserID); err != nil {
			if errors.Is(err, repository.ErrReferenced) {
				return apperr.ErrUserHasAccounts
			}
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Delete(ctx, sharedredis.UserViewKey(cmd.UserID))
	s.logger.Info("user deleted", "user_id", cmd.UserID)
	publish(ctx, s.logger, s.publisher, events.UserEventsStream, events.UserDeleted, events.UserDeletedEvent{
		UserID: cmd.UserID,
	})
	return nil
}

func (s *UserCommandService) getUser(ctx context.Context, userID, requestingUserID string) (*models.User, error) {
	return getUser(ctx, s.store.Users(), userID, requestingUserID)
}

// getUser reports a missing user before checking that the caller is that user.
func getUser(ctx context.Context, users repository.UserRepository, userID, requestingUserID string) (*models.User, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.ID != requestingUserID {
		return nil, apperr.ErrUserForbidden
	}
	return user, nil
}
