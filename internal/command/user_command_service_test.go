package command

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/internal/repository/memory"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/events"
	"github.com/eaglebank/bank-api/shared/models"
	sharedredis "github.com/eaglebank/bank-api/shared/redis"
	"github.com/eaglebank/bank-api/shared/utils"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddress = models.Address{Line1: "1 High St", Town: "London", County: "Greater London", Postcode: "E1 6AN"}

type userFixture struct {
	store     *memory.Store
	cache     *sharedredis.ViewCache[models.UserView]
	publisher *recordingPublisher
	users     *UserCommandService
	accounts  *AccountCommandService
}

func newUserFixture(t *testing.T) *userFixture {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewStore()
	cache := sharedredis.NewViewCache[models.UserView](client, 0, discardLogger())
	pub := &recordingPublisher{}
	return &userFixture{
		store:     store,
		cache:     cache,
		publisher: pub,
		users:     NewUserCommandService(store, cache, pub, discardLogger()),
		accounts:  NewAccountCommandService(store, pub, discardLogger(), "GBP"),
	}
}

func (f *userFixture) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), cqrs.CreateUserCommand{
		Name:        "Ada Lovelace",
		Email:       email,
		Password:    "hunter22",
		PhoneNumber: "+447700900123",
		Address:     testAddress,
	})
	require.NoError(t, err)
	return user
}

func TestCreateUser(t *testing.T) {
	f := newUserFixture(t)
	user := f.createUser(t, "ada@example.com")

	assert.Regexp(t, `^usr-[A-Za-z0-9]{10}$`, user.ID)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.True(t, utils.CheckPassword("hunter22", user.PasswordHash))

	cached, ok := f.cache.Get(context.Background(), sharedredis.UserViewKey(user.ID))
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", cached.Email)
	assert.Equal(t, []string{events.UserCreated}, f.publisher.types())

	_, err := f.users.CreateUser(context.Background(), cqrs.CreateUserCommand{
		Name: "Imposter", Email: "ADA@example.com", Password: "password1", Address: testAddress,
	})
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)
}

func TestUpdateUser(t *testing.T) {
	f := newUserFixture(t)
	ada := f.createUser(t, "ada@example.com")
	bob := f.createUser(t, "bob@example.com")

	tests := []struct {
		name        string
		userID      string
		requester   string
		email       string
		expectedErr error
	}{
		{"unknown user", "usr-missing", ada.ID, "", apperr.ErrUserNotFound},
		{"someone else", bob.ID, ada.ID, "", apperr.ErrUserForbidden},
		{"email in use", ada.ID, ada.ID, "bob@example.com", apperr.ErrEmailTaken},
		{"self", ada.ID, ada.ID, "ada@new.example.com", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := f.users.UpdateUser(context.Background(), cqrs.UpdateUserCommand{
				UserID:           tt.userID,
				RequestingUserID: tt.requester,
				Name:             "Ada King",
				Email:            tt.email,
			})
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ada King", view.Name)
			assert.Equal(t, tt.email, view.Email)
			assert.Equal(t, testAddress, view.Address)

			cached, ok := f.cache.Get(context.Background(), sharedredis.UserViewKey(ada.ID))
			require.True(t, ok)
			assert.Equal(t, "Ada King", cached.Name)

			stored, err := f.store.Users().GetByID(context.Background(), ada.ID)
			require.NoError(t, err)
			assert.True(t, utils.CheckPassword("hunter22", stored.PasswordHash))
		})
	}
}

func TestDeleteUser(t *testing.T) {
	f := newUserFixture(t)
	ada := f.createUser(t, "ada@example.com")
	bob := f.createUser(t, "bob@example.com")
	ctx := context.Background()

	account, err := f.accounts.CreateAccount(ctx, cqrs.CreateAccountCommand{UserID: ada.ID, Name: "Main", AccountType: "personal"})
	require.NoError(t, err)

	err = f.users.DeleteUser(ctx, cqrs.DeleteUserCommand{UserID: "usr-missing", RequestingUserID: ada.ID})
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	err = f.users.DeleteUser(ctx, cqrs.DeleteUserCommand{UserID: bob.ID, RequestingUserID: ada.ID})
	assert.ErrorIs(t, err, apperr.ErrUserForbidden)

	err = f.users.DeleteUser(ctx, cqrs.DeleteUserCommand{UserID: ada.ID, RequestingUserID: ada.ID})
	assert.ErrorIs(t, err, apperr.ErrUserHasAccounts)
	assert.Equal(t, apperr.Conflict, apperr.CodeOf(err))

	require.NoError(t, f.accounts.DeleteAccount(ctx, cqrs.DeleteAccountCommand{
		AccountNumber: account.AccountNumber, RequestingUserID: ada.ID,
	}))
	require.NoError(t, f.users.DeleteUser(ctx, cqrs.DeleteUserCommand{UserID: ada.ID, RequestingUserID: ada.ID}))

	_, ok := f.cache.Get(ctx, sharedredis.UserViewKey(ada.ID))
	assert.False(t, ok)
	_, err = f.store.Users().GetByID(ctx, ada.ID)
	assert.Error(t, err)
	assert.Contains(t, f.publisher.types(), events.UserDeleted)
}

// blockingStore parks every unit of work right after it counts a user's accounts.
type blockingStore struct {
	repository.Store
	counted chan struct{}
	resume  chan struct{}
}

func (s *blockingStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(&blockingStore{Store: tx, counted: s.counted, resume: s.resume})
	})
}

func (s *blockingStore) Accounts() repository.AccountRepository {
	return &blockingAccounts{AccountRepository: s.Store.Accounts(), counted: s.counted, resume: s.resume}
}

type blockingAccounts struct {
	repository.AccountRepository
	counted chan struct{}
	resume  chan struct{}
}

func (a *blockingAccounts) CountByOwner(ctx context.Context, userID string) (int, error) {
	n, err := a.AccountRepository.CountByOwner(ctx, userID)
	close(a.counted)
	<-a.resume
	return n, err
}

func TestDeleteUserRacingAccountCreation(t *testing.T) {
	f := newUserFixture(t)
	ada := f.createUser(t, "ada@example.com")
	ctx := context.Background()

	blocking := &blockingStore{Store: f.store, counted: make(chan struct{}), resume: make(chan struct{})}
	users := NewUserCommandService(blocking, sharedredis.NopCache[models.UserView]{}, f.publisher, discardLogger())

	done := make(chan error, 1)
	go func() {
		done <- users.DeleteUser(ctx, cqrs.DeleteUserCommand{UserID: ada.ID, RequestingUserID: ada.ID})
	}()

	select {
	case <-blocking.counted:
	case <-time.After(5 * time.Second):
		t.Fatal("delete never counted accounts")
	}
	_, err := f.accounts.CreateAccount(ctx, cqrs.CreateAccountCommand{UserID: ada.ID, Name: "Main", AccountType: "personal"})
	require.NoError(t, err)
	close(blocking.resume)

	err = <-done
	assert.ErrorIs(t, err, apperr.ErrUserHasAccounts)

	_, err = f.store.Users().GetByID(ctx, ada.ID)
	require.NoError(t, err)
	n, err := f.store.Accounts().CountByOwner(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateAccountForDeletedUser(t *testing.T) {
	f := newUserFixture(t)
	ada := f.createUser(t, "ada@example.com")
	ctx := context.Background()

	require.NoError(t, f.users.DeleteUser(ctx, cqrs.DeleteUserCommand{UserID: ada.ID, RequestingUserID: ada.ID}))

	_, err := f.accounts.CreateAccount(ctx, cqrs.CreateAccountCommand{UserID: ada.ID, Name: "Main", AccountType: "personal"})
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	accounts, err := f.store.Accounts().FindAllByOwner(ctx, ada.ID)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
