package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/models"
)

type userRepository struct {
	store *Store
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	stored := *user
	return r.store.write(op{
		check: func(st *state) error {
			if _, taken := st.users[stored.ID]; taken {
				return fmt.Errorf("user %s: %w", stored.ID, repository.ErrDuplicate)
			}
			if _, taken := st.emails[emailKey(stored.Email)]; taken {
				return fmt.Errorf("email already exists: %w", repository.ErrDuplicate)
			}
			return nil
		},
		apply: func(st *state) {
			u := stored
			st.users[u.ID] = &u
			st.emails[emailKey(u.Email)] = u.ID
		},
	})
}

func (r *userRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	st := r.store.state
	st.mu.RLock()
	defer st.mu.RUnlock()

	u, ok := st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	st := r.store.state
	st.mu.RLock()
	defer st.mu.RUnlock()

	id, ok := st.emails[emailKey(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *st.users[id]
	return &cp, nil
}

func (r *userRepository) Update(_ context.Context, user *models.User) error {
	stored := *user
	return r.store.write(op{
		check: func(st *state) error {
			if _, ok := st.users[stored.ID]; !ok {
				return fmt.Errorf("user %s: %w", stored.ID, repository.ErrNotFound)
			}
			if owner, taken := st.emails[emailKey(stored.Email)]; taken && owner != stored.ID {
				return fmt.Errorf("email already exists: %w", repository.ErrDuplicate)
			}
			return nil
		},
		apply: func(st *state) {
			prev := st.users[stored.ID]
			delete(st.emails, emailKey(prev.Email))
			u := stored
			u.PasswordHash = prev.PasswordHash
			u.CreatedAt = prev.CreatedAt
			st.users[u.ID] = &u
			st.emails[emailKey(u.Email)] = u.ID
		},
	})
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	return r.store.write(op{
		check: func(st *state) error {
			if _, ok := st.users[id]; !ok {
				return fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
			}
			for _, a := range st.accounts {
				if a.UserID == id {
					return fmt.Errorf("user %s owns accounts: %w", id, repository.ErrReferenced)
				}
			}
			return nil
		},
		apply: func(st *state) {
			delete(st.emails, emailKey(st.users[id].Email))
			delete(st.users, id)
			st.removed[id] = struct{}{}
		},
	})
}
