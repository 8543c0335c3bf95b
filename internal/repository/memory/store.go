// Package memory is an in-process implementation of repository.Store.
//
// Writes made inside WithTx are buffered and applied under a single write
// lock on commit, so readers never observe half of a unit of work. Accounts
// claimed through ResolveForUpdate stay locked until the unit of work ends.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/models"
)

type state struct {
	mu sync.RWMutex

	accounts map[int64]*models.Account
	byNumber map[string]int64

	transactions map[string]*txRecord
	byAccount    map[int64][]*txRecord
	seq          int64

	users  map[string]*models.User
	emails map[string]string
	// removed keeps deleted user ids so a late account insert cannot attach to one.
	removed map[string]struct{}
}

type txRecord struct {
	transaction models.Transaction
	seq         int64
}

// op is a buffered write. check runs against committed state before any
// apply of the same unit of work.
type op struct {
	check func(st *state) error
	apply func(st *state)
}

func (st *state) commit(ops []op) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, o := range ops {
		if o.check == nil {
			continue
		}
		if err := o.check(st); err != nil {
			return err
		}
	}
	for _, o := range ops {
		o.apply(st)
	}
	return nil
}

type unitOfWork struct {
	ops  []op
	held map[int64]func()
}

func (u *unitOfWork) lock(ctx context.Context, locks *lockTable, id int64) error {
	if _, ok := u.held[id]; ok {
		return nil
	}
	release, err := locks.acquire(ctx, id)
	if err != nil {
		return err
	}
	u.held[id] = release
	return nil
}

func (u *unitOfWork) release() {
	for id, release := range u.held {
		release()
		delete(u.held, id)
	}
}

type Store struct {
	state  *state
	locks  *lockTable
	nextID *atomic.Int64
	uow    *unitOfWork
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		state: &state{
			accounts:     make(map[int64]*models.Account),
			byNumber:     make(map[string]int64),
			transactions: make(map[string]*txRecord),
			byAccount:    make(map[int64][]*txRecord),
			users:        make(map[string]*models.User),
			emails:       make(map[string]string),
			removed:      make(map[string]struct{}),
		},
		locks:  newLockTable(),
		nextID: new(atomic.Int64),
	}
}

func (s *Store) Accounts() repository.AccountRepository { return &accountRepository{store: s} }

func (s *Store) Transactions() repository.TransactionRepository {
	return &transactionRepository{store: s}
}

func (s *Store) Users() repository.UserRepository { return &userRepository{store: s} }

func (s *Store) Ping(context.Context) error { return nil }

// WithTx nests into the current unit of work when called on a tx store.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.uow != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	uow := &unitOfWork{held: make(map[int64]func())}
	tx := &Store{state: s.state, locks: s.locks, nextID: s.nextID, uow: uow}
	defer uow.release()

	if err := fn(tx); err != nil {
		return err
	}
	return s.state.commit(uow.ops)
}

func (s *Store) write(o op) error {
	if s.uow != nil {
		s.uow.ops = append(s.uow.ops, o)
		return nil
	}
	return s.state.commit([]op{o})
}
