package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/models"
)

type transactionRepository struct {
	store *Store
}

func (r *transactionRepository) Insert(_ context.Context, transaction *models.Transaction) error {
	stored := *transaction
	return r.store.write(op{
		check: func(st *state) error {
			if _, taken := st.transactions[stored.ID]; taken {
				return fmt.Errorf("transaction %s: %w", stored.ID, repository.ErrDuplicate)
			}
			return nil
		},
		apply: func(st *state) {
			st.seq++
			rec := &txRecord{transaction: stored, seq: st.seq}
			st.transactions[stored.ID] = rec
			st.byAccount[stored.AccountID] = append(st.byAccount[stored.AccountID], rec)
		},
	})
}

// FindAllByAccount orders by creation time, newest first, then by insertion order.
func (r *transactionRepository) FindAllByAccount(_ context.Context, accountID int64) ([]models.Transaction, error) {
	st := r.store.state
	st.mu.RLock()
	records := slices.Clone(st.byAccount[accountID])
	st.mu.RUnlock()

	slices.SortFunc(records, func(a, b *txRecord) int {
		if c := b.transaction.CreatedAt.Compare(a.transaction.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	out := make([]models.Transaction, len(records))
	for i, rec := range records {
		out[i] = rec.transaction
	}
	return out, nil
}

func (r *transactionRepository) FindByIDAndAccount(_ context.Context, id string, accountID int64) (*models.Transaction, error) {
	st := r.store.state
	st.mu.RLock()
	defer st.mu.RUnlock()

	rec, ok := st.transactions[id]
	if !ok || rec.transaction.AccountID != accountID {
		return nil, repository.ErrNotFound
	}
	t := rec.transaction
	return &t, nil
}
