package memory

import (
	"context"
	"sync"
)

// lockTable hands out one exclusive lock per account id. Entries are dropped
// once nobody holds or waits on them.
type lockTable struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[int64]*lockEntry)}
}

func (t *lockTable) acquire(ctx context.Context, id int64) (func(), error) {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		t.entries[id] = e
	}
	e.refs++
	t.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				t.unref(id, e)
			})
		}, nil
	case <-ctx.Done():
		t.unref(id, e)
		return nil, ctx.Err()
	}
}

func (t *lockTable) unref(id int64, e *lockEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(t.entries, id)
	}
}
