// Package memory keeps the ledger and the work queue in process. Writes
// made inside WithinTransaction are undone when the function fails.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"intake/internal/domain/ledger"
	"intake/internal/domain/workitem"
)

type ledgerKey struct {
	eventID  string
	consumer ledger.Consumer
}

type Store struct {
	mu      sync.Mutex
	entries map[ledgerKey]*ledger.Entry
	seq     int64
	items   []*workitem.Item
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[ledgerKey]*ledger.Entry),
		now:     time.Now,
	}
}

type txKey struct{}

type tx struct {
	undo []func()
}

func (s *Store) onRollback(ctx context.Context, f func()) {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		t.undo = append(t.undo, f)
	}
}

// WithinTransaction runs fn and reverts its writes if it returns an error.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t := &tx{}
	err := fn(context.WithValue(ctx, txKey{}, t))
	if err != nil {
		s.mu.Lock()
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		s.mu.Unlock()
	}
	return err
}

func (s *Store) Exists(_ context.Context, eventID string, consumer ledger.Consumer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[ledgerKey{eventID, consumer}]
	return ok, nil
}

func (s *Store) Record(ctx context.Context, e *ledger.Entry) (*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ledgerKey{e.EventID, e.Consumer}
	if _, ok := s.entries[key]; ok {
		return nil, ledger.ErrConflict
	}
	s.seq++
	stored := *e
	stored.ID = s.seq
	stored.RecordedAt = s.now().UTC()
	s.entries[key] = &stored
	s.onRollback(ctx, func() { delete(s.entries, key) })

	out := stored
	return &out, nil
}

// Get returns the entry for the pair, or nil.
func (s *Store) Get(_ context.Context, eventID string, consumer ledger.Consumer) (*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ledgerKey{eventID, consumer}]
	if !ok {
		return nil, nil
	}
	out := *e
	return &out, nil
}

func (s *Store) Entries() []ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b ledger.Entry) int { return int(a.ID - b.ID) })
	return out
}

func (s *Store) Enqueue(ctx context.Context, item *workitem.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *item
	s.items = append(s.items, &stored)
	s.onRollback(ctx, func() {
		s.items = slices.DeleteFunc(s.items, func(it *workitem.Item) bool { return it == &stored })
	})
	return nil
}

func (s *Store) VoidPending(ctx context.Context, correlationID string, types []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if it.CorrelationID != correlationID || it.Status != workitem.StatusReady {
			continue
		}
		if len(types) > 0 && !slices.Contains(types, it.Type) {
			continue
		}
		it.Status = workitem.StatusVoided
		item := it
		s.onRollback(ctx, func() { item.Status = workitem.StatusReady })
		n++
	}
	return n, nil
}

// MarkDispatched moves an item out of the pending state.
func (s *Store) MarkDispatched(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			it.Status = workitem.StatusDispatched
		}
	}
}

func (s *Store) ListByCorrelationID(_ context.Context, correlationID string) ([]*workitem.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*workitem.Item
	for _, it := range s.items {
		if it.CorrelationID == correlationID {
			c := *it
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) Items() []workitem.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]workitem.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it)
	}
	return out
}
