package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"gofinances/internal/core"
)

// Store keeps the whole ledger in memory. It backs LEDGER_BACKEND=memory and
// the service tests. A single mutex serializes every operation, so the
// balance check-then-create sequence observes a consistent snapshot.
type Store struct {
	mu           sync.Mutex
	categories   []core.Category
	transactions []core.Transaction
}

func New() *Store {
	return &Store{}
}

func (s *Store) FindByTitle(_ context.Context, title string) (*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByTitleLocked(title), nil
}

func (s *Store) findByTitleLocked(title string) *core.Category {
	for i := range s.categories {
		if s.categories[i].Title == title {
			c := s.categories[i]
			return &c
		}
	}
	return nil
}

func (s *Store) FindAllByTitles(_ context.Context, titles []string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		want[t] = struct{}{}
	}
	var out []core.Category
	for _, c := range s.categories {
		if _, ok := want[c.Title]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, title string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(title), nil
}

func (s *Store) createLocked(title string) core.Category {
	if existing := s.findByTitleLocked(title); existing != nil {
		return *existing
	}
	c := core.Category{ID: uuid.NewString(), Title: title}
	s.categories = append(s.categories, c)
	return c
}

func (s *Store) CreateCategories(_ context.Context, titles []string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Category, 0, len(titles))
	for _, title := range titles {
		out = append(out, s.createLocked(title))
	}
	return out, nil
}

func (s *Store) ListAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			t := s.transactions[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	s.transactions = append(s.transactions, t)
	return t, nil
}

// CreateBatch appends the whole batch under one lock acquisition, so the
// batch is all-or-nothing by construction.
func (s *Store) CreateBatch(_ context.Context, ts []core.Transaction) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		t.ID = uuid.NewString()
		out = append(out, t)
	}
	s.transactions = append(s.transactions, out...)
	return out, nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return core.ErrTransactionNotFound
}
