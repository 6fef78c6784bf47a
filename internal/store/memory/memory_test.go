package memory

import (
	"context"
	"testing"

	"gofinances/internal/core"
)

func TestCategoryCreateIsIdempotentByTitle(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.CreateCategory(ctx, "Food")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := s.CreateCategory(ctx, "Food")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same category, got %s and %s", first.ID, second.ID)
	}
}

func TestFindAllByTitles(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.CreateCategories(ctx, []string{"Food", "Work", "Travel"}); err != nil {
		t.Fatalf("create many: %v", err)
	}

	got, err := s.FindAllByTitles(ctx, []string{"Food", "Travel", "Missing"})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
}

func TestFindByTitleAbsent(t *testing.T) {
	s := New()
	c, err := s.FindByTitle(context.Background(), "nope")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if c != nil {
		t.Fatalf("expected nil for absent title, got %+v", c)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	cat, err := s.CreateCategory(ctx, "Work")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	created, err := s.CreateTransaction(ctx, core.Transaction{
		Title:    "Salary",
		Value:    core.Money{Cents: 100000},
		Type:     core.Income,
		Category: cat,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected store-assigned id")
	}

	found, err := s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found == nil || found.Title != "Salary" {
		t.Fatalf("expected to find created transaction, got %+v", found)
	}

	if err := s.Remove(ctx, created.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	found, err = s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find after remove: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil after remove, got %+v", found)
	}
}

func TestRemoveMissing(t *testing.T) {
	s := New()
	if err := s.Remove(context.Background(), "does-not-exist"); err != core.ErrTransactionNotFound {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestCreateBatchAssignsIDs(t *testing.T) {
	s := New()
	ctx := context.Background()
	cat, _ := s.CreateCategory(ctx, "Misc")

	batch := []core.Transaction{
		{Title: "a", Value: core.Money{Cents: 100}, Type: core.Income, Category: cat},
		{Title: "b", Value: core.Money{Cents: 200}, Type: core.Outcome, Category: cat},
	}
	created, err := s.CreateBatch(ctx, batch)
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(created))
	}
	if created[0].ID == "" || created[1].ID == "" || created[0].ID == created[1].ID {
		t.Fatalf("expected distinct ids, got %q and %q", created[0].ID, created[1].ID)
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 stored transactions, got %d", len(all))
	}
}
