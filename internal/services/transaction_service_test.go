package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"gofinances/internal/core"
	"gofinances/internal/store/memory"
)

func newTransactionService() (*TransactionService, *memory.Store) {
	mem := memory.New()
	return NewTransactionService(mem, mem, nil), mem
}

func mustCreate(t *testing.T, svc *TransactionService, title string, cents int64, typ core.TransactionType, category string) core.Transaction {
	t.Helper()
	created, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		Title:         title,
		Value:         core.Money{Cents: cents},
		Type:          typ,
		CategoryTitle: category,
	})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return created
}

func TestCreateTransactionValidation(t *testing.T) {
	svc, _ := newTransactionService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateTransactionInput
		want error
	}{
		{"empty title", CreateTransactionInput{Title: "", Value: core.Money{Cents: 100}, Type: core.Income, CategoryTitle: "c"}, core.ErrEmptyTitle},
		{"negative value", CreateTransactionInput{Title: "t", Value: core.Money{Cents: -5}, Type: core.Income, CategoryTitle: "c"}, core.ErrInvalidAmount},
		{"unknown type", CreateTransactionInput{Title: "t", Value: core.Money{Cents: 100}, Type: "loan", CategoryTitle: "c"}, core.ErrInvalidType},
		{"empty category", CreateTransactionInput{Title: "t", Value: core.Money{Cents: 100}, Type: core.Income, CategoryTitle: " "}, core.ErrEmptyCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTransaction(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("CreateTransaction() error = %v, want %v", err, tc.want)
			}
		})
	}

	// nothing persisted by rejected inputs
	all, _, err := svc.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty ledger, got %d transactions", len(all))
	}
}

func TestOutcomeRejectedWhenBalanceInsufficient(t *testing.T) {
	svc, mem := newTransactionService()
	ctx := context.Background()

	mustCreate(t, svc, "Salary", 10000, core.Income, "Work")

	_, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Title:         "Laptop",
		Value:         core.Money{Cents: 15000},
		Type:          core.Outcome,
		CategoryTitle: "Tech",
	})
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// balance unchanged and no orphan category created
	balance, err := svc.GetBalance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Total.Cents != 10000 {
		t.Fatalf("balance total = %d, want 10000", balance.Total.Cents)
	}
	orphan, err := mem.FindByTitle(ctx, "Tech")
	if err != nil {
		t.Fatalf("find category: %v", err)
	}
	if orphan != nil {
		t.Fatalf("rejected outcome must not create a category, found %+v", orphan)
	}

	// spending within the balance succeeds and moves the total
	mustCreate(t, svc, "Groceries", 5000, core.Outcome, "Food")
	balance, _ = svc.GetBalance(ctx)
	if balance.Total.Cents != 5000 {
		t.Fatalf("balance total after outcome = %d, want 5000", balance.Total.Cents)
	}
}

func TestConcurrentOutcomesCannotOverdraw(t *testing.T) {
	svc, _ := newTransactionService()
	ctx := context.Background()

	mustCreate(t, svc, "Salary", 10000, core.Income, "Work")

	// Many concurrent outcomes, each individually covered by the balance.
	// Check-and-create is serialized, so only as many may commit as the
	// balance can absorb.
	const workers = 8
	var succeeded atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.CreateTransaction(ctx, CreateTransactionInput{
				Title:         "Withdrawal",
				Value:         core.Money{Cents: 10000},
				Type:          core.Outcome,
				CategoryTitle: "Cash",
			})
			if err == nil {
				succeeded.Add(1)
			} else if !errors.Is(err, core.ErrInsufficientBalance) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := succeeded.Load(); got != 1 {
		t.Fatalf("%d outcomes committed, want exactly 1", got)
	}

	balance, err := svc.GetBalance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Total.Cents < 0 {
		t.Fatalf("balance went negative: %d", balance.Total.Cents)
	}
	if balance.Total.Cents != 0 {
		t.Fatalf("balance total = %d, want 0", balance.Total.Cents)
	}
}

func TestIncomeAlwaysAccepted(t *testing.T) {
	svc, _ := newTransactionService()

	// no funds needed for income, including zero value
	mustCreate(t, svc, "Gift", 0, core.Income, "Misc")
	mustCreate(t, svc, "Salary", 123456, core.Income, "Work")

	balance, err := svc.GetBalance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Income.Cents != 123456 {
		t.Fatalf("income = %d, want 123456", balance.Income.Cents)
	}
}

func TestCategoryResolvedNotDuplicated(t *testing.T) {
	svc, mem := newTransactionService()
	ctx := context.Background()

	first := mustCreate(t, svc, "Coffee beans", 1000, core.Income, "Food")
	second := mustCreate(t, svc, "Lunch", 2000, core.Income, "Food")

	if first.Category.ID != second.Category.ID {
		t.Fatalf("expected both transactions to share one category, got %s and %s",
			first.Category.ID, second.Category.ID)
	}

	cats, err := mem.FindAllByTitles(ctx, []string{"Food"})
	if err != nil {
		t.Fatalf("find categories: %v", err)
	}
	if len(cats) != 1 {
		t.Fatalf("expected exactly 1 Food category, got %d", len(cats))
	}
}

func TestCreateTrimsTitles(t *testing.T) {
	svc, _ := newTransactionService()

	created := mustCreate(t, svc, "  Salary  ", 1000, core.Income, "  Work  ")
	if created.Title != "Salary" {
		t.Fatalf("title = %q, want trimmed", created.Title)
	}
	if created.Category.Title != "Work" {
		t.Fatalf("category title = %q, want trimmed", created.Category.Title)
	}
}

func TestListTransactionsReturnsBalanceFromSameSnapshot(t *testing.T) {
	svc, _ := newTransactionService()

	mustCreate(t, svc, "Salary", 10000, core.Income, "Work")
	mustCreate(t, svc, "Lunch", 2000, core.Outcome, "Food")

	all, balance, err := svc.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(all))
	}
	if balance.Total.Cents != 8000 {
		t.Fatalf("total = %d, want 8000", balance.Total.Cents)
	}
	if balance.Total.Cents != balance.Income.Cents-balance.Outcome.Cents {
		t.Fatalf("balance identity violated: %+v", balance)
	}
}
