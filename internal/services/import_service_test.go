package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gofinances/internal/core"
	"gofinances/internal/store/memory"
)

const csvHeader = "title,type,value,category\n"

func newImportService() (*ImportService, *memory.Store) {
	mem := memory.New()
	return NewImportService(mem, mem, nil), mem
}

func TestImportWellFormedRows(t *testing.T) {
	svc, _ := newImportService()

	src := csvHeader +
		"Lunch, outcome, 20.00, Food\n" +
		"Salary, income, 1000.00, Work\n"

	result, err := svc.Import(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(result.Transactions))
	}
	if result.Skipped != 0 {
		t.Fatalf("expected 0 skipped rows, got %d", result.Skipped)
	}

	lunch := result.Transactions[0]
	if lunch.Title != "Lunch" || lunch.Type != core.Outcome || lunch.Value.Cents != 2000 {
		t.Fatalf("unexpected first transaction: %+v", lunch)
	}
	if lunch.Category.Title != "Food" {
		t.Fatalf("first transaction category = %q, want Food", lunch.Category.Title)
	}
	salary := result.Transactions[1]
	if salary.Type != core.Income || salary.Value.Cents != 100000 || salary.Category.Title != "Work" {
		t.Fatalf("unexpected second transaction: %+v", salary)
	}
}

func TestImportSkipsMalformedRows(t *testing.T) {
	svc, _ := newImportService()

	src := csvHeader +
		"Lunch, outcome, 20.00, Food\n" +
		", outcome, 10.00, Food\n" + // missing title
		"NoType, , 10.00, Food\n" + // missing type
		"NoValue, income, , Work\n" + // missing value
		"BadValue, income, abc, Work\n" + // unparseable value
		"BadType, transfer, 10.00, Work\n" + // unknown type
		"Salary, income, 1000.00, Work\n"

	result, err := svc.Import(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(result.Transactions))
	}
	if result.Skipped != 5 {
		t.Fatalf("expected 5 skipped rows, got %d", result.Skipped)
	}
}

func TestImportReusesExistingCategories(t *testing.T) {
	svc, mem := newImportService()
	ctx := context.Background()

	existing, err := mem.CreateCategory(ctx, "Food")
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}

	src := csvHeader +
		"Lunch, outcome, 20.00, Food\n" +
		"Dinner, outcome, 30.00, Food\n" +
		"Salary, income, 1000.00, Work\n"

	result, err := svc.Import(ctx, strings.NewReader(src))
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	for _, tx := range result.Transactions {
		if tx.Category.Title == "Food" && tx.Category.ID != existing.ID {
			t.Fatalf("Food rows must link the pre-existing category, got %s want %s",
				tx.Category.ID, existing.ID)
		}
	}

	cats, err := mem.FindAllByTitles(ctx, []string{"Food", "Work"})
	if err != nil {
		t.Fatalf("find categories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("expected exactly 2 categories, got %d", len(cats))
	}
}

func TestImportEmptySource(t *testing.T) {
	svc, _ := newImportService()

	for _, src := range []string{"", csvHeader} {
		result, err := svc.Import(context.Background(), strings.NewReader(src))
		if err != nil {
			t.Fatalf("import %q: %v", src, err)
		}
		if len(result.Transactions) != 0 || result.Skipped != 0 {
			t.Fatalf("expected empty result for %q, got %+v", src, result)
		}
	}
}

func TestImportDoesNotEnforceBalanceByDefault(t *testing.T) {
	svc, _ := newImportService()

	// net effect is negative; bulk data is trusted by default
	src := csvHeader + "Rent, outcome, 500.00, Housing\n"

	result, err := svc.Import(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(result.Transactions))
	}
}

func TestImportEnforceBalanceRejectsNegativeNet(t *testing.T) {
	svc, mem := newImportService()
	svc.EnforceBalance = true
	ctx := context.Background()

	src := csvHeader +
		"Salary, income, 100.00, Work\n" +
		"Rent, outcome, 500.00, Housing\n"

	_, err := svc.Import(ctx, strings.NewReader(src))
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// nothing committed, not even categories
	all, err := mem.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty ledger, got %d transactions", len(all))
	}
	cats, err := mem.FindAllByTitles(ctx, []string{"Work", "Housing"})
	if err != nil {
		t.Fatalf("find categories: %v", err)
	}
	if len(cats) != 0 {
		t.Fatalf("expected no categories, got %d", len(cats))
	}
}

func TestImportFileDeletesSourceOnSuccess(t *testing.T) {
	svc, _ := newImportService()

	path := filepath.Join(t.TempDir(), "upload.csv")
	content := csvHeader + "Salary, income, 1000.00, Work\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	result, err := svc.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("import file: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(result.Transactions))
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected consumed file deleted, stat err = %v", err)
	}
}

func TestImportFileKeepsSourceOnFailure(t *testing.T) {
	svc, _ := newImportService()
	svc.EnforceBalance = true

	path := filepath.Join(t.TempDir(), "upload.csv")
	content := csvHeader + "Rent, outcome, 500.00, Housing\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if _, err := svc.ImportFile(context.Background(), path); !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// failed import leaves the source for retry
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected source kept after failure: %v", err)
	}
}

func TestImportFileMissing(t *testing.T) {
	svc, _ := newImportService()
	if _, err := svc.ImportFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
