package store

import (
	"context"

	"gofinances/internal/core"
)

// Ports for the ledger's persistence backends. Both the SQLite repository
// and the in-memory store implement these.
type (
	CategoryStore interface {
		// FindByTitle returns the category with the exact title, or nil
		// when absent.
		FindByTitle(ctx context.Context, title string) (*core.Category, error)

		// FindAllByTitles returns the existing categories whose title is in
		// the given set. Missing titles are simply not in the result.
		FindAllByTitles(ctx context.Context, titles []string) ([]core.Category, error)

		// CreateCategory allocates a category with a store-assigned ID.
		// When another writer created the same title first, the existing
		// category is returned instead of a duplicate.
		CreateCategory(ctx context.Context, title string) (core.Category, error)

		// CreateCategories is the bulk variant for import.
		CreateCategories(ctx context.Context, titles []string) ([]core.Category, error)
	}

	TransactionStore interface {
		ListAll(ctx context.Context) ([]core.Transaction, error)

		// FindByID returns nil when no transaction has the given id.
		FindByID(ctx context.Context, id string) (*core.Transaction, error)

		// CreateTransaction persists one transaction, assigning its ID.
		// The category must already exist.
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)

		// CreateBatch persists a batch atomically: either every transaction
		// commits or none do.
		CreateBatch(ctx context.Context, ts []core.Transaction) ([]core.Transaction, error)

		Remove(ctx context.Context, id string) error
	}
)
