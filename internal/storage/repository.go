package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"gofinances/internal/cache"
	"gofinances/internal/core"
)

const (
	categoryCacheSize    = 512
	categoryCacheTTL     = 10 * time.Minute
	cacheCleanupInterval = 5 * time.Minute
)

// SQLiteRepository persists categories and transactions. It implements both
// store.CategoryStore and store.TransactionStore.
//
// Category rows are immutable once written, so lookups by title go through an
// LRU cache without any invalidation concerns.
type SQLiteRepository struct {
	db         *sql.DB
	categories *cache.LRUCache[core.Category]
	cacheMgr   *cache.Manager
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One connection keeps statements sequential and avoids SQLITE_BUSY
	// under concurrent writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	categories := cache.NewLRUCache[core.Category](categoryCacheSize, categoryCacheTTL)
	mgr := cache.NewManager()
	mgr.Register(categories)
	mgr.StartCleanup(cacheCleanupInterval)

	return &SQLiteRepository{db: db, categories: categories, cacheMgr: mgr}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.cacheMgr != nil {
		r.cacheMgr.Stop()
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FindByTitle implements store.CategoryStore.
func (r *SQLiteRepository) FindByTitle(ctx context.Context, title string) (*core.Category, error) {
	if cached, ok := r.categories.Get(title); ok {
		return &cached, nil
	}

	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title FROM categories WHERE title = ?`, title,
	).Scan(&c.ID, &c.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by title: %w", err)
	}

	r.categories.Set(c.Title, c)
	return &c, nil
}

// FindAllByTitles implements store.CategoryStore.
func (r *SQLiteRepository) FindAllByTitles(ctx context.Context, titles []string) ([]core.Category, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(titles)-1) + "?"
	args := make([]any, len(titles))
	for i, t := range titles {
		args[i] = t
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title FROM categories WHERE title IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("find categories by titles: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		r.categories.Set(c.Title, c)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// CreateCategory implements store.CategoryStore. Losing a title-uniqueness
// race degrades into a lookup of the winner's row.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, title string) (core.Category, error) {
	c := core.Category{ID: uuid.NewString(), Title: title}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, title) VALUES (?, ?)`, c.ID, c.Title)
	if err != nil {
		if existing, findErr := r.FindByTitle(ctx, title); findErr == nil && existing != nil {
			slog.DebugContext(ctx, "Category already existed, reusing", "title", title, "id", existing.ID)
			return *existing, nil
		}
		return core.Category{}, fmt.Errorf("create category %q: %w", title, err)
	}

	r.categories.Set(c.Title, c)
	slog.InfoContext(ctx, "Category created", "id", c.ID, "title", c.Title)
	return c, nil
}

// CreateCategories implements store.CategoryStore. Category creation is
// best-effort row by row; a partially created set is acceptable because the
// transaction batch that references it is what must stay atomic.
func (r *SQLiteRepository) CreateCategories(ctx context.Context, titles []string) ([]core.Category, error) {
	out := make([]core.Category, 0, len(titles))
	for _, title := range titles {
		c, err := r.CreateCategory(ctx, title)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

const transactionColumns = `t.id, t.title, t.value_cents, t.type, c.id, c.title`

func scanTransaction(scan func(...any) error) (core.Transaction, error) {
	var t core.Transaction
	var typ string
	err := scan(&t.ID, &t.Title, &t.Value.Cents, &typ, &t.Category.ID, &t.Category.Title)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	return t, nil
}

// ListAll implements store.TransactionStore.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 ORDER BY t.created_at, t.id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// FindByID implements store.TransactionStore.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.id = ?`, id)

	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction by id: %w", err)
	}
	return &t, nil
}

// CreateTransaction implements store.TransactionStore.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, title, value_cents, type, category_id)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Value.Cents, string(t.Type), t.Category.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"title", t.Title,
		"value_cents", t.Value.Cents,
		"type", string(t.Type),
		"category", t.Category.Title)

	return t, nil
}

// CreateBatch implements store.TransactionStore. The batch runs inside one
// SQL transaction: a failing row rolls back everything already inserted.
func (r *SQLiteRepository) CreateBatch(ctx context.Context, ts []core.Transaction) ([]core.Transaction, error) {
	if len(ts) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (id, title, value_cents, type, category_id)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	out := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		t.ID = uuid.NewString()
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.Title, t.Value.Cents, string(t.Type), t.Category.ID); err != nil {
			return nil, fmt.Errorf("insert transaction %q: %w", t.Title, err)
		}
		out = append(out, t)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch saved", "count", len(out))
	return out, nil
}

// RecordAuditEntries appends one audit row per transaction ID. The rows go
// in atomically so a partially recorded event never lands.
func (r *SQLiteRepository) RecordAuditEntries(ctx context.Context, action string, transactionIDs []string, occurredAt time.Time) error {
	if len(transactionIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO audit_log (action, transaction_id, occurred_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare audit insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range transactionIDs {
		if _, err := stmt.ExecContext(ctx, action, id, occurredAt); err != nil {
			return fmt.Errorf("insert audit entry for %q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit batch: %w", err)
	}

	slog.InfoContext(ctx, "Audit entries recorded", "action", action, "count", len(transactionIDs))
	return nil
}

// Remove implements store.TransactionStore.
func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrTransactionNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}
