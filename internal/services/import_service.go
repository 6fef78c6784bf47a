package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gofinances/internal/amqp"
	"gofinances/internal/core"
	"gofinances/internal/store"
)

// ImportService ingests a tabular source of transactions: one header row,
// then rows of (title, type, value, category). Rows missing title, type or
// value are dropped as a data-quality filter, not reported as errors.
type ImportService struct {
	categories   store.CategoryStore
	transactions store.TransactionStore
	events       *amqp.Client

	// EnforceBalance applies the single-transaction balance invariant to
	// the batch's net effect. Off by default: imported outcome rows are
	// trusted bulk data.
	EnforceBalance bool
}

// ImportResult carries the committed transactions and how many source rows
// the filter dropped.
type ImportResult struct {
	Transactions []core.Transaction
	Skipped      int
}

func NewImportService(categories store.CategoryStore, transactions store.TransactionStore, events *amqp.Client) *ImportService {
	return &ImportService{
		categories:   categories,
		transactions: transactions,
		events:       events,
	}
}

type importRow struct {
	title         string
	typ           core.TransactionType
	value         core.Money
	categoryTitle string
}

// Import parses the whole source, resolves categories in bulk and commits
// every parsed row in one atomic batch.
func (s *ImportService) Import(ctx context.Context, source io.Reader) (ImportResult, error) {
	rows, skipped, err := parseRows(source)
	if err != nil {
		return ImportResult{}, err
	}
	if len(rows) == 0 {
		return ImportResult{Skipped: skipped}, nil
	}

	if s.EnforceBalance {
		if err := s.checkBatchBalance(ctx, rows); err != nil {
			return ImportResult{}, err
		}
	}

	pool, err := s.resolveCategories(ctx, rows)
	if err != nil {
		return ImportResult{}, err
	}

	batch := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		batch = append(batch, core.Transaction{
			Title:    row.title,
			Value:    row.value,
			Type:     row.typ,
			Category: pool[row.categoryTitle],
		})
	}

	created, err := s.transactions.CreateBatch(ctx, batch)
	if err != nil {
		return ImportResult{}, fmt.Errorf("save transaction batch: %w", err)
	}

	slog.InfoContext(ctx, "Import committed",
		"transactions", len(created),
		"skipped_rows", skipped)

	if s.events != nil {
		ids := make([]string, len(created))
		for i, t := range created {
			ids[i] = t.ID
		}
		if err := s.events.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(amqp.ActionImported, ids...)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish import event", "count", len(ids), "error", err)
		}
	}

	return ImportResult{Transactions: created, Skipped: skipped}, nil
}

// ImportFile imports from a file on disk. The file is closed on every path
// and deleted only after a fully successful import, so a failed batch
// leaves the source available for retry.
func (s *ImportService) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open import file: %w", err)
	}

	res, importErr := s.Import(ctx, f)
	closeErr := f.Close()
	if importErr != nil {
		return ImportResult{}, importErr
	}
	if closeErr != nil {
		return ImportResult{}, fmt.Errorf("close import file: %w", closeErr)
	}

	if err := os.Remove(path); err != nil {
		slog.WarnContext(ctx, "Failed to delete consumed import file", "path", path, "error", err)
	}

	return res, nil
}

// parseRows iterates the source synchronously, collecting candidate rows.
// Collecting before any store access keeps "still parsing" and "resolving
// categories" strictly ordered.
func parseRows(source io.Reader) ([]importRow, int, error) {
	reader := csv.NewReader(source)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Header row is ignored; an empty source imports nothing.
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	var rows []importRow
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		row, ok := parseRow(record)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

func parseRow(record []string) (importRow, bool) {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	if len(record) < 4 {
		return importRow{}, false
	}

	title, typ, valueStr, category := record[0], record[1], record[2], record[3]
	if title == "" || typ == "" || valueStr == "" || category == "" {
		return importRow{}, false
	}

	txType := core.TransactionType(typ)
	if !txType.Valid() {
		return importRow{}, false
	}

	value, err := core.ParseAmount(valueStr)
	if err != nil {
		return importRow{}, false
	}

	return importRow{
		title:         title,
		typ:           txType,
		value:         value,
		categoryTitle: category,
	}, true
}

// resolveCategories bulk-looks-up the referenced titles, creates the
// genuinely new ones once each, and returns the combined pool by title.
func (s *ImportService) resolveCategories(ctx context.Context, rows []importRow) (map[string]core.Category, error) {
	seen := make(map[string]struct{}, len(rows))
	titles := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.categoryTitle]; ok {
			continue
		}
		seen[row.categoryTitle] = struct{}{}
		titles = append(titles, row.categoryTitle)
	}

	existing, err := s.categories.FindAllByTitles(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("look up categories: %w", err)
	}

	pool := make(map[string]core.Category, len(titles))
	for _, c := range existing {
		pool[c.Title] = c
	}

	var missing []string
	for _, title := range titles {
		if _, ok := pool[title]; !ok {
			missing = append(missing, title)
		}
	}

	if len(missing) > 0 {
		created, err := s.categories.CreateCategories(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("create categories: %w", err)
		}
		for _, c := range created {
			pool[c.Title] = c
		}
	}

	return pool, nil
}

// checkBatchBalance rejects the batch when its net effect would drive the
// total negative. Runs before category creation so a rejected import
// mutates nothing.
func (s *ImportService) checkBatchBalance(ctx context.Context, rows []importRow) error {
	all, err := s.transactions.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list transactions for balance: %w", err)
	}
	total := core.ComputeBalance(all).Total.Cents

	var delta int64
	for _, row := range rows {
		switch row.typ {
		case core.Income:
			delta += row.value.Cents
		case core.Outcome:
			delta -= row.value.Cents
		}
	}

	if total+delta < 0 {
		return core.ErrInsufficientBalance
	}
	return nil
}
