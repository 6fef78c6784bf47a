package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gofinances/internal/amqp"
	"gofinances/internal/core"
	"gofinances/internal/store"
)

// TransactionService enforces the balance invariant and creates single
// transactions, provisioning the referenced category on first use.
type TransactionService struct {
	categories   store.CategoryStore
	transactions store.TransactionStore
	events       *amqp.Client

	// writeMu serializes balance-check-and-create. Without it two concurrent
	// outcome creates could both read the same balance and both commit,
	// driving the total negative.
	writeMu sync.Mutex
}

// CreateTransactionInput is the caller-supplied request for one transaction.
type CreateTransactionInput struct {
	Title         string
	Value         core.Money
	Type          core.TransactionType
	CategoryTitle string
}

func NewTransactionService(categories store.CategoryStore, transactions store.TransactionStore, events *amqp.Client) *TransactionService {
	return &TransactionService{
		categories:   categories,
		transactions: transactions,
		events:       events,
	}
}

// CreateTransaction validates the input, rejects outcomes that would drive
// the balance negative, resolves or creates the category, and persists the
// transaction. The balance check runs strictly before any mutation so a
// rejected transaction never leaves an orphan category behind.
func (s *TransactionService) CreateTransaction(ctx context.Context, in CreateTransactionInput) (core.Transaction, error) {
	candidate := core.Transaction{
		Title:    strings.TrimSpace(in.Title),
		Value:    in.Value,
		Type:     in.Type,
		Category: core.Category{Title: strings.TrimSpace(in.CategoryTitle)},
	}
	if err := candidate.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if candidate.Type == core.Outcome {
		balance, err := s.GetBalance(ctx)
		if err != nil {
			return core.Transaction{}, err
		}
		if balance.Total.Cents < candidate.Value.Cents {
			return core.Transaction{}, core.ErrInsufficientBalance
		}
	}

	category, err := s.resolveCategory(ctx, candidate.Category.Title)
	if err != nil {
		return core.Transaction{}, err
	}
	candidate.Category = category

	created, err := s.transactions.CreateTransaction(ctx, candidate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionCreated, created.ID))

	return created, nil
}

// resolveCategory looks the title up and creates the category on a miss.
// Implicit provisioning is the documented contract: creating a transaction
// may create exactly one category as a byproduct.
func (s *TransactionService) resolveCategory(ctx context.Context, title string) (core.Category, error) {
	existing, err := s.categories.FindByTitle(ctx, title)
	if err != nil {
		return core.Category{}, fmt.Errorf("look up category: %w", err)
	}
	if existing != nil {
		return *existing, nil
	}

	created, err := s.categories.CreateCategory(ctx, title)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

// ListTransactions returns every committed transaction together with the
// balance derived from the same snapshot.
func (s *TransactionService) ListTransactions(ctx context.Context) ([]core.Transaction, core.Balance, error) {
	all, err := s.transactions.ListAll(ctx)
	if err != nil {
		return nil, core.Balance{}, fmt.Errorf("list transactions: %w", err)
	}
	return all, core.ComputeBalance(all), nil
}

// GetBalance recomputes the balance from the current transaction set.
func (s *TransactionService) GetBalance(ctx context.Context) (core.Balance, error) {
	all, err := s.transactions.ListAll(ctx)
	if err != nil {
		return core.Balance{}, fmt.Errorf("list transactions for balance: %w", err)
	}
	return core.ComputeBalance(all), nil
}

func (s *TransactionService) publish(ctx context.Context, event *amqp.TransactionEvent) {
	if s.events == nil {
		return
	}
	// The ledger write already succeeded; a lost event is logged, not surfaced.
	if err := s.events.PublishTransactionEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", event.Action, "error", err)
	}
}
