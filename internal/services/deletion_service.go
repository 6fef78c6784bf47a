package services

import (
	"context"
	"fmt"
	"log/slog"

	"gofinances/internal/amqp"
	"gofinances/internal/core"
	"gofinances/internal/store"
)

// DeletionService removes transactions after checking they exist. Deletion
// does not re-validate the balance: removing an outcome moves the total up,
// and removing an income is accepted as a ledger correction.
type DeletionService struct {
	transactions store.TransactionStore
	events       *amqp.Client
}

func NewDeletionService(transactions store.TransactionStore, events *amqp.Client) *DeletionService {
	return &DeletionService{transactions: transactions, events: events}
}

func (s *DeletionService) DeleteTransaction(ctx context.Context, id string) error {
	existing, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("look up transaction: %w", err)
	}
	if existing == nil {
		return core.ErrTransactionNotFound
	}

	if err := s.transactions.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove transaction: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(amqp.ActionDeleted, id)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete event", "id", id, "error", err)
		}
	}

	return nil
}
