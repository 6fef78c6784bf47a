// Package worker consumes ledger events and records them to the audit log.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gofinances/internal/amqp"
)

// AuditRecorder persists one audit row per transaction named in an event.
type AuditRecorder interface {
	RecordAuditEntries(ctx context.Context, action string, transactionIDs []string, occurredAt time.Time) error
}

// AuditWorker turns transaction events into durable audit log rows so that
// mutations survive independently of the ledger tables they touched.
type AuditWorker struct {
	recorder AuditRecorder
}

func NewAuditWorker(recorder AuditRecorder) *AuditWorker {
	return &AuditWorker{recorder: recorder}
}

// HandleEvent records a single event. Unknown actions are rejected so the
// broker does not requeue garbage forever.
func (w *AuditWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	switch event.Action {
	case amqp.ActionCreated, amqp.ActionDeleted, amqp.ActionImported:
	default:
		return fmt.Errorf("unknown event action %q", event.Action)
	}

	if len(event.TransactionIDs) == 0 {
		slog.WarnContext(ctx, "Event carries no transaction IDs, skipping",
			"action", event.Action)
		return nil
	}

	if err := w.recorder.RecordAuditEntries(ctx, event.Action, event.TransactionIDs, event.Timestamp); err != nil {
		return fmt.Errorf("record audit entries: %w", err)
	}

	slog.InfoContext(ctx, "Recorded audit entries",
		"action", event.Action,
		"count", len(event.TransactionIDs))

	return nil
}

// Run consumes events from the queue until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeTransactionEvents(ctx, func(event *amqp.TransactionEvent) error {
		return w.HandleEvent(ctx, event)
	})
}
