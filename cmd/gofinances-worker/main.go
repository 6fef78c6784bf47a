package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"gofinances/internal/amqp"
	"gofinances/internal/cli"
	"gofinances/internal/storage"
	"gofinances/internal/worker"
)

// gofinances-worker consumes transaction events from the broker and records
// them to the audit log in SQLite.
func main() {
	cfg, logger := cli.Bootstrap("worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err, "url", cfg.AMQPURL)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting audit worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	auditWorker := worker.NewAuditWorker(repo)
	if err := auditWorker.Run(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
