package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gofinances/internal/amqp"
	"gofinances/internal/backend"
	"gofinances/internal/cli"
	apphttp "gofinances/internal/http"
	"gofinances/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap("server")

	factory := backend.NewFactory(logger.Logger)
	stores, err := factory.Create(cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}
	defer stores.Close()

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer events.Close()
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	transactionService := services.NewTransactionService(stores.Categories, stores.Transactions, events)
	deletionService := services.NewDeletionService(stores.Transactions, events)
	importService := services.NewImportService(stores.Categories, stores.Transactions, events)
	importService.EnforceBalance = cfg.ImportEnforceBalance

	srv := apphttp.NewServer(":"+cfg.Port, transactionService, deletionService, importService, apphttp.Options{
		UploadDir:          cfg.UploadDir,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting gofinances server", "port", cfg.Port, "backend", cfg.LedgerBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
