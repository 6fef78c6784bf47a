package backend

import (
	"fmt"
	"log/slog"

	"gofinances/internal/config"
	"gofinances/internal/storage"
	"gofinances/internal/store/memory"
)

// Factory builds stores from application configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create constructs the backend named by cfg.LedgerBackend.
func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	backendType := Type(cfg.LedgerBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.LedgerBackend)
	}

	switch backendType {
	case SQLite:
		return f.createSQLite(cfg)
	case Memory:
		return f.createMemory()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}

func (f *Factory) createSQLite(cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)

	return &Result{
		Categories:   repo,
		Transactions: repo,
		Cleanup:      repo.Close,
	}, nil
}

func (f *Factory) createMemory() (*Result, error) {
	mem := memory.New()

	f.logger.Info("Initialized in-memory backend")

	return &Result{
		Categories:   mem,
		Transactions: mem,
	}, nil
}
