// Package cli holds initialization shared by the gofinances binaries.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"gofinances/internal/config"
	applog "gofinances/internal/log"
)

// Bootstrap loads the optional .env file, installs the default logger for the
// named component, and returns a validated configuration. It exits the process
// when the configuration is invalid.
func Bootstrap(component string) (*config.Config, *applog.Logger) {
	// Missing .env is fine in production.
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: component})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	return cfg, logger
}
