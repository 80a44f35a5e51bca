// Package cli provides common process initialization: logger, env
// file, configuration and store setup shared by entrypoints.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"expenses/internal/config"
	applog "expenses/internal/log"
	"expenses/internal/storage"
)

// SetupLogger initializes structured logging with default settings and
// installs it as the process default.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the record store, applying the configured delete
// policy. Exits the process on failure.
func InitStore(logger *applog.Logger, cfg *config.Config) *storage.Repository {
	var opts []storage.Option
	if cfg.CompactOnDelete {
		opts = append(opts, storage.WithCompaction())
	}
	repo, err := storage.NewRepository(cfg.SQLiteDBPath, opts...)
	if err != nil {
		logger.WithComponent(applog.ComponentStorage).
			Error("Failed to initialize record store", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	return repo
}
