// Package cli provides common CLI initialization utilities shared by
// cmd/finpulse and cmd/finpulse-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"finpulse/internal/config"
	"finpulse/internal/log"
	"finpulse/internal/storage"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *log.Logger {
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenSnapshotStore opens the SQLite snapshot store with the given path.
// Returns the store or exits the process on failure.
func OpenSnapshotStore(logger *log.Logger, dbPath string) *storage.SQLiteStore {
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot store", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return store
}
