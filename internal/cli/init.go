// Package cli provides common CLI initialization utilities shared by the
// bankrecon subcommands and cmd/oauth-init.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bankrecon/internal/config"
	"bankrecon/internal/log"
	"bankrecon/internal/storage"
)

// SetupLogger builds the application logger from the logging section and
// sets it as the default logger.
func SetupLogger(cfg config.LogConfig, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	lc := log.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.Format
	if out != nil {
		lc.Output = out
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// LoadAndValidateConfig loads configuration from path (optional) and the
// environment, then validates it.
func LoadAndValidateConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitSQLite opens the reconciliation store at dbPath.
func InitSQLite(logger *log.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		return nil, err
	}
	return repo, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. A run
// interrupted this way aborts like any other failure.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
