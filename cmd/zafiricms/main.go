// Zafiri CMS Core - Content Management Backend
//
// This is the main entry point for the Zafiri CMS server. It serves the
// admin console API: authentication with rotating refresh tokens, generic
// CRUD for every registered content collection, uploaded media, and a
// WebSocket channel announcing content changes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/zafiri/cms-core/migrations"

	"github.com/zafiri/cms-core/internal/api"
	"github.com/zafiri/cms-core/internal/auth"
	"github.com/zafiri/cms-core/internal/content"
	"github.com/zafiri/cms-core/internal/infrastructure/config"
	"github.com/zafiri/cms-core/internal/infrastructure/database"
	"github.com/zafiri/cms-core/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Zafiri CMS Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	users := auth.NewUserRepository(db.DB)
	tokens := auth.NewTokenRepository(db.DB)
	records := content.NewRepository(db.DB)

	// First boot: create the initial admin account. The generated
	// password is logged once and must be changed after login.
	seedPassword, err := auth.SeedAdmin(ctx, users, log.Logger)
	if err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}
	if seedPassword != "" {
		log.Warn("initial admin account created",
			"username", "admin",
			"password", seedPassword,
		)
	}

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Events:   cfg.Events,
		Security: cfg.Security,
		Uploads:  cfg.Uploads,
		Logger:   log,
		Users:    users,
		Tokens:   tokens,
		Records:  records,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server listening",
		"host", cfg.API.Host,
		"port", cfg.API.Port,
		"collections", len(content.Collections),
	)

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Zafiri CMS Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ZAFIRI_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ZAFIRI_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
