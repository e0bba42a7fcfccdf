package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rootedinspeech/internal/api"
	"rootedinspeech/internal/config"
	"rootedinspeech/internal/database"
	"rootedinspeech/internal/logging"
	"rootedinspeech/internal/models"

	"github.com/rs/zerolog"
)

// defaultServices seeds an empty catalog when the config lists none.
var defaultServices = []models.Service{
	{ID: "svc-speech-eval", Title: "Speech & Language Evaluation", PriceCents: 15000, DurationMinutes: 60},
	{ID: "svc-speech-therapy", Title: "Speech Therapy Session", PriceCents: 9000, DurationMinutes: 45},
	{ID: "svc-behavior-consult", Title: "Behavior Consultation", PriceCents: 10000, DurationMinutes: 50},
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DevAPI.Backup.Enabled {
		backups := database.NewBackupService(db, cfg.DevAPI.Backup, logging.Component(logger, "backup"))
		go backups.Start(ctx)
	}

	httpServer := api.NewHTTPServer(cfg.DevAPI, db, logging.Component(logger, "devapi-http"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.DevAPI.Port).Str("db_path", db.Path()).Msg("reference backend started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("reference backend stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App, "devapi")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "devapi-main"), closer, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.DevAPI.DatabasePath, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.DevAPI.DatabasePath).Msg("init database")
		return nil, err
	}

	services := cfg.DevAPI.Services
	if len(services) == 0 {
		services = defaultServices
	}
	if err := db.SyncServices(ctx, services); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed services: %w", err)
	}
	logger.Info().Int("count", len(services)).Msg("service catalog synced")

	return db, nil
}
