package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"rootedinspeech/internal/backend"
	"rootedinspeech/internal/config"
	"rootedinspeech/internal/domain"
	"rootedinspeech/internal/events"
	"rootedinspeech/internal/logging"
	"rootedinspeech/internal/metrics"
	"rootedinspeech/internal/repository"
	"rootedinspeech/internal/service"
	"rootedinspeech/internal/web"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

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

	loc, err := cfg.Booking.Location()
	if err != nil {
		return fmt.Errorf("booking timezone: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instanceID := uuid.NewString()
	bus := events.NewEventBus()
	client := backend.NewClient(cfg.Backend, logging.Component(logger, "backend"))

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
		client.UseRedisCache(redisClient, cfg.Backend.ServicesTTL)
		go func() {
			if err := repository.RelaySessionChanges(ctx, redisClient, instanceID, bus, logger); err != nil {
				logger.Error().Err(err).Msg("session relay stopped")
			}
		}()
	}

	sessions := service.NewSessionService(initSessionRepository(cfg, redisClient, instanceID, logger), bus, logging.Component(logger, "session"))
	catalog := service.NewCatalogService(client, logging.Component(logger, "catalog"))
	bookings := service.NewBookingService(catalog, client, bus, loc, cfg.Booking.WorkflowTTL, logging.Component(logger, "booking"))
	stopAudit := service.WatchBookingOutcomes(bus, logging.Component(logger, "booking-audit"))
	defer stopAudit()
	accounts := service.NewAccountService(client, sessions, logging.Component(logger, "account"))

	server, err := web.NewServer(web.Deps{
		Config:   cfg,
		Sessions: sessions,
		Bookings: bookings,
		Accounts: accounts,
		Logger:   logging.Component(logger, "web"),
	})
	if err != nil {
		return err
	}

	startMetrics(ctx, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info().
		Int("port", cfg.HTTP.Port).
		Str("backend", cfg.Backend.BaseURL).
		Str("timezone", loc.String()).
		Str("instance_id", instanceID).
		Msg("web frontend started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("web server shutdown")
	}

	logger.Info().Msg("web frontend stopped")
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

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App, "web")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "web-main"), closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with in-memory sessions")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initSessionRepository prefers Redis and falls back to process memory.
func initSessionRepository(cfg *config.Config, redisClient *redis.Client, instanceID string, logger *zerolog.Logger) domain.SessionRepository {
	memory := repository.NewMemorySessionRepository(cfg.Session.TTL)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisSessionRepository(redisClient, cfg.Session.TTL, instanceID)
	return repository.NewFailoverSessionRepository(primary, memory, logging.Component(logger, "session-store"))
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
