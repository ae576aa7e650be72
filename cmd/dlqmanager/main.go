package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/meetup/internal/config"
	"example.com/meetup/internal/logging"
	"example.com/meetup/internal/outbox"
	"example.com/meetup/internal/persistence/postgres"
	httptransport "example.com/meetup/internal/transport/http"
)

const defaultDLQBatchSize = 50

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("meetup-dlqmanager", "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New("meetup-dlqmanager", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	var metricsSrv *http.Server
	if cfg.MetricsAddress != "" {
		metricsSrv = httptransport.NewServer(httptransport.DefaultServerConfig(cfg.MetricsAddress), httptransport.MetricsHandler())
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddress).Msg("metrics listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	manager := outbox.NewDLQManager(pool, logger, cfg.DLQMaxRetries, cfg.DLQBaseDelay)
	logger.Info().Dur("interval", cfg.DLQPollInterval).Int("max_retries", cfg.DLQMaxRetries).Msg("dlq manager started")
	if err := manager.Run(ctx, cfg.DLQPollInterval, defaultDLQBatchSize); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("dlq manager stopped")
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown")
		}
	}
}
