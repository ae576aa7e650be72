package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/meetup/internal/config"
	"example.com/meetup/internal/consumer"
	"example.com/meetup/internal/logging"
	"example.com/meetup/internal/persistence/postgres"
	httptransport "example.com/meetup/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("meetup-consumer", "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New("meetup-consumer", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

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

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        cfg.ConsumerGroup,
		GroupTopics:    cfg.ConsumerTopics,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	defer reader.Close()

	logger.Info().Strs("topics", cfg.ConsumerTopics).Str("group", cfg.ConsumerGroup).Msg("consumer started")
	proc := consumer.NewProcessor(reader, consumer.NewPersistenceHandler(pool), logger)
	if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped")
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown")
		}
	}
}
