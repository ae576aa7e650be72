package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"example.com/meetup/internal/api"
	"example.com/meetup/internal/auth"
	"example.com/meetup/internal/config"
	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/logging"
	"example.com/meetup/internal/outbox"
	"example.com/meetup/internal/persistence/memory"
	"example.com/meetup/internal/persistence/postgres"
	httptransport "example.com/meetup/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("meetup-api", "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New("meetup-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store domain.Store
	var dispatcher *outbox.Dispatcher
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory store; data is lost on exit")
		store = memory.New()
	default:
		pool, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		store = postgres.New(pool)

		if cfg.OutboxEnabled {
			producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
			defer producer.Close()

			queue := outbox.NewPostgresQueue(pool, outbox.DefaultClaimTTL, outbox.Backoff{Base: cfg.DLQBaseDelay})
			registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
			dispatcher = outbox.NewDispatcher(queue, producer, registry, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
			go dispatcher.Start(ctx)
		}
	}

	service := domain.NewService(store, logger)
	handler := api.NewHandler(service, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		CORSOrigin:   cfg.CORSOrigin,
		Logger:       logger,
		ServeMetrics: cfg.MetricsAddress == "",
		Register:     handler.RegisterRoutes,
	})

	servers := []*http.Server{httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), router)}
	if cfg.MetricsAddress != "" {
		servers = append(servers, httptransport.NewServer(httptransport.DefaultServerConfig(cfg.MetricsAddress), httptransport.MetricsHandler()))
	}
	for _, srv := range servers {
		go serve(logger, srv)
	}

	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("addr", srv.Addr).Msg("graceful shutdown failed")
		}
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}

func serve(logger zerolog.Logger, srv *http.Server) {
	logger.Info().Str("addr", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Str("addr", srv.Addr).Msg("server error")
	}
}
