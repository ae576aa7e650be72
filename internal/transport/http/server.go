// Package httptransport assembles the HTTP server and its middleware chain.
package httptransport

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"example.com/meetup/internal/auth"
)

// ServerConfig contains tunables for the HTTP server.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the timeouts used by the API binary.
func DefaultServerConfig(address string) ServerConfig {
	return ServerConfig{
		Address:      address,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates *http.Server with provided handler.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// RouterConfig describes the full handler chain.
type RouterConfig struct {
	Auth       auth.Config
	CORSOrigin string
	Logger     zerolog.Logger
	// ServeMetrics mounts /metrics on the API router. Leave false when a
	// separate metrics listener is used.
	ServeMetrics bool
	Register     func(r *mux.Router)
}

// NewRouter builds the mux router and wraps it as
// recover -> request id -> access log -> CORS -> auth -> router.
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(Instrument)
	if cfg.ServeMetrics {
		router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
	if cfg.Register != nil {
		cfg.Register(router)
	}

	var handler http.Handler = router
	handler = auth.NewMiddleware(cfg.Auth).Wrap(handler)
	handler = CORS(cfg.CORSOrigin)(handler)
	handler = AccessLog(cfg.Logger)(handler)
	handler = RequestID(handler)
	handler = Recover(cfg.Logger)(handler)
	return handler
}

// MetricsHandler serves only /metrics, for a dedicated metrics listener.
func MetricsHandler() http.Handler {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	return m
}
