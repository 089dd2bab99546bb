// Package server exposes the fraud scoring HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"fraud-scorer/internal/common"
	"fraud-scorer/internal/features"
	"fraud-scorer/internal/ml"
	"fraud-scorer/internal/scoring"
	"fraud-scorer/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Predictor scores one transaction.
type Predictor interface {
	Predict(ctx context.Context, in features.TransactionInput) (scoring.FraudPrediction, error)
}

// ModelState reports model readiness and metadata.
type ModelState interface {
	Ready() bool
	Metadata() (ml.ModelMetadata, bool)
}

// LoadHistory lists recorded model loads, newest first.
type LoadHistory interface {
	ListModelLoads(limit int) ([]storage.ModelLoad, error)
}

// MetricsInterface defines metrics methods needed by the server
type MetricsInterface interface {
	HTTPRequestInc(method, route string, status int)
}

// Config configures the HTTP server. Zero values fall back to defaults.
type Config struct {
	Addr string
	// WriteTimeout must leave room for the explanation call.
	WriteTimeout   time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Gatherer       prometheus.Gatherer
	History        LoadHistory
	Metrics        MetricsInterface
}

const (
	defaultWriteTimeout = 45 * time.Second
	defaultHistoryLimit = 20
)

// Server serves the scoring API.
type Server struct {
	predictor Predictor
	models    ModelState
	history   LoadHistory
	metrics   MetricsInterface
	limiters  *ipLimiters
	gatherer  prometheus.Gatherer
	server    *http.Server
}

// New creates a server. It does not start listening.
func New(cfg Config, predictor Predictor, models ModelState) *Server {
	if cfg.Addr == "" {
		cfg.Addr = common.DefaultListenAddr
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		predictor: predictor,
		models:    models,
		history:   cfg.History,
		metrics:   cfg.Metrics,
		gatherer:  cfg.Gatherer,
	}
	if cfg.RateLimitRPS > 0 {
		s.limiters = newIPLimiters(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.With(s.rateLimit, limitBody).Post("/predict", s.handlePredict)
	r.Get("/model/info", s.handleModelInfo)
	r.Get("/model/history", s.handleModelHistory)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting fraud scoring server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
