package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fraud-scorer/internal/cfg"
	"fraud-scorer/internal/common"
	"fraud-scorer/internal/explain"
	"fraud-scorer/internal/metrics"
	"fraud-scorer/internal/ml"
	"fraud-scorer/internal/scoring"
	"fraud-scorer/internal/server"
	"fraud-scorer/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)

	// Initialize components
	m := metrics.New()
	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	lifecycle := ml.NewLifecycle(ml.LifecycleConfig{
		ModelPath: c.ModelPath,
		Registry:  registry(store),
		Metrics:   m,
	})
	if err := lifecycle.Load(); err != nil {
		// Never accept traffic without a model.
		log.Fatal().Err(err).Msg("model startup failed")
	}

	client := explain.New(explain.Config{
		BaseURL: c.ExplanationServiceURL,
		Timeout: c.ExplanationTimeout,
		Metrics: m,
	})
	log.Info().
		Str("url", client.URL()).
		Dur("timeout", c.ExplanationTimeout).
		Msg("explanation service configured")

	orchestrator := scoring.New(lifecycle, client, m)

	srvCfg := server.Config{
		Addr:           c.ListenAddr,
		WriteTimeout:   c.ExplanationTimeout + 15*time.Second,
		RateLimitRPS:   c.RateLimitRPS,
		RateLimitBurst: c.RateLimitBurst,
		Metrics:        m,
	}
	if store != nil {
		srvCfg.History = store
	}
	srv := server.New(srvCfg, orchestrator, lifecycle)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info().
		Str("service", common.ServiceName).
		Str("version", common.ServiceVersion).
		Str("addr", srv.Addr()).
		Bool("model_loaded", lifecycle.Ready()).
		Msg("service ready")

	waitForShutdown(srv, c.ShutdownTimeout, errCh)
}

// setupLogging configures the global zerolog logger from settings.
func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if c.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "fraud-scorer").Logger()
	}
}

// initializeStorage initializes storage if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without model load history")
		return nil
	}
	return store
}

// registry avoids handing the lifecycle a typed nil.
func registry(store *storage.Store) ml.LoadRegistry {
	if store == nil {
		return nil
	}
	return store
}

// waitForShutdown waits for shutdown signals and handles graceful shutdown
func waitForShutdown(srv *server.Server, timeout time.Duration, errCh <-chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
	}

	log.Info().Msg("shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
		return
	}
	log.Info().Msg("server stopped")
}
