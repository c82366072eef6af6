package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/arbiterhq/arbiter/api"
	"github.com/arbiterhq/arbiter/archive"
	"github.com/arbiterhq/arbiter/capability"
	"github.com/arbiterhq/arbiter/config"
	"github.com/arbiterhq/arbiter/engine"
	"github.com/arbiterhq/arbiter/journal"
	"github.com/arbiterhq/arbiter/metrics"
	"github.com/arbiterhq/arbiter/policy"
	"github.com/arbiterhq/arbiter/store"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Str("archive_dsn", cfg.ArchiveDSN).
		Int("journal_capacity", cfg.JournalCapacity).
		Msg("starting arbiter")

	// Archival sink
	arc, err := archive.NewSQLiteArchive(cfg.ArchiveDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize archive")
	}
	defer arc.Close()

	// Policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize policy engine")
	}

	// Capability registry
	registry := capability.NewRegistry()
	for _, h := range capability.Defaults() {
		registry.Register(h)
	}
	registry.Register(capability.NewPolicyVerifier(policyEngine))

	// Core services
	m := metrics.New(prometheus.DefaultRegisterer)
	jr := journal.New(cfg.JournalCapacity, log)
	st := store.New()
	eng := engine.New(st, jr, registry, engine.TemplateProvider{}, arc, m, cfg, log)

	// HTTP server
	h := api.NewHandler(eng, cfg, log)

	server := echo.New()
	server.HideBanner = true
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())
	server.Use(middleware.CORS())
	h.RegisterRoutes(server)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	log.Info().Int("port", cfg.HTTPPort).Msg("API started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down server gracefully")
	}

	log.Info().Msg("stopped")
}
