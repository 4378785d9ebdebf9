package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"adwatch/internal/adapter/facebook"
	httpadapter "adwatch/internal/adapter/http"
	"adwatch/internal/adapter/postgres"
	"adwatch/internal/adapter/usecase"
	"adwatch/internal/config"
	"adwatch/internal/db"
	"adwatch/internal/metrics"
)

// main is the entry point of the adwatch service. It loads configuration,
// optionally runs database migrations, initializes the database pool and
// repositories, starts the background scheduler and the HTTP server. On
// receiving a termination signal it gracefully shuts everything down.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied successfully")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	policies := postgres.NewPolicyRepository(pool)
	assignments := postgres.NewAssignmentRepository(pool)
	tokens := postgres.NewTokenRepository(pool)
	reports := postgres.NewReportRepository(pool)

	if cfg.Checks.SeedFile != "" {
		if err = db.Seed(ctx, cfg.Checks.SeedFile, policies, assignments, tokens); err != nil {
			logger.Error("seed error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("seed applied", slog.String("file", cfg.Checks.SeedFile))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	clients := facebook.NewFactory(tokens, cfg.Facebook, m.PlatformRetries, logger)
	checker := usecase.NewChecker(policies, assignments, reports, clients, m, logger, cfg.Checks.InsightConcurrency)

	tracker, err := usecase.NewTracker(checker, cfg.Checks.Workers, cfg.Checks.JobTTL, m, logger)
	if err != nil {
		logger.Error("tracker init error", slog.Any("error", err))
		os.Exit(1)
	}
	defer tracker.Close()

	if cfg.Scheduler.Enabled {
		scheduler := usecase.NewScheduler(assignments, checker, cfg.Scheduler.Tick, logger)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	handler := httpadapter.NewHandler(policies, assignments, tokens, reports, clients, checker, tracker, registry, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
