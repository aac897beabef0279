package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"supertienda-dashboard/internal/config"
	"supertienda-dashboard/internal/middleware"
	"supertienda-dashboard/internal/observability"
	"supertienda-dashboard/internal/server"
	"supertienda-dashboard/internal/services"
	"supertienda-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application", "version", "1.0.0", "csv_file", cfg.Dataset.CSVFile)

	store := services.NewStore(logger)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.LoadTimeout)
	if err := store.LoadFromCSV(ctx, cfg.Dataset.CSVFile); err != nil {
		// The service stays up: every report answers 503 until the file
		// is fixed and the process restarted.
		logger.Error("dataset load failed, serving unavailable", "error", err, "path", cfg.Dataset.CSVFile)
	}
	cancel()

	analytics := services.NewAnalytics(store, logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service")
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
