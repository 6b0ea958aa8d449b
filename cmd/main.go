package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mapscope/mapscope/internal/config"
	"github.com/mapscope/mapscope/internal/geocoding"
	"github.com/mapscope/mapscope/internal/metrics"
	"github.com/mapscope/mapscope/internal/models"
	"github.com/mapscope/mapscope/internal/resolver"
	"github.com/mapscope/mapscope/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Create the boundary store backend selected by configuration.
	boundaries, err := store.NewStore(ctx, cfg, logger, appMetrics)
	if err != nil {
		log.Fatalf("Failed to create boundary store: %v", err)
	}
	logger.InfoContext(ctx, "Boundary store initialized", "backend", cfg.StoreType)

	// Create geocoding provider using factory pattern based on configuration.
	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:   geocoding.ProviderType(cfg.ProviderType),
		APIKey: cfg.APIKey,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}
	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType)

	// Init the resolution engine over the store and provider.
	engine := resolver.NewService(
		logger,
		boundaries,
		cfg.StoreType,
		geoProvider,
		cfg.ProviderType,
		appMetrics,
		cfg.GeocodeTimeout,
	)

	server := newServer(cfg.Port, engine, logger, reg)

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.", "port", cfg.Port)

	go func() {
		if errSrv := server.ListenAndServe(); errSrv != nil && errSrv != http.ErrServerClosed {
			logger.ErrorContext(ctx, "HTTP server failed", "error", errSrv)
			stop()
		}
	}()

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	shutdownTimeout := 5 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "Failed to shut down HTTP server gracefully", "error", err)
	}

	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// newServer builds the HTTP surface: the query interface consumed by the UI
// layer plus health and metrics endpoints.
func newServer(
	port int,
	engine *resolver.Service,
	logger *slog.Logger,
	reg *prometheus.Registry,
) *http.Server {
	router := chi.NewRouter()

	router.Get("/api/resolve", handleResolve(engine, logger))
	router.Get("/api/suggest", handleSuggest(engine, logger))
	router.Get("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		if _, err := writer.Write([]byte("OK")); err != nil {
			logger.Error("failed to write reply", "error", err)
		}
	})
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	readTimeout := 5 * time.Second
	// Resolutions can wait on the geocoder and a boundary fetch back to back.
	writeTimeout := 30 * time.Second
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

// handleResolve serves the query interface: free text via ?q=, or a
// structured selection via ?kind=zip|place&q= that bypasses classification.
// Every outcome, including total backend failure, is a renderable descriptor.
func handleResolve(engine *resolver.Service, logger *slog.Logger) http.HandlerFunc {
	return func(writer http.ResponseWriter, req *http.Request) {
		query := req.URL.Query().Get("q")

		var descriptor any
		switch req.URL.Query().Get("kind") {
		case "zip":
			descriptor = engine.ResolveSelection(req.Context(), resolver.Selection{Kind: resolver.KindZip, Value: query})
		case "place":
			descriptor = engine.ResolveSelection(req.Context(), resolver.Selection{Kind: resolver.KindPlace, Value: query})
		default:
			descriptor = engine.Resolve(req.Context(), query)
		}

		writeJSON(writer, logger, descriptor)
	}
}

// handleSuggest serves autocomplete candidates for partial input.
func handleSuggest(engine *resolver.Service, logger *slog.Logger) http.HandlerFunc {
	return func(writer http.ResponseWriter, req *http.Request) {
		candidates := engine.Suggest(req.Context(), req.URL.Query().Get("q"))
		if candidates == nil {
			candidates = []models.GeocodedCandidate{}
		}
		writeJSON(writer, logger, candidates)
	}
}

func writeJSON(writer http.ResponseWriter, logger *slog.Logger, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
			}),
		)

		logger.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return logger
}
