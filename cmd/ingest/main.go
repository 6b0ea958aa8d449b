package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mapscope/mapscope/internal/config"
	"github.com/mapscope/mapscope/internal/ingest"
	"github.com/mapscope/mapscope/internal/resolver"
	"github.com/mapscope/mapscope/internal/store"
)

const fetchTimeout = 120 * time.Second

// main runs the one-shot ETL: download the source GeoJSON datasets and load
// them into the relational boundary tables.
func main() {
	withCities := flag.Bool("cities", false, "also load per-state city boundaries")
	workers := flag.Int("workers", 4, "concurrent city fetches per state")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	db, err := store.NewDatabase(
		ctx,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ing := ingest.NewIngestor(db, &http.Client{Timeout: fetchTimeout}, logger, *workers)

	if err = ing.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	loaded, err := ing.LoadZips(ctx, cfg.ZipGeoJSONURL)
	if err != nil {
		log.Fatalf("Failed to load zip boundaries (loaded %d): %v", loaded, err)
	}

	if *withCities {
		if err = ing.LoadCities(ctx, cfg.CityGeoJSONBaseURL, resolver.StateAbbreviations()); err != nil {
			log.Fatalf("Failed to load city boundaries: %v", err)
		}
	}

	logger.InfoContext(ctx, "Ingestion complete", "zips", loaded, "cities_loaded", *withCities)
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	if env == "local" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
