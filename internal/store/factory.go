package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mapscope/mapscope/internal/config"
	"github.com/mapscope/mapscope/internal/metrics"
)

// BackendType represents the type of boundary store backend.
type BackendType string

const (
	// BackendStatic serves from the in-memory national dataset.
	BackendStatic BackendType = "static"
	// BackendSupabase serves from the hosted PostgREST tables.
	BackendSupabase BackendType = "supabase"
	// BackendPostgis serves from a self-managed PostGIS database.
	BackendPostgis BackendType = "postgis"
)

// NewStore creates a boundary store backend based on the configuration.
// All backends satisfy the same Store contract, so the selection happens
// once here rather than at call sites.
func NewStore(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	m *metrics.Metrics,
) (Store, error) {
	switch BackendType(cfg.StoreType) {
	case BackendStatic:
		return NewStaticStore(cfg.ZipGeoJSONURL, cfg.CityGeoJSONBaseURL, log, m), nil
	case BackendSupabase:
		if cfg.Supabase.URL == "" || cfg.Supabase.APIKey == "" {
			return nil, errors.New("supabase backend requires a project URL and API key")
		}
		return NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.APIKey, log, m), nil
	case BackendPostgis:
		db, err := NewDatabase(
			ctx,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return NewPostgisStore(db, log, m), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreType)
	}
}
