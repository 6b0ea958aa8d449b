package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/mapscope/mapscope/internal/geometry"
	"github.com/mapscope/mapscope/internal/metrics"
	"github.com/mapscope/mapscope/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// PostgisStore issues point queries against a PostgreSQL database with the
// PostGIS extension, asking the engine to serialize geometry to GeoJSON
// server-side so the wire format matches the other backends.
type PostgisStore struct {
	db      Database
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewPostgisStore creates a relational spatial backend over the given
// database handle.
func NewPostgisStore(db Database, log *slog.Logger, m *metrics.Metrics) *PostgisStore {
	return &PostgisStore{db: db, log: log, metrics: m}
}

// FetchZip returns the boundary feature for an exact zip code match.
func (s *PostgisStore) FetchZip(ctx context.Context, zip string) (*models.BoundaryFeature, bool) {
	query := `
		SELECT name, aland, awater, centroid_lat, centroid_lon, ST_AsGeoJSON(geometry)
		FROM us_zip_codes
		WHERE zip_code = $1;
	`

	var (
		name        *string
		aland       *int64
		awater      *int64
		centroidLat *float64
		centroidLon *float64
		rawGeometry string
	)
	err := s.db.QueryRow(ctx, query, zip).
		Scan(&name, &aland, &awater, &centroidLat, &centroidLon, &rawGeometry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.ErrorContext(ctx, "PostGIS zip lookup failed", "zip", zip, "error", err)
		s.metrics.StoreErrors.WithLabelValues("postgis").Inc()
		return nil, false
	}

	mp, err := decodeGeoJSONColumn(rawGeometry)
	if err != nil {
		s.log.ErrorContext(ctx, "PostGIS zip row has unusable geometry", "zip", zip, "error", err)
		s.metrics.StoreErrors.WithLabelValues("postgis").Inc()
		return nil, false
	}

	feature := &models.BoundaryFeature{
		Zip:      zip,
		Geometry: mp,
		Centroid: coordsFromParts(centroidLat, centroidLon),
	}
	if name != nil {
		feature.Name = *name
	}
	if aland != nil {
		feature.LandArea = *aland
	}
	if awater != nil {
		feature.WaterArea = *awater
	}

	return feature, true
}

// FetchCity returns the boundary feature for a city slug within a state.
func (s *PostgisStore) FetchCity(ctx context.Context, stateAbbr, slug string) (*models.BoundaryFeature, bool) {
	query := `
		SELECT city_name, centroid_lat, centroid_lon, ST_AsGeoJSON(geometry)
		FROM us_cities
		WHERE state_abbr = $1 AND city_slug = $2;
	`

	var (
		cityName    *string
		centroidLat *float64
		centroidLon *float64
		rawGeometry string
	)
	err := s.db.QueryRow(ctx, query, stateAbbr, slug).
		Scan(&cityName, &centroidLat, &centroidLon, &rawGeometry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.ErrorContext(ctx, "PostGIS city lookup failed", "state", stateAbbr, "slug", slug, "error", err)
		s.metrics.StoreErrors.WithLabelValues("postgis").Inc()
		return nil, false
	}

	mp, err := decodeGeoJSONColumn(rawGeometry)
	if err != nil {
		s.log.ErrorContext(ctx, "PostGIS city row has unusable geometry",
			"state", stateAbbr, "slug", slug, "error", err)
		s.metrics.StoreErrors.WithLabelValues("postgis").Inc()
		return nil, false
	}

	feature := &models.BoundaryFeature{
		StateAbbr: stateAbbr,
		Slug:      slug,
		Geometry:  mp,
		Centroid:  coordsFromParts(centroidLat, centroidLon),
	}
	if cityName != nil {
		feature.CityName = *cityName
	}

	return feature, true
}

// decodeGeoJSONColumn parses a server-side serialized geometry and normalizes
// it to the canonical multi-polygon.
func decodeGeoJSONColumn(raw string) (orb.MultiPolygon, error) {
	geom, err := geojson.UnmarshalGeometry([]byte(raw))
	if err != nil {
		return nil, err
	}

	mp, err := geometry.Normalize(geom.Geometry())
	if err != nil {
		return nil, err
	}

	return geometry.Sanitize(mp)
}
