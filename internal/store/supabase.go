package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mapscope/mapscope/internal/geometry"
	"github.com/mapscope/mapscope/internal/metrics"
	"github.com/mapscope/mapscope/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
)

const supabaseTimeout = 5 * time.Second

// SupabaseStore issues point queries against the hosted PostgREST tables
// us_zip_codes and us_cities. Geometry columns arrive as hex-encoded EWKB.
type SupabaseStore struct {
	baseURL string
	apiKey  string
	client  HTTPClient
	log     *slog.Logger
	metrics *metrics.Metrics
}

// supabaseZipRow mirrors one row of the us_zip_codes table.
type supabaseZipRow struct {
	ZipCode     string   `json:"zip_code"`
	Name        string   `json:"name"`
	ALand       int64    `json:"aland"`
	AWater      int64    `json:"awater"`
	CentroidLat *float64 `json:"centroid_lat"`
	CentroidLon *float64 `json:"centroid_lon"`
	Geometry    string   `json:"geometry"`
}

// supabaseCityRow mirrors one row of the us_cities table.
type supabaseCityRow struct {
	CityName    string   `json:"city_name"`
	StateAbbr   string   `json:"state_abbr"`
	CitySlug    string   `json:"city_slug"`
	CentroidLat *float64 `json:"centroid_lat"`
	CentroidLon *float64 `json:"centroid_lon"`
	Geometry    string   `json:"geometry"`
}

// NewSupabaseStore creates a document-store backend for the given Supabase
// project URL and API key.
func NewSupabaseStore(baseURL, apiKey string, log *slog.Logger, m *metrics.Metrics) *SupabaseStore {
	return NewSupabaseStoreWithClient(&http.Client{Timeout: supabaseTimeout}, baseURL, apiKey, log, m)
}

// NewSupabaseStoreWithClient creates a Supabase store with a custom HTTP
// client. Useful for testing with mocked HTTP clients.
func NewSupabaseStoreWithClient(
	client HTTPClient,
	baseURL, apiKey string,
	log *slog.Logger,
	m *metrics.Metrics,
) *SupabaseStore {
	return &SupabaseStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		log:     log,
		metrics: m,
	}
}

// FetchZip returns the boundary feature for an exact zip code match.
func (s *SupabaseStore) FetchZip(ctx context.Context, zip string) (*models.BoundaryFeature, bool) {
	filters := url.Values{}
	filters.Set("zip_code", "eq."+zip)

	var rows []supabaseZipRow
	if err := s.query(ctx, "us_zip_codes", filters, &rows); err != nil {
		s.log.ErrorContext(ctx, "Supabase zip lookup failed", "zip", zip, "error", err)
		s.metrics.StoreErrors.WithLabelValues("supabase").Inc()
		return nil, false
	}
	if len(rows) == 0 {
		return nil, false
	}
	row := rows[0]

	mp, err := decodeEWKB(row.Geometry)
	if err != nil {
		s.log.ErrorContext(ctx, "Supabase zip row has unusable geometry", "zip", zip, "error", err)
		s.metrics.StoreErrors.WithLabelValues("supabase").Inc()
		return nil, false
	}

	return &models.BoundaryFeature{
		Zip:       row.ZipCode,
		Name:      row.Name,
		Geometry:  mp,
		Centroid:  coordsFromParts(row.CentroidLat, row.CentroidLon),
		LandArea:  row.ALand,
		WaterArea: row.AWater,
	}, true
}

// FetchCity returns the boundary feature for a city slug within a state.
func (s *SupabaseStore) FetchCity(ctx context.Context, stateAbbr, slug string) (*models.BoundaryFeature, bool) {
	filters := url.Values{}
	filters.Set("state_abbr", "eq."+stateAbbr)
	filters.Set("city_slug", "eq."+slug)

	var rows []supabaseCityRow
	if err := s.query(ctx, "us_cities", filters, &rows); err != nil {
		s.log.ErrorContext(ctx, "Supabase city lookup failed", "state", stateAbbr, "slug", slug, "error", err)
		s.metrics.StoreErrors.WithLabelValues("supabase").Inc()
		return nil, false
	}
	if len(rows) == 0 {
		return nil, false
	}
	row := rows[0]

	mp, err := decodeEWKB(row.Geometry)
	if err != nil {
		s.log.ErrorContext(ctx, "Supabase city row has unusable geometry",
			"state", stateAbbr, "slug", slug, "error", err)
		s.metrics.StoreErrors.WithLabelValues("supabase").Inc()
		return nil, false
	}

	return &models.BoundaryFeature{
		CityName:  row.CityName,
		StateAbbr: row.StateAbbr,
		Slug:      row.CitySlug,
		Geometry:  mp,
		Centroid:  coordsFromParts(row.CentroidLat, row.CentroidLon),
	}, true
}

// query performs a single PostgREST point query and decodes the row list.
func (s *SupabaseStore) query(ctx context.Context, table string, filters url.Values, out any) error {
	reqURL, err := url.Parse(fmt.Sprintf("%s/rest/v1/%s", s.baseURL, table))
	if err != nil {
		return fmt.Errorf("failed to parse base URL: %w", err)
	}

	filters.Set("select", "*")
	filters.Set("limit", "1")
	reqURL.RawQuery = filters.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("supabase API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode supabase response: %w", err)
	}

	return nil
}

// decodeEWKB converts the hex-encoded EWKB geometry column into the
// canonical multi-polygon, repairing it when possible.
func decodeEWKB(encoded string) (orb.MultiPolygon, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("geometry column is not valid hex: %w", err)
	}

	geom, _, err := ewkb.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EWKB geometry: %w", err)
	}

	mp, err := geometry.Normalize(geom)
	if err != nil {
		return nil, err
	}

	return geometry.Sanitize(mp)
}

func coordsFromParts(lat, lon *float64) *models.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &models.Coordinates{Latitude: *lat, Longitude: *lon}
}
