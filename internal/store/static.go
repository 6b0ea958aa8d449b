package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mapscope/mapscope/internal/geometry"
	"github.com/mapscope/mapscope/internal/metrics"
	"github.com/mapscope/mapscope/internal/models"
	gocache "github.com/patrickmn/go-cache"
	"github.com/paulmach/orb/geojson"
)

// Property keys of the source datasets. The ZCTA keys come from the census
// 2010 vintage used by the national zip GeoJSON file.
const (
	zipCodeProp   = "ZCTA5CE10"
	zipNameProp   = "NAME10"
	intPtLatProp  = "INTPTLAT10"
	intPtLonProp  = "INTPTLON10"
	landAreaProp  = "ALAND10"
	waterAreaProp = "AWATER10"

	cityNameProp    = "NAME"
	cityCentLatProp = "CENTROID_LAT"
	cityCentLonProp = "CENTROID_LON"
)

const (
	// The national dataset is ~26MB, so the initial download gets a generous ceiling.
	datasetTimeout = 60 * time.Second
	// Per-city documents are small; bound each fetch individually.
	cityFetchTimeout = 10 * time.Second
	cityCacheTTL     = 12 * time.Hour
	cityCacheSweep   = time.Hour
)

// StaticStore serves zip boundaries from an in-memory index of the national
// ZCTA feature collection, loaded once on first use, and city boundaries from
// per-state/per-slug documents fetched lazily and memoized.
//
// The index is immutable after load and therefore safe to share across
// concurrent resolutions; the sync.Once guarantees concurrent first callers
// converge on a single download.
type StaticStore struct {
	zipURL      string
	cityBaseURL string
	client      HTTPClient
	log         *slog.Logger
	metrics     *metrics.Metrics

	once   sync.Once
	byZip  map[string]*models.BoundaryFeature
	cities *gocache.Cache
}

// NewStaticStore creates a static boundary store reading the national zip
// dataset from zipURL and city documents from cityBaseURL.
func NewStaticStore(zipURL, cityBaseURL string, log *slog.Logger, m *metrics.Metrics) *StaticStore {
	return NewStaticStoreWithClient(&http.Client{Timeout: datasetTimeout}, zipURL, cityBaseURL, log, m)
}

// NewStaticStoreWithClient creates a static store with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewStaticStoreWithClient(
	client HTTPClient,
	zipURL, cityBaseURL string,
	log *slog.Logger,
	m *metrics.Metrics,
) *StaticStore {
	return &StaticStore{
		zipURL:      zipURL,
		cityBaseURL: strings.TrimRight(cityBaseURL, "/"),
		client:      client,
		log:         log,
		metrics:     m,
		cities:      gocache.New(cityCacheTTL, cityCacheSweep),
	}
}

// FetchZip returns the boundary feature for an exact zip code match.
func (s *StaticStore) FetchZip(ctx context.Context, zip string) (*models.BoundaryFeature, bool) {
	s.ensureLoaded(ctx)
	feature, ok := s.byZip[zip]
	return feature, ok
}

// FetchCity returns the boundary feature for a city slug within a state,
// fetching and memoizing the per-city document on first access.
func (s *StaticStore) FetchCity(ctx context.Context, stateAbbr, slug string) (*models.BoundaryFeature, bool) {
	key := stateAbbr + "/" + slug
	if cached, ok := s.cities.Get(key); ok {
		feature, isFeature := cached.(*models.BoundaryFeature)
		return feature, isFeature
	}

	fetchCtx, cancel := context.WithTimeout(ctx, cityFetchTimeout)
	defer cancel()

	docURL := fmt.Sprintf("%s/%s/%s.json", s.cityBaseURL, strings.ToLower(stateAbbr), slug)
	body, status, err := s.get(fetchCtx, docURL)
	if err != nil {
		s.log.ErrorContext(ctx, "City boundary fetch failed", "state", stateAbbr, "slug", slug, "error", err)
		s.metrics.StoreErrors.WithLabelValues("static").Inc()
		return nil, false
	}
	if status == http.StatusNotFound {
		return nil, false
	}
	if status != http.StatusOK {
		s.log.ErrorContext(ctx, "City boundary fetch returned non-success status",
			"state", stateAbbr, "slug", slug, "status", status)
		s.metrics.StoreErrors.WithLabelValues("static").Inc()
		return nil, false
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to decode city boundary document",
			"state", stateAbbr, "slug", slug, "error", err)
		s.metrics.StoreErrors.WithLabelValues("static").Inc()
		return nil, false
	}
	if len(fc.Features) == 0 {
		return nil, false
	}

	feature, err := CityFeatureFromGeoJSON(fc.Features[0], stateAbbr, slug)
	if err != nil {
		s.log.WarnContext(ctx, "Discarding city with unusable geometry",
			"state", stateAbbr, "slug", slug, "error", err)
		return nil, false
	}

	s.cities.Set(key, feature, gocache.DefaultExpiration)
	return feature, true
}

// ensureLoaded downloads and indexes the national zip dataset exactly once.
// The download is detached from the triggering caller's cancellation: the
// sync.Once never retries, so an impatient first request must not poison the
// index for the life of the process. A failed load leaves an empty index so
// every lookup degrades to absent.
func (s *StaticStore) ensureLoaded(ctx context.Context) {
	s.once.Do(func() {
		s.byZip = make(map[string]*models.BoundaryFeature)

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), datasetTimeout)
		defer cancel()

		s.log.InfoContext(ctx, "Loading national zip boundary dataset", "url", s.zipURL)
		body, status, err := s.get(loadCtx, s.zipURL)
		if err == nil && status != http.StatusOK {
			err = fmt.Errorf("dataset fetch returned status %d", status)
		}
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to load zip boundary dataset", "error", err)
			s.metrics.StoreErrors.WithLabelValues("static").Inc()
			return
		}

		fc, err := geojson.UnmarshalFeatureCollection(body)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to decode zip boundary dataset", "error", err)
			s.metrics.StoreErrors.WithLabelValues("static").Inc()
			return
		}

		skipped := 0
		for _, raw := range fc.Features {
			feature, errConv := ZipFeatureFromGeoJSON(raw)
			if errConv != nil {
				skipped++
				continue
			}
			s.byZip[feature.Zip] = feature
		}

		s.log.InfoContext(ctx, "Zip boundary dataset loaded", "features", len(s.byZip), "skipped", skipped)
	})
}

func (s *StaticStore) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// ZipFeatureFromGeoJSON converts one raw dataset feature into the canonical
// boundary representation, rejecting records with no identifier or unusable
// geometry. The ingestion pipeline shares this conversion so a record is
// either stored and served or skipped consistently.
func ZipFeatureFromGeoJSON(raw *geojson.Feature) (*models.BoundaryFeature, error) {
	zip := propString(raw.Properties, zipCodeProp)
	if zip == "" {
		return nil, fmt.Errorf("feature has no %s property", zipCodeProp)
	}

	mp, err := geometry.Normalize(raw.Geometry)
	if err != nil {
		return nil, err
	}
	mp, err = geometry.Sanitize(mp)
	if err != nil {
		return nil, err
	}

	feature := &models.BoundaryFeature{
		Zip:      zip,
		Name:     propString(raw.Properties, zipNameProp),
		Geometry: mp,
	}
	if lat, okLat := propFloat(raw.Properties, intPtLatProp); okLat {
		if lon, okLon := propFloat(raw.Properties, intPtLonProp); okLon {
			feature.Centroid = &models.Coordinates{Latitude: lat, Longitude: lon}
		}
	}
	if area, ok := propFloat(raw.Properties, landAreaProp); ok {
		feature.LandArea = int64(area)
	}
	if area, ok := propFloat(raw.Properties, waterAreaProp); ok {
		feature.WaterArea = int64(area)
	}

	return feature, nil
}

// CityFeatureFromGeoJSON converts the first feature of a per-city document
// into the canonical boundary representation. Shared with the ingestion
// pipeline like ZipFeatureFromGeoJSON.
func CityFeatureFromGeoJSON(raw *geojson.Feature, stateAbbr, slug string) (*models.BoundaryFeature, error) {
	mp, err := geometry.Normalize(raw.Geometry)
	if err != nil {
		return nil, err
	}
	mp, err = geometry.Sanitize(mp)
	if err != nil {
		return nil, err
	}

	name := propString(raw.Properties, cityNameProp)
	if name == "" {
		name = titleFromSlug(slug)
	}

	feature := &models.BoundaryFeature{
		CityName:  name,
		StateAbbr: stateAbbr,
		Slug:      slug,
		Geometry:  mp,
	}
	if lat, okLat := propFloat(raw.Properties, cityCentLatProp); okLat {
		if lon, okLon := propFloat(raw.Properties, cityCentLonProp); okLon {
			feature.Centroid = &models.Coordinates{Latitude: lat, Longitude: lon}
		}
	}

	return feature, nil
}

// titleFromSlug turns "new_york" into "New York" for display when the
// document carries no name of its own.
func titleFromSlug(slug string) string {
	words := strings.Split(slug, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// propString reads a string property, tolerating absent keys.
func propString(props geojson.Properties, key string) string {
	value, _ := props[key].(string)
	return value
}

// propFloat reads a numeric property that the source may encode either as a
// JSON number or as a string (the census internal-point fields are strings
// with an explicit sign, e.g. "+34.0901").
func propFloat(props geojson.Properties, key string) (float64, bool) {
	switch value := props[key].(type) {
	case float64:
		return value, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
