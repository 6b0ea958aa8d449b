package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mapscope/mapscope/internal/models"
	"github.com/mapscope/mapscope/internal/store"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/geojson"
)

// srid of every stored geometry; the interchange format is WGS 84.
const srid = 4326

// politeDelay spaces per-city fetches so the source host is not hammered.
const politeDelay = 100 * time.Millisecond

// Ingestor populates the relational boundary tables from the source GeoJSON
// datasets. Each record's geometry is validated and repaired with the same
// rules the lookup path uses; an unrepairable record is skipped, never fatal
// to the batch.
type Ingestor struct {
	db      store.Database
	client  store.HTTPClient
	log     *slog.Logger
	workers int
}

// NewIngestor creates an ingestion pipeline over the given database handle.
// workers bounds the per-city fetch fan-out.
func NewIngestor(db store.Database, client store.HTTPClient, log *slog.Logger, workers int) *Ingestor {
	if workers < 1 {
		workers = 1
	}
	return &Ingestor{db: db, client: client, log: log, workers: workers}
}

// EnsureSchema creates the boundary tables and the PostGIS extension when
// they do not exist yet.
func (ing *Ingestor) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,
		`CREATE TABLE IF NOT EXISTS us_zip_codes (
			zip_code     text PRIMARY KEY,
			name         text,
			aland        bigint,
			awater       bigint,
			centroid_lat double precision,
			centroid_lon double precision,
			geometry     geometry(MultiPolygon, 4326)
		);`,
		`CREATE TABLE IF NOT EXISTS us_cities (
			city_name    text NOT NULL,
			state_abbr   text NOT NULL,
			city_slug    text NOT NULL,
			centroid_lat double precision,
			centroid_lon double precision,
			geometry     geometry(MultiPolygon, 4326),
			PRIMARY KEY (state_abbr, city_slug)
		);`,
	}

	for _, stmt := range statements {
		if _, err := ing.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// LoadZips fetches the national ZCTA feature collection and upserts every
// record with usable geometry. Returns the number of records loaded.
func (ing *Ingestor) LoadZips(ctx context.Context, url string) (int, error) {
	ing.log.InfoContext(ctx, "Fetching national zip dataset", "url", url)
	body, err := ing.get(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch zip dataset: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return 0, fmt.Errorf("failed to decode zip dataset: %w", err)
	}

	loaded, skipped := 0, 0
	for _, raw := range fc.Features {
		feature, errConv := store.ZipFeatureFromGeoJSON(raw)
		if errConv != nil {
			ing.log.WarnContext(ctx, "Skipping zip record", "error", errConv)
			skipped++
			continue
		}
		if errUp := ing.upsertZip(ctx, feature); errUp != nil {
			return loaded, errUp
		}
		loaded++
	}

	ing.log.InfoContext(ctx, "Zip dataset loaded", "loaded", loaded, "skipped", skipped)
	return loaded, nil
}

// LoadCities fetches the per-state city indexes and upserts every city
// boundary with usable geometry, fanning the per-city fetches out across a
// bounded worker pool. States whose index cannot be fetched are skipped.
func (ing *Ingestor) LoadCities(ctx context.Context, baseURL string, states []string) error {
	baseURL = strings.TrimRight(baseURL, "/")

	for _, stateAbbr := range states {
		slugs, err := ing.fetchCityIndex(ctx, baseURL, stateAbbr)
		if err != nil {
			ing.log.WarnContext(ctx, "Skipping state, index unavailable", "state", stateAbbr, "error", err)
			continue
		}

		ing.log.InfoContext(ctx, "Loading city boundaries", "state", stateAbbr, "cities", len(slugs))

		jobs := make(chan string, len(slugs))
		var wgr sync.WaitGroup

		for i := 0; i < ing.workers; i++ {
			wgr.Add(1)
			go ing.cityWorker(ctx, &wgr, baseURL, stateAbbr, jobs)
		}

		for _, slug := range slugs {
			jobs <- slug
		}
		close(jobs)

		wgr.Wait()
	}

	return nil
}

// cityWorker drains the slug channel, fetching and upserting one city at a time.
func (ing *Ingestor) cityWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	baseURL, stateAbbr string,
	jobs <-chan string,
) {
	defer wg.Done()
	for {
		// Checked separately because select picks a ready case at random; a
		// cancelled worker must not keep draining a non-empty queue.
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case slug, ok := <-jobs:
			if !ok {
				return
			}
			if err := ing.loadCity(ctx, baseURL, stateAbbr, slug); err != nil {
				ing.log.WarnContext(ctx, "Skipping city", "state", stateAbbr, "slug", slug, "error", err)
			}
			time.Sleep(politeDelay)
		}
	}
}

func (ing *Ingestor) fetchCityIndex(ctx context.Context, baseURL, stateAbbr string) ([]string, error) {
	indexURL := fmt.Sprintf("%s/%s/index.json", baseURL, strings.ToLower(stateAbbr))
	body, err := ing.get(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	var entries []struct {
		Slug string `json:"slug"`
	}
	if err = json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode state index: %w", err)
	}

	slugs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Slug != "" {
			slugs = append(slugs, entry.Slug)
		}
	}
	return slugs, nil
}

func (ing *Ingestor) loadCity(ctx context.Context, baseURL, stateAbbr, slug string) error {
	docURL := fmt.Sprintf("%s/%s/%s.json", baseURL, strings.ToLower(stateAbbr), slug)
	body, err := ing.get(ctx, docURL)
	if err != nil {
		return err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return fmt.Errorf("failed to decode city document: %w", err)
	}
	if len(fc.Features) == 0 {
		return errors.New("city document has no features")
	}

	feature, err := store.CityFeatureFromGeoJSON(fc.Features[0], stateAbbr, slug)
	if err != nil {
		return err
	}

	return ing.upsertCity(ctx, feature)
}

func (ing *Ingestor) upsertZip(ctx context.Context, feature *models.BoundaryFeature) error {
	wkbGeometry, err := ewkb.Marshal(feature.Geometry, srid)
	if err != nil {
		return fmt.Errorf("failed to encode geometry for zip %s: %w", feature.Zip, err)
	}

	query := `
		INSERT INTO us_zip_codes (zip_code, name, aland, awater, centroid_lat, centroid_lon, geometry)
		VALUES ($1, $2, $3, $4, $5, $6, ST_GeomFromEWKB($7))
		ON CONFLICT (zip_code) DO UPDATE SET
			name = EXCLUDED.name,
			aland = EXCLUDED.aland,
			awater = EXCLUDED.awater,
			centroid_lat = EXCLUDED.centroid_lat,
			centroid_lon = EXCLUDED.centroid_lon,
			geometry = EXCLUDED.geometry;
	`

	var lat, lon *float64
	if feature.Centroid != nil {
		lat, lon = &feature.Centroid.Latitude, &feature.Centroid.Longitude
	}

	_, err = ing.db.Exec(ctx, query,
		feature.Zip, feature.Name, feature.LandArea, feature.WaterArea, lat, lon, wkbGeometry)
	if err != nil {
		return fmt.Errorf("failed to upsert zip %s: %w", feature.Zip, err)
	}
	return nil
}

func (ing *Ingestor) upsertCity(ctx context.Context, feature *models.BoundaryFeature) error {
	wkbGeometry, err := ewkb.Marshal(feature.Geometry, srid)
	if err != nil {
		return fmt.Errorf("failed to encode geometry for city %s: %w", feature.Slug, err)
	}

	query := `
		INSERT INTO us_cities (city_name, state_abbr, city_slug, centroid_lat, centroid_lon, geometry)
		VALUES ($1, $2, $3, $4, $5, ST_GeomFromEWKB($6))
		ON CONFLICT (state_abbr, city_slug) DO UPDATE SET
			city_name = EXCLUDED.city_name,
			centroid_lat = EXCLUDED.centroid_lat,
			centroid_lon = EXCLUDED.centroid_lon,
			geometry = EXCLUDED.geometry;
	`

	var lat, lon *float64
	if feature.Centroid != nil {
		lat, lon = &feature.Centroid.Latitude, &feature.Centroid.Longitude
	}

	_, err = ing.db.Exec(ctx, query,
		feature.CityName, feature.StateAbbr, feature.Slug, lat, lon, wkbGeometry)
	if err != nil {
		return fmt.Errorf("failed to upsert city %s/%s: %w", feature.StateAbbr, feature.Slug, err)
	}
	return nil
}

func (ing *Ingestor) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := ing.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
