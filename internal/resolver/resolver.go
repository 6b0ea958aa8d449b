package resolver

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mapscope/mapscope/internal/geocoding"
	"github.com/mapscope/mapscope/internal/geometry"
	"github.com/mapscope/mapscope/internal/metrics"
	"github.com/mapscope/mapscope/internal/models"
	"github.com/mapscope/mapscope/internal/store"
)

// maxSuggestions caps the candidate list returned for autocomplete.
const maxSuggestions = 5

// Service is the location resolution engine: it classifies a query, looks up
// boundary geometry, estimates a display center, and assembles a renderable
// map description. Every failure path terminates in a MapDescriptor; nothing
// here is fatal to the process.
//
// The service holds no per-request state, so a single instance is safe for
// concurrent resolutions.
type Service struct {
	log            *slog.Logger       // Logger for logging service activities
	store          store.Store        // Backend-agnostic boundary lookups
	storeName      string             // Backend name for metrics labeling
	provider       geocoding.Provider // External place-search service
	providerName   string             // Provider name for metrics labeling
	metrics        *metrics.Metrics   // Metrics for tracking resolution outcomes
	geocodeTimeout time.Duration      // Ceiling for a single geocoding request
}

// NewService creates a new resolution engine over the given boundary store
// and geocoding provider. Backend and provider names label the metrics.
func NewService(
	log *slog.Logger,
	boundaries store.Store,
	storeName string,
	provider geocoding.Provider,
	providerName string,
	m *metrics.Metrics,
	geocodeTimeout time.Duration,
) *Service {
	return &Service{
		log:            log,
		store:          boundaries,
		storeName:      storeName,
		provider:       provider,
		providerName:   providerName,
		metrics:        m,
		geocodeTimeout: geocodeTimeout,
	}
}

// Selection is a structured query that already disambiguates zip vs place,
// as produced by an autocomplete step. Free-text submissions go through
// Resolve instead, which classifies first.
type Selection struct {
	Kind  QueryKind
	Value string
}

// Resolve turns a free-text query into a renderable map description.
// Empty input yields the default national overview.
func (s *Service) Resolve(ctx context.Context, query string) models.MapDescriptor {
	query = strings.TrimSpace(query)
	if query == "" {
		s.metrics.Resolutions.WithLabelValues("overview").Inc()
		return overviewDescriptor()
	}
	return s.ResolveSelection(ctx, Selection{Kind: Classify(query), Value: query})
}

// ResolveSelection resolves a query whose kind is already known.
func (s *Service) ResolveSelection(ctx context.Context, sel Selection) models.MapDescriptor {
	value := strings.TrimSpace(sel.Value)
	if value == "" {
		s.metrics.Resolutions.WithLabelValues("overview").Inc()
		return overviewDescriptor()
	}

	if sel.Kind == KindZip {
		return s.resolveZip(ctx, value)
	}
	return s.resolvePlace(ctx, value)
}

// Suggest returns ranked autocomplete candidates for a partial query.
// Provider failures degrade to an empty list.
func (s *Service) Suggest(ctx context.Context, partial string) []models.GeocodedCandidate {
	sctx, cancel := context.WithTimeout(ctx, s.geocodeTimeout)
	defer cancel()

	candidates, err := s.provider.Suggest(sctx, partial, maxSuggestions)
	if err != nil {
		s.log.ErrorContext(ctx, "Suggestion lookup failed", "partial", partial, "error", err)
		s.metrics.GeocoderErrors.Inc()
		return nil
	}
	return candidates
}

// resolveZip handles the zip path: boundary lookup, centroid estimation,
// and the highlighted-region (or not-found marker) descriptor.
func (s *Service) resolveZip(ctx context.Context, zip string) models.MapDescriptor {
	feature, ok := s.fetchZip(ctx, zip)
	if !ok {
		s.metrics.Resolutions.WithLabelValues("zip_not_found").Inc()
		return zipNotFoundDescriptor(zip)
	}

	center, zoom, known := geometry.Estimate(feature)
	if !known {
		center, zoom = geometry.DefaultCenter, geometry.DefaultZoom
	}

	s.metrics.Resolutions.WithLabelValues("zip_boundary").Inc()
	return zipBoundaryDescriptor(zip, feature, center, zoom)
}

// resolvePlace handles the place path: geocode, derive a state and slug,
// walk the slug retry ladder, and assemble whichever view the outcome allows.
func (s *Service) resolvePlace(ctx context.Context, place string) models.MapDescriptor {
	gctx, cancel := context.WithTimeout(ctx, s.geocodeTimeout)
	defer cancel()

	startTime := time.Now()
	candidate, err := s.provider.Geocode(gctx, place)
	s.metrics.GeocoderSeconds.WithLabelValues(s.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		s.log.ErrorContext(ctx, "Geocoding failed", "query", place, "error", err)
		s.metrics.GeocoderErrors.Inc()
		s.metrics.Resolutions.WithLabelValues("geocode_error").Inc()
		return geocodeErrorDescriptor(place, err)
	}
	if candidate == nil {
		s.metrics.Resolutions.WithLabelValues("place_not_found").Inc()
		return placeNotFoundDescriptor(place)
	}

	point := models.Coordinates{Latitude: candidate.Latitude, Longitude: candidate.Longitude}

	feature := s.lookupCityBoundary(ctx, candidate.Address)
	if feature == nil {
		s.metrics.Resolutions.WithLabelValues("city_marker").Inc()
		return cityMarkerDescriptor(candidate.Address, point)
	}

	center, zoom, known := geometry.Estimate(feature)
	if !known {
		// The boundary resolved but carries no usable position data;
		// the geocoded point still frames the view.
		center, zoom = point, geometry.DetailZoom
	}

	s.metrics.Resolutions.WithLabelValues("city_boundary").Inc()
	return cityBoundaryDescriptor(candidate.Address, feature, center, zoom, point)
}

// lookupCityBoundary derives (state, slug) from a geocoded address and walks
// the retry ladder against the boundary store, stopping at the first hit.
// Returns nil when no boundary is available; the geocoded coordinates remain
// usable for a marker.
func (s *Service) lookupCityBoundary(ctx context.Context, address string) *models.BoundaryFeature {
	stateAbbr, ok := StateFromAddress(address)
	if !ok {
		s.log.DebugContext(ctx, "No state recognized in geocoded address", "address", address)
		return nil
	}

	slug := Slugify(firstComponent(address))
	if slug == "" {
		return nil
	}

	for _, attempt := range slugAttempts(slug) {
		if feature, found := s.fetchCity(ctx, stateAbbr, attempt); found {
			return feature
		}
	}

	s.log.DebugContext(ctx, "No boundary found for place", "state", stateAbbr, "slug", slug)
	return nil
}

func (s *Service) fetchZip(ctx context.Context, zip string) (*models.BoundaryFeature, bool) {
	startTime := time.Now()
	feature, ok := s.store.FetchZip(ctx, zip)
	s.metrics.StoreSeconds.WithLabelValues(s.storeName, "zip").Observe(time.Since(startTime).Seconds())
	return feature, ok
}

func (s *Service) fetchCity(ctx context.Context, stateAbbr, slug string) (*models.BoundaryFeature, bool) {
	startTime := time.Now()
	feature, ok := s.store.FetchCity(ctx, stateAbbr, slug)
	s.metrics.StoreSeconds.WithLabelValues(s.storeName, "city").Observe(time.Since(startTime).Seconds())
	return feature, ok
}
