package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mapscope/mapscope/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleProvider initializes a new GoogleProvider with the given client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode returns the best-ranked Google Maps result for the query, or nil
// when the API has no match for it.
func (gp *GoogleProvider) Geocode(ctx context.Context, query string) (*models.GeocodedCandidate, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "query", query)

	req := maps.GeocodingRequest{Address: query}
	results, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	return googleCandidate(results[0], 0), nil
}

// Suggest returns up to limit ranked candidates for a partial query.
// Input shorter than MinSuggestLen is skipped entirely.
func (gp *GoogleProvider) Suggest(
	ctx context.Context,
	partial string,
	limit int,
) ([]models.GeocodedCandidate, error) {
	if len(strings.TrimSpace(partial)) < MinSuggestLen {
		return nil, nil
	}

	req := maps.GeocodingRequest{Address: partial}
	results, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}

	if len(results) > limit {
		results = results[:limit]
	}

	candidates := make([]models.GeocodedCandidate, 0, len(results))
	for idx, result := range results {
		candidates = append(candidates, *googleCandidate(result, idx))
	}

	return candidates, nil
}

func googleCandidate(result maps.GeocodingResult, rank int) *models.GeocodedCandidate {
	return &models.GeocodedCandidate{
		Address:   result.FormattedAddress,
		Latitude:  result.Geometry.Location.Lat,
		Longitude: result.Geometry.Location.Lng,
		Rank:      rank,
	}
}
