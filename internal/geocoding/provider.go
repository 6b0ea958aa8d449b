package geocoding

import (
	"context"

	"github.com/mapscope/mapscope/internal/models"
)

// MinSuggestLen is the minimum input length for suggestion lookups; shorter
// input is treated as a no-op, not an error.
const MinSuggestLen = 3

// Provider is the contract for external place-search services.
//
// Geocode returns the single best candidate for a place query, or nil when
// the service knows nothing about it; an error means the service itself
// failed (timeout, transport, malformed payload), never "no match".
//
// Suggest returns up to limit ranked candidates for a partial query, used by
// autocomplete. Input shorter than MinSuggestLen yields an empty result.
type Provider interface {
	Geocode(ctx context.Context, query string) (*models.GeocodedCandidate, error)
	Suggest(ctx context.Context, partial string, limit int) ([]models.GeocodedCandidate, error)
}
