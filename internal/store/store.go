package store

import (
	"context"
	"net/http"

	"github.com/mapscope/mapscope/internal/models"
)

// Store is the backend-agnostic boundary lookup contract. All backends
// produce features of identical shape, so callers never branch on the
// backend in use.
//
// Absence is reported with the second return value. Implementations absorb
// their own network, decode, and geometry failures: a lookup that fails for
// any reason logs a diagnostic and reports absence, never an error, so the
// result assembler can always fall back to a marker-only view.
type Store interface {
	FetchZip(ctx context.Context, zip string) (*models.BoundaryFeature, bool)
	FetchCity(ctx context.Context, stateAbbr, slug string) (*models.BoundaryFeature, bool)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
