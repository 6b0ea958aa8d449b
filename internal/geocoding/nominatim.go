package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mapscope/mapscope/internal/models"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's
// Nominatim API. This is a free geocoding service with usage limits
// (1 request/second for fair use).
type NominatimProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL for the Nominatim API
	log     *slog.Logger // Logger for logging operations
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// nominatimResult represents one entry of the JSON response from Nominatim.
type nominatimResult struct {
	DisplayName string `json:"display_name"` // Full formatted address
	Lat         string `json:"lat"`          // Latitude as string
	Lon         string `json:"lon"`          // Longitude as string
}

// ErrNominatimInvalidCoords is returned when the API responds with
// coordinates that cannot be parsed.
var ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")

const nominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// geocodeTimeout is the ceiling for a single geocoding request.
const geocodeTimeout = 5 * time.Second

// NewNominatimProvider creates a new Nominatim geocoding provider.
// Uses the public Nominatim API endpoint by default.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client: &http.Client{
			Timeout: geocodeTimeout,
		},
		baseURL: nominatimBaseURL,
		log:     log,
		// User-Agent MUST include valid contact info per Nominatim usage policy:
		// https://operations.osmfoundation.org/policies/nominatim/
		userAgent: "Mapscope/1.0 (https://github.com/mapscope/mapscope)",
	}
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom
// HTTP client. Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:    client,
		baseURL:   nominatimBaseURL,
		log:       log,
		userAgent: "Mapscope/1.0 (https://github.com/mapscope/mapscope)",
	}
}

// Geocode converts a place query to the single best candidate using the
// Nominatim API. A query the service cannot match returns (nil, nil); errors
// are reserved for transport and decode failures.
func (np *NominatimProvider) Geocode(ctx context.Context, query string) (*models.GeocodedCandidate, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "query", query)

	results, err := np.search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	candidate, err := toCandidate(results[0], 0)
	if err != nil {
		return nil, err
	}

	np.log.DebugContext(ctx, "Nominatim found result",
		"address", candidate.Address, "lat", candidate.Latitude, "lon", candidate.Longitude)
	return candidate, nil
}

// Suggest returns up to limit ranked candidates for a partial query.
// Input shorter than MinSuggestLen is skipped entirely.
func (np *NominatimProvider) Suggest(
	ctx context.Context,
	partial string,
	limit int,
) ([]models.GeocodedCandidate, error) {
	if len(strings.TrimSpace(partial)) < MinSuggestLen {
		return nil, nil
	}

	results, err := np.search(ctx, partial, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.GeocodedCandidate, 0, len(results))
	for idx, result := range results {
		candidate, errConv := toCandidate(result, idx)
		if errConv != nil {
			np.log.WarnContext(ctx, "Skipping suggestion with unparseable coordinates",
				"address", result.DisplayName, "error", errConv)
			continue
		}
		candidates = append(candidates, *candidate)
	}

	return candidates, nil
}

// search performs a single Nominatim query and decodes the raw results.
func (np *NominatimProvider) search(ctx context.Context, query string, limit int) ([]nominatimResult, error) {
	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("countrycodes", "us") // The boundary datasets only cover the US
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers per Nominatim usage policy
	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var results []nominatimResult
	if err = json.Unmarshal(body, &results); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	return results, nil
}

// toCandidate parses the string coordinates of a raw result.
func toCandidate(result nominatimResult, rank int) (*models.GeocodedCandidate, error) {
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, result.Lat)
	}
	lon, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, result.Lon)
	}

	return &models.GeocodedCandidate{
		Address:   result.DisplayName,
		Latitude:  lat,
		Longitude: lon,
		Rank:      rank,
	}, nil
}
