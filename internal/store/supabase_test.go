package store_test

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/mapscope/mapscope/internal/store"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// hexEWKB encodes a small square boundary the way the geometry column stores it.
func hexEWKB(t *testing.T) string {
	t.Helper()
	mp := orb.MultiPolygon{{orb.Ring{
		{-118.5, 34.0}, {-118.3, 34.0}, {-118.3, 34.2}, {-118.5, 34.2}, {-118.5, 34.0},
	}}}
	raw, err := ewkb.Marshal(mp, 4326)
	require.NoError(t, err)
	return hex.EncodeToString(raw)
}

func TestSupabaseStore_FetchZip(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("success - zip row decoded", func(t *testing.T) {
		t.Parallel()
		geometry := hexEWKB(t)
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "/rest/v1/us_zip_codes", req.URL.Path)
				assert.Equal(t, "eq.90210", req.URL.Query().Get("zip_code"))
				assert.Equal(t, "*", req.URL.Query().Get("select"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Equal(t, "secret-key", req.Header.Get("apikey"))
				assert.Equal(t, "Bearer secret-key", req.Header.Get("Authorization"))

				body := fmt.Sprintf(`[{"zip_code":"90210","name":"Beverly Hills","aland":14772597,`+
					`"awater":27826,"centroid_lat":34.10,"centroid_lon":-118.41,"geometry":"%s"}]`, geometry)
				return jsonResponse(http.StatusOK, body), nil
			},
		}

		boundaries := store.NewSupabaseStoreWithClient(
			mockClient, "https://project.supabase.co", "secret-key", logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "90210")

		require.True(t, ok)
		require.NotNil(t, feature)
		assert.Equal(t, "90210", feature.Zip)
		assert.Equal(t, "Beverly Hills", feature.Name)
		assert.Equal(t, int64(14772597), feature.LandArea)
		require.NotNil(t, feature.Centroid)
		assert.InEpsilon(t, 34.10, feature.Centroid.Latitude, 0.0001)
		require.Len(t, feature.Geometry, 1)
	})

	t.Run("success - null centroid columns", func(t *testing.T) {
		t.Parallel()
		geometry := hexEWKB(t)
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				body := fmt.Sprintf(`[{"zip_code":"90210","name":"Beverly Hills","aland":0,`+
					`"awater":0,"centroid_lat":null,"centroid_lon":null,"geometry":"%s"}]`, geometry)
				return jsonResponse(http.StatusOK, body), nil
			},
		}

		boundaries := store.NewSupabaseStoreWithClient(
			mockClient, "https://project.supabase.co", "secret-key", logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "90210")

		require.True(t, ok)
		assert.Nil(t, feature.Centroid)
	})

	t.Run("absent - empty row list", func(t *testing.T) {
		t.Parallel()
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `[]`), nil
			},
		}

		boundaries := store.NewSupabaseStoreWithClient(
			mockClient, "https://project.supabase.co", "secret-key", logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "99999")

		assert.False(t, ok)
		assert.Nil(t, feature)
	})

	t.Run("absent - API error status is absorbed", func(t *testing.T) {
		t.Parallel()
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusInternalServerError, `{"message":"boom"}`), nil
			},
		}

		boundaries := store.NewSupabaseStoreWithClient(
			mockClient, "https://project.supabase.co", "secret-key", logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "90210")

		assert.False(t, ok)
		assert.Nil(t, feature)
	})

	t.Run("absent - transport error is absorbed", func(t *testing.T) {
		t.Parallel()
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		boundaries := store.NewSupabaseStoreWithClient(
			mockClient, "https://project.supabase.co", "secret-key", logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "90210")

		assert.False(t, ok)
		assert.Nil(t, feature)
	})

	t.Run("absent - geometry column is not valid hex", func(t *testing.T) {
		t.Parallel()
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				body := `[{"zip_code":"90210","geometry":"not-hex-at-all"}]`
				return jsonResponse(http.StatusOK, body), nil
			},
		}

		boundaries := store.NewSupabaseStoreWithClient(
			mockClient, "https://project.supabase.co", "secret-key", logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "90210")

		assert.False(t, ok)
		assert.Nil(t, feature)
	})
}

func TestSupabaseStore_FetchCity(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("success - city row decoded", func(t *testing.T) {
		t.Parallel()
		geometry := hexEWKB(t)
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "/rest/v1/us_cities", req.URL.Path)
				assert.Equal(t, "eq.IL", req.URL.Query().Get("state_abbr"))
				assert.Equal(t, "eq.springfield", req.URL.Query().Get("city_slug"))

				body := fmt.Sprintf(`[{"city_name":"Springfield","state_abbr":"IL","city_slug":"springfield",`+
					`"centroid_lat":39.78,"centroid_lon":-89.65,"geometry":"%s"}]`, geometry)
				return jsonResponse(http.StatusOK, body), nil
			},
		}

		boundaries := store.NewSupabaseStoreWithClient(
			mockClient, "https://project.supabase.co", "secret-key", logger, newPostgisMetrics())
		feature, ok := boundaries.FetchCity(ctx, "IL", "springfield")

		require.True(t, ok)
		require.NotNil(t, feature)
		assert.Equal(t, "Springfield", feature.CityName)
		assert.Equal(t, "IL", feature.StateAbbr)
		assert.Equal(t, "springfield", feature.Slug)
		require.NotNil(t, feature.Centroid)
		assert.InEpsilon(t, 39.78, feature.Centroid.Latitude, 0.0001)
	})

	t.Run("absent - empty row list", func(t *testing.T) {
		t.Parallel()
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `[]`), nil
			},
		}

		boundaries := store.NewSupabaseStoreWithClient(
			mockClient, "https://project.supabase.co", "secret-key", logger, newPostgisMetrics())
		feature, ok := boundaries.FetchCity(ctx, "IL", "atlantis")

		assert.False(t, ok)
		assert.Nil(t, feature)
	})
}
