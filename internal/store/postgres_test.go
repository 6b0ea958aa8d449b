package store_test

import (
	"log/slog"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/mapscope/mapscope/internal/metrics"
	"github.com/mapscope/mapscope/internal/store"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validGeoJSONColumn = `{"type":"MultiPolygon","coordinates":` +
	`[[[[-118.5,34.0],[-118.3,34.0],[-118.3,34.2],[-118.5,34.2],[-118.5,34.0]]]]}`

func newPostgisMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry())
}

func TestPostgisStore_FetchZip(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	zipQuery := regexp.QuoteMeta("FROM us_zip_codes")
	columns := []string{"name", "aland", "awater", "centroid_lat", "centroid_lon", "st_asgeojson"}

	t.Run("success - zip with centroid", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		name := "Beverly Hills"
		aland := int64(14772597)
		awater := int64(27826)
		lat, lon := 34.10, -118.41

		mock.ExpectQuery(zipQuery).
			WithArgs("90210").
			WillReturnRows(pgxmock.NewRows(columns).AddRow(&name, &aland, &awater, &lat, &lon, validGeoJSONColumn))

		boundaries := store.NewPostgisStore(mock, logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "90210")

		require.True(t, ok)
		require.NotNil(t, feature)
		assert.Equal(t, "90210", feature.Zip)
		assert.Equal(t, "Beverly Hills", feature.Name)
		assert.Equal(t, int64(14772597), feature.LandArea)
		require.NotNil(t, feature.Centroid)
		assert.InEpsilon(t, 34.10, feature.Centroid.Latitude, 0.0001)
		assert.NotEmpty(t, feature.Geometry)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - zip without centroid", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(zipQuery).
			WithArgs("90210").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow((*string)(nil), (*int64)(nil), (*int64)(nil), (*float64)(nil), (*float64)(nil), validGeoJSONColumn))

		boundaries := store.NewPostgisStore(mock, logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "90210")

		require.True(t, ok)
		assert.Nil(t, feature.Centroid)
		assert.Empty(t, feature.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent - no matching row", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(zipQuery).
			WithArgs("99999").
			WillReturnError(pgx.ErrNoRows)

		boundaries := store.NewPostgisStore(mock, logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "99999")

		assert.False(t, ok)
		assert.Nil(t, feature)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent - query error is absorbed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(zipQuery).
			WithArgs("90210").
			WillReturnError(assert.AnError)

		boundaries := store.NewPostgisStore(mock, logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "90210")

		assert.False(t, ok)
		assert.Nil(t, feature)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent - unusable geometry is absorbed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		point := `{"type":"Point","coordinates":[-118.4,34.1]}`
		mock.ExpectQuery(zipQuery).
			WithArgs("90210").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow((*string)(nil), (*int64)(nil), (*int64)(nil), (*float64)(nil), (*float64)(nil), point))

		boundaries := store.NewPostgisStore(mock, logger, newPostgisMetrics())
		feature, ok := boundaries.FetchZip(ctx, "90210")

		assert.False(t, ok)
		assert.Nil(t, feature)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgisStore_FetchCity(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	cityQuery := regexp.QuoteMeta("FROM us_cities")
	columns := []string{"city_name", "centroid_lat", "centroid_lon", "st_asgeojson"}

	t.Run("success - city boundary", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		cityName := "Springfield"
		lat, lon := 39.78, -89.65

		mock.ExpectQuery(cityQuery).
			WithArgs("IL", "springfield").
			WillReturnRows(pgxmock.NewRows(columns).AddRow(&cityName, &lat, &lon, validGeoJSONColumn))

		boundaries := store.NewPostgisStore(mock, logger, newPostgisMetrics())
		feature, ok := boundaries.FetchCity(ctx, "IL", "springfield")

		require.True(t, ok)
		require.NotNil(t, feature)
		assert.Equal(t, "Springfield", feature.CityName)
		assert.Equal(t, "IL", feature.StateAbbr)
		assert.Equal(t, "springfield", feature.Slug)
		require.NotNil(t, feature.Centroid)
		assert.InEpsilon(t, -89.65, feature.Centroid.Longitude, 0.0001)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent - no matching row", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(cityQuery).
			WithArgs("IL", "atlantis").
			WillReturnError(pgx.ErrNoRows)

		boundaries := store.NewPostgisStore(mock, logger, newPostgisMetrics())
		feature, ok := boundaries.FetchCity(ctx, "IL", "atlantis")

		assert.False(t, ok)
		assert.Nil(t, feature)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
