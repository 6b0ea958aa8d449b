package geometry

import (
	"github.com/mapscope/mapscope/internal/models"
	"github.com/paulmach/orb"
)

// Display constants shared by every rendering path.
const (
	// DetailZoom frames a single resolved boundary.
	DetailZoom = 10
	// CityZoom frames a city-scale marker view.
	CityZoom = 9
	// DefaultZoom frames the national overview.
	DefaultZoom = 3
)

// DefaultCenter is the geographic center of the contiguous United States,
// used whenever nothing better is known.
var DefaultCenter = models.Coordinates{Latitude: 39.8283, Longitude: -98.5795}

// Estimate returns the display center and zoom for a boundary feature.
// A stored centroid always wins over any computed approximation. When the
// feature carries neither a centroid nor geometry, ok is false and callers
// fall back to the geocoded point or the national default.
func Estimate(feature *models.BoundaryFeature) (models.Coordinates, int, bool) {
	if feature == nil {
		return DefaultCenter, DefaultZoom, false
	}
	if feature.Centroid != nil {
		return *feature.Centroid, DetailZoom, true
	}
	if center, ok := RingAverage(feature.Geometry); ok {
		return center, DetailZoom, true
	}
	return DefaultCenter, DefaultZoom, false
}

// RingAverage approximates a centroid by averaging every vertex of the
// exterior ring of the first polygon. Interior rings and additional polygons
// are ignored, and no area weighting is applied: for concave or multi-part
// boundaries this is a biased approximation, kept intentionally because the
// boundary datasets carry stored centroids for the cases where it matters.
func RingAverage(mp orb.MultiPolygon) (models.Coordinates, bool) {
	if len(mp) == 0 || len(mp[0]) == 0 || len(mp[0][0]) == 0 {
		return models.Coordinates{}, false
	}
	ring := mp[0][0]
	var sumLon, sumLat float64
	for _, pt := range ring {
		sumLon += pt.Lon()
		sumLat += pt.Lat()
	}
	n := float64(len(ring))
	return models.Coordinates{Latitude: sumLat / n, Longitude: sumLon / n}, true
}
