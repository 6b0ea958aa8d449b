package models

import "github.com/paulmach/orb"

// BoundaryFeature is one record of the boundary dataset: either a ZCTA
// (zip code tabulation area) or an incorporated place. Geometry is always a
// multi-polygon with rings in longitude/latitude order. Features are created
// during ingestion and are read-only at query time.
type BoundaryFeature struct {
	Zip       string           // Five-digit ZCTA code; empty for city features.
	CityName  string           // Human-readable place name; empty for zip features.
	StateAbbr string           // Two-letter state abbreviation; empty for zip features.
	Slug      string           // Canonical lookup slug; empty for zip features.
	Name      string           // Dataset display name, when the source carries one.
	Geometry  orb.MultiPolygon // Boundary geometry; empty when only a centroid is known.
	Centroid  *Coordinates     // Stored internal point, preferred over any computed centroid.
	LandArea  int64            // Land area in square meters, when the source carries it.
	WaterArea int64            // Water area in square meters, when the source carries it.
}
