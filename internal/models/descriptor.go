package models

import "github.com/paulmach/orb/geojson"

// RegionLayer describes a highlighted (choropleth) boundary rendering.
type RegionLayer struct {
	Feature   *geojson.Feature `json:"feature"`    // Boundary geometry plus identifying properties.
	FillColor string           `json:"fill_color"` // Fill color of the highlighted area.
	LineColor string           `json:"line_color"` // Outline color of the highlighted area.
	Opacity   float64          `json:"opacity"`    // Fill opacity, 0..1.
}

// MarkerLayer describes a single point marker rendering.
type MarkerLayer struct {
	Point   Coordinates `json:"point"`
	Color   string      `json:"color"`
	Size    int         `json:"size"`
	Opacity float64     `json:"opacity"`
}

// MapDescriptor is the only structure that crosses back to the UI layer.
// It fully describes one rendered map: where to center it, how far to zoom,
// an optional highlighted region, an optional point marker, and a title.
// A descriptor with neither region nor marker is the default overview.
type MapDescriptor struct {
	Center Coordinates  `json:"center"`
	Zoom   int          `json:"zoom"`
	Region *RegionLayer `json:"region,omitempty"`
	Marker *MarkerLayer `json:"marker,omitempty"`
	Title  string       `json:"title"`
}
