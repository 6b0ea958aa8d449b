package resolver

import (
	"fmt"

	"github.com/mapscope/mapscope/internal/geometry"
	"github.com/mapscope/mapscope/internal/models"
	"github.com/paulmach/orb/geojson"
)

// Rendering styles. Zip regions are deliberately distinct from city regions,
// and the city marker is overlaid on the region when both are known.
const (
	zipFillColor  = "blue"
	cityFillColor = "teal"
	lineColor     = "black"
	regionOpacity = 0.5

	markerColor   = "red"
	markerSize    = 20
	markerOpacity = 0.7
)

// Title templates. These are part of the rendered contract with the UI layer.
const (
	overviewTitle      = "Enter a City or Zip Code to explore the map!"
	zipBoundaryTitle   = "Area for Zip Code: %s"
	zipNotFoundTitle   = "Zip Code '%s' not found or no boundary data available."
	cityBoundaryTitle  = "Boundary for City: %s"
	cityMarkerTitle    = "Location for City: %s (boundary data unavailable)"
	placeNotFoundTitle = "City '%s' not found."
	geocodeErrorTitle  = "Geocoding service error for '%s': %v. Please try again."
)

// overviewDescriptor is the no-input state: the national overview with a
// prompt title.
func overviewDescriptor() models.MapDescriptor {
	return models.MapDescriptor{
		Center: geometry.DefaultCenter,
		Zoom:   geometry.DefaultZoom,
		Title:  overviewTitle,
	}
}

// zipBoundaryDescriptor renders a resolved zip boundary as a highlighted region.
func zipBoundaryDescriptor(
	zip string,
	feature *models.BoundaryFeature,
	center models.Coordinates,
	zoom int,
) models.MapDescriptor {
	return models.MapDescriptor{
		Center: center,
		Zoom:   zoom,
		Region: &models.RegionLayer{
			Feature:   regionFeature(feature),
			FillColor: zipFillColor,
			LineColor: lineColor,
			Opacity:   regionOpacity,
		},
		Title: fmt.Sprintf(zipBoundaryTitle, zip),
	}
}

// cityBoundaryDescriptor renders a resolved city boundary as a highlighted
// region with a marker at the geocoded coordinate overlaid on it.
func cityBoundaryDescriptor(
	address string,
	feature *models.BoundaryFeature,
	center models.Coordinates,
	zoom int,
	point models.Coordinates,
) models.MapDescriptor {
	return models.MapDescriptor{
		Center: center,
		Zoom:   zoom,
		Region: &models.RegionLayer{
			Feature:   regionFeature(feature),
			FillColor: cityFillColor,
			LineColor: lineColor,
			Opacity:   regionOpacity,
		},
		Marker: markerLayer(point),
		Title:  fmt.Sprintf(cityBoundaryTitle, address),
	}
}

// cityMarkerDescriptor renders a geocoded place with no boundary data as a
// marker-only view.
func cityMarkerDescriptor(address string, point models.Coordinates) models.MapDescriptor {
	return models.MapDescriptor{
		Center: point,
		Zoom:   geometry.CityZoom,
		Marker: markerLayer(point),
		Title:  fmt.Sprintf(cityMarkerTitle, address),
	}
}

// zipNotFoundDescriptor renders the not-found outcome for a zip query at the
// default center.
func zipNotFoundDescriptor(zip string) models.MapDescriptor {
	return models.MapDescriptor{
		Center: geometry.DefaultCenter,
		Zoom:   geometry.DefaultZoom,
		Marker: markerLayer(geometry.DefaultCenter),
		Title:  fmt.Sprintf(zipNotFoundTitle, zip),
	}
}

// placeNotFoundDescriptor renders the not-found outcome for a place query.
func placeNotFoundDescriptor(place string) models.MapDescriptor {
	return models.MapDescriptor{
		Center: geometry.DefaultCenter,
		Zoom:   geometry.DefaultZoom,
		Marker: markerLayer(geometry.DefaultCenter),
		Title:  fmt.Sprintf(placeNotFoundTitle, place),
	}
}

// geocodeErrorDescriptor renders a geocoding service failure; the error
// surfaces only in the title, never as a fault.
func geocodeErrorDescriptor(place string, err error) models.MapDescriptor {
	return models.MapDescriptor{
		Center: geometry.DefaultCenter,
		Zoom:   geometry.DefaultZoom,
		Marker: markerLayer(geometry.DefaultCenter),
		Title:  fmt.Sprintf(geocodeErrorTitle, place, err),
	}
}

// regionFeature serializes a boundary feature for the UI layer, carrying the
// identifying properties the renderer keys highlighted regions on.
func regionFeature(feature *models.BoundaryFeature) *geojson.Feature {
	out := geojson.NewFeature(feature.Geometry)
	if feature.Zip != "" {
		out.Properties["zip_code"] = feature.Zip
	}
	if feature.CityName != "" {
		out.Properties["city_name"] = feature.CityName
	}
	if feature.StateAbbr != "" {
		out.Properties["state_abbr"] = feature.StateAbbr
	}
	if feature.Name != "" {
		out.Properties["name"] = feature.Name
	}
	return out
}

func markerLayer(point models.Coordinates) *models.MarkerLayer {
	return &models.MarkerLayer{
		Point:   point,
		Color:   markerColor,
		Size:    markerSize,
		Opacity: markerOpacity,
	}
}
