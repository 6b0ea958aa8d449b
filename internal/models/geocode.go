package models

// GeocodedCandidate is one ranked result from the external place-search
// service. Rank 0 is the best match.
type GeocodedCandidate struct {
	Address   string  `json:"address"` // Full formatted address returned by the geocoder.
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Rank      int     `json:"rank"`
}
