package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder locates places by name. It backs the city-level fallback for
// markers whose export row has no usable coordinates.
type Geocoder interface {
	// ForwardGeocode converts a place name within a region to coordinates.
	// A zero result with a nil error means the place was not found.
	ForwardGeocode(ctx context.Context, place, region string) (GeocodingResult, error)
}
