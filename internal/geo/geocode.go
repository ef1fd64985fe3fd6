package geo

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("geocode not found")

type Geocoder interface {
	Geocode(ctx context.Context, query string) (lat float64, lon float64, displayName string, confidence float64, err error)
}

func BuildGeocodeQuery(country string, city string, address string) string {
	country = strings.TrimSpace(country)
	city = strings.TrimSpace(city)
	address = strings.TrimSpace(address)
	parts := []string{}
	if country != "" {
		parts = append(parts, country)
	}
	if city != "" {
		parts = append(parts, city)
	}
	if address != "" {
		parts = append(parts, address)
	}
	return strings.Join(parts, ", ")
}

// ShouldGeocode reports whether a record still needs coordinates.
func ShouldGeocode(lat *float64, lon *float64, force bool) bool {
	if force {
		return true
	}
	return lat == nil || lon == nil
}
