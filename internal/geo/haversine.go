package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	lat1R := degreesToRadians(lat1)
	lat2R := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1R)*math.Cos(lat2R)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceKm estimates the distance between a property and a provider when
// both sides have coordinates. The second return value is false when either
// side is missing a coordinate pair; callers must not guess in that case.
func DistanceKm(propLat, propLon, provLat, provLon *float64) (float64, bool) {
	if propLat == nil || propLon == nil || provLat == nil || provLon == nil {
		return 0, false
	}
	return HaversineKm(*propLat, *propLon, *provLat, *provLon), true
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}
