// Package geo provides great-circle distance helpers used by the delivery
// matcher. Inputs are decimal degrees, outputs kilometers.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius (IUGG).
const EarthRadiusKm = 6371.0088

// HaversineKm computes the great-circle distance between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)

	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// BoundingBox returns (minLat, maxLat, minLon, maxLon) spanning radiusKm
// around a point. An approximation used only to pre-filter candidates; the
// exact haversine check runs afterwards.
func BoundingBox(lat, lon, radiusKm float64) (float64, float64, float64, float64) {
	dLat := math.Min(math.Abs(radiusKm)/111.0, 90.0)

	denom := 111.320 * math.Cos(radians(lat))
	var dLon float64
	if math.Abs(denom) < 1e-9 {
		dLon = 180.0
	} else {
		dLon = math.Min(math.Abs(radiusKm)/denom, 180.0)
	}

	if dLon >= 180.0 || dLat >= 90.0 {
		return -90.0, 90.0, -180.0, 180.0
	}

	minLat := math.Max(-90.0, lat-dLat)
	maxLat := math.Min(90.0, lat+dLat)
	minLon := math.Max(-180.0, lon-dLon)
	maxLon := math.Min(180.0, lon+dLon)
	return minLat, maxLat, minLon, maxLon
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
