// Package geo provides great-circle distance between coordinate pairs.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

func deg2rad(d float64) float64 {
	return d * math.Pi / 180
}

// HaversineKm returns the great-circle distance in kilometers between
// two points given in decimal degrees. Symmetric in its arguments.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dlat := deg2rad(lat2 - lat1)
	dlon := deg2rad(lon2 - lon1)

	rlat1 := deg2rad(lat1)
	rlat2 := deg2rad(lat2)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Sin(dlon/2)*math.Sin(dlon/2)*math.Cos(rlat1)*math.Cos(rlat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return c * earthRadiusKm
}
