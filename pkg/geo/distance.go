// Package geo provides great-circle distance math and the static
// zip-to-coordinates lookup table used for proximity pre-filtering.
package geo

import "math"

// earthRadiusKm is the Earth radius used by the haversine formula.
const earthRadiusKm = 6373.0

// Distance returns the great-circle distance in kilometers between two
// latitude/longitude points, using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(rlat1)*math.Cos(rlat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
