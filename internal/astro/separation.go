package astro

import "math"

// AngularSeparation returns the great-circle distance between two points
// given as (longitude, latitude) pairs, e.g. RA/Dec, using the haversine
// formula.
func AngularSeparation(lon1, lat1, lon2, lat2 Angle) Angle {
	dLon := lon2.rad - lon1.rad
	dLat := lat2.rad - lat1.rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		lat1.Cos()*lat2.Cos()*math.Sin(dLon/2)*math.Sin(dLon/2)

	// Clamp to avoid numerical errors with asin
	a = math.Max(0, math.Min(1, a))

	return FromRadians(2 * math.Asin(math.Sqrt(a)))
}
