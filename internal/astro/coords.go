package astro

import (
	"math"
)

// Observer represents a ground-based observer location.
type Observer struct {
	LatDeg float64 // Latitude in degrees (north positive)
	LonDeg float64 // Longitude in degrees (east positive)
	Name   string  // Optional name for the site
}

// Latitude returns the observer latitude as an Angle.
func (o Observer) Latitude() Angle { return FromDegrees(o.LatDeg) }

// Longitude returns the observer longitude as an Angle.
func (o Observer) Longitude() Angle { return FromDegrees(o.LonDeg) }

// Horizontal is an observer-relative position.
//   - Az: 0 = North, 90° = East, 180° = South, 270° = West
//   - Alt: 0 = horizon, 90° = zenith
//
// Az is not normalized and may be NaN at the zenith or nadir.
type Horizontal struct {
	Alt Angle
	Az  Angle
}

// AzimuthDegrees returns the azimuth in [0, 360), or NaN if undefined.
func (h Horizontal) AzimuthDegrees() float64 {
	if h.Az.IsNaN() {
		return math.NaN()
	}
	return h.Az.Normalize().Degrees()
}

// EquatorialToHorizontal converts equatorial coordinates to altitude/azimuth
// for an observer latitude and local sidereal time.
//
// The hour angle is lst - ra (positive west of the meridian).
// At the geographic poles the general azimuth formula divides by cos(lat) = 0,
// so the hour angle stands in for azimuth: ha + 180° at the north pole and
// -ha at the south pole.
func EquatorialToHorizontal(ra, dec, lat, lst Angle) Horizontal {
	ha := lst.Subtract(ra)

	sinAlt := dec.Sin()*lat.Sin() + dec.Cos()*lat.Cos()*ha.Cos()
	// Clamp to handle floating point errors
	sinAlt = math.Max(-1, math.Min(1, sinAlt))
	alt := FromRadians(math.Asin(sinAlt))

	latDeg := lat.Degrees()
	switch {
	case math.Abs(latDeg-90) < poleEpsilonDeg:
		return Horizontal{Alt: alt, Az: ha.AddDegrees(180)}
	case math.Abs(latDeg+90) < poleEpsilonDeg:
		return Horizontal{Alt: alt, Az: ha.Multiply(-1)}
	}

	cosAz := (dec.Sin() - lat.Sin()*sinAlt) / (lat.Cos() * alt.Cos())
	sinAz := -ha.Sin() * dec.Cos() / alt.Cos()

	return Horizontal{Alt: alt, Az: FromRadians(math.Atan2(sinAz, cosAz))}
}

// poleEpsilonDeg absorbs the degree/radian round trip of ±90°.
const poleEpsilonDeg = 1e-9
