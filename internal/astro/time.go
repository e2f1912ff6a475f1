package astro

import (
	"math"
	"time"
)

// J2000 is the Julian Date of the J2000.0 epoch (2000-01-01 12:00 TT).
const J2000 = 2451545.0

// AstronomicalTime is an immutable UTC instant together with its Julian Date.
// Create a fresh value for every time update; it is never mutated.
type AstronomicalTime struct {
	utc time.Time
	jd  float64
}

// FromUTC wraps t (converted to UTC). It never fails.
func FromUTC(t time.Time) AstronomicalTime {
	t = t.UTC()
	return AstronomicalTime{utc: t, jd: julianDate(t)}
}

// UTC returns the wrapped instant.
func (at AstronomicalTime) UTC() time.Time { return at.utc }

// JulianDate returns the continuous day count; the fractional part is the time of day.
func (at AstronomicalTime) JulianDate() float64 { return at.jd }

// GST returns the Greenwich mean sidereal time as a normalized angle.
//
// This is the linear form of the IAU 1982 expression: the T² and T³ terms are
// dropped, which costs well under a second of sidereal time within a few
// centuries of J2000.
func (at AstronomicalTime) GST() Angle {
	d := at.jd - J2000
	gmst := 280.46061837 + 360.98564736629*d
	return FromDegrees(normalizeAngle360(gmst)).Normalize()
}

// LST returns the local sidereal time for an east-positive longitude.
func (at AstronomicalTime) LST(longitude Angle) Angle {
	return at.GST().Add(longitude).Normalize()
}

// Add returns the instant shifted by d.
func (at AstronomicalTime) Add(d time.Duration) AstronomicalTime {
	return FromUTC(at.utc.Add(d))
}

// julianDate calculates the Julian Date for a given time.
// Sub-second components are ignored.
func julianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	h := float64(t.Hour())
	min := float64(t.Minute())
	sec := float64(t.Second())

	dayFrac := (h + min/60 + sec/3600) / 24.0

	// Treat January/February as months 13/14 of the previous year
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	jd0 := math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + B - 1524.5

	return jd0 + dayFrac
}
