package astro

import "math"

// Vec3 is a cartesian vector; the frame is up to the caller.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - u.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{X: v.X - u.X, Y: v.Y - u.Y, Z: v.Z - u.Z}
}

// J2000Obliquity is the mean obliquity of the ecliptic at J2000.0.
var J2000Obliquity = FromDegrees(23.439291)

// rotateX turns v by a about the X axis (the equinox direction).
func rotateX(v Vec3, a Angle) Vec3 {
	s, c := a.Sin(), a.Cos()
	return Vec3{
		X: v.X,
		Y: v.Y*c - v.Z*s,
		Z: v.Y*s + v.Z*c,
	}
}

// EclipticToEquatorial rotates a J2000 ecliptic vector into the equatorial frame.
func EclipticToEquatorial(ecl Vec3) Vec3 { return rotateX(ecl, J2000Obliquity) }

// EquatorialToEcliptic is the inverse of EclipticToEquatorial.
func EquatorialToEcliptic(eq Vec3) Vec3 { return rotateX(eq, J2000Obliquity.Multiply(-1)) }

// SphericalToVec3 returns the unit vector pointing at lon/lat (RA/Dec or
// ecliptic longitude/latitude).
func SphericalToVec3(lon, lat Angle) Vec3 {
	cl := lat.Cos()
	return Vec3{X: cl * lon.Cos(), Y: cl * lon.Sin(), Z: lat.Sin()}
}

// Vec3ToRADec returns the direction of v as a normalized right ascension
// and a declination. The zero vector gives zero angles.
func Vec3ToRADec(v Vec3) (ra, dec Angle) {
	r := v.Norm()
	if r == 0 {
		return Angle{}, Angle{}
	}
	return FromRadians(math.Atan2(v.Y, v.X)).Normalize(), FromRadians(math.Asin(v.Z / r))
}
