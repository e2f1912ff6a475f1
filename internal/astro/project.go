package astro

import "math"

// Point is a position in canvas coordinates (y grows downward).
type Point struct {
	X, Y float64
}

// Valid reports whether both coordinates are finite.
func (p Point) Valid() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) &&
		!math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Project maps a horizontal position onto a disk of the given radius.
// The zenith lands on center, the horizon on the rim, north at the top and
// east at the right-hand side of the rim as seen from above.
//
// This is a linear azimuthal (zenith-distance) mapping, not a true
// stereographic or gnomonic projection. Callers emulate a field of view by
// dividing the canvas radius by FovFactor.
func Project(center Point, h Horizontal, radius float64) Point {
	r := radius * (90 - h.Alt.Degrees()) / 90
	return Point{
		X: center.X + r*h.Az.Sin(),
		Y: center.Y - r*h.Az.Cos(),
	}
}

// FovFactor returns tan(fov/4) for a field of view in degrees.
// A 180° field of view gives 1.
func FovFactor(fovDeg float64) float64 {
	return math.Tan(degToRad(fovDeg) / 4)
}
