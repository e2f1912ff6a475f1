// Package astro provides astronomical coordinate transformations and sky math.
package astro

import (
	"fmt"
	"math"
)

const twoPi = 2 * math.Pi

// Angle is an immutable plane angle. The radian value is the single source of
// truth; degrees and hours are derived from it on every call.
type Angle struct {
	rad float64
}

// FromDegrees returns the angle for a value in degrees.
func FromDegrees(deg float64) Angle {
	return Angle{rad: degToRad(deg)}
}

// FromRadians returns the angle for a value in radians.
func FromRadians(rad float64) Angle {
	return Angle{rad: rad}
}

// FromHours returns the angle for a value in hours (24h = 360°).
func FromHours(h float64) Angle {
	return Angle{rad: h * math.Pi / 12}
}

// Radians returns the angle in radians.
func (a Angle) Radians() float64 { return a.rad }

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 { return radToDeg(a.rad) }

// Hours returns the angle in hours.
func (a Angle) Hours() float64 { return a.rad * 12 / math.Pi }

// Sin returns the sine of the angle.
func (a Angle) Sin() float64 { return math.Sin(a.rad) }

// Cos returns the cosine of the angle.
func (a Angle) Cos() float64 { return math.Cos(a.rad) }

// Tan returns the tangent of the angle.
func (a Angle) Tan() float64 { return math.Tan(a.rad) }

// Normalize returns the equivalent angle in [0, 2π).
func (a Angle) Normalize() Angle {
	r := math.Mod(a.rad, twoPi)
	if r < 0 {
		r += twoPi
	}
	// A tiny negative remainder plus 2π rounds up to exactly 2π.
	if r >= twoPi {
		r = 0
	}
	return Angle{rad: r}
}

// Add returns a + b.
func (a Angle) Add(b Angle) Angle { return Angle{rad: a.rad + b.rad} }

// Subtract returns a - b.
func (a Angle) Subtract(b Angle) Angle { return Angle{rad: a.rad - b.rad} }

// Multiply returns the angle scaled by f.
func (a Angle) Multiply(f float64) Angle { return Angle{rad: a.rad * f} }

// AddDegrees returns the angle plus deg degrees.
func (a Angle) AddDegrees(deg float64) Angle { return a.Add(FromDegrees(deg)) }

// IsNaN reports whether the angle is undefined.
func (a Angle) IsNaN() bool { return math.IsNaN(a.rad) }

// String implements fmt.Stringer.
func (a Angle) String() string {
	return fmt.Sprintf("%.4f°", a.Degrees())
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}
