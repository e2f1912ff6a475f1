package skymap

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// BVColor maps a B-V colour index to an approximate star colour, from
// blue-white (negative) to orange (above 1.5).
func BVColor(bv float64) colorful.Color {
	var r, g, b float64
	switch {
	case bv < 0:
		r, g, b = 0.8+0.2*bv, 0.85+0.15*bv, 1
	case bv < 0.3:
		r, g, b = 0.98, 0.98, 1-0.1*bv
	case bv < 0.6:
		r, g, b = 1, 0.96-0.2*(bv-0.3), 0.9-0.1*(bv-0.3)
	case bv < 1:
		r, g, b = 1, 0.9-0.2*(bv-0.6), 0.85-0.15*(bv-0.6)
	case bv < 1.5:
		r, g, b = 1, 0.8-0.15*(bv-1), 0.7-0.2*(bv-1)
	default:
		r, g, b = 1, 0.75-0.1*(bv-1.5), 0.65-0.1*(bv-1.5)
	}
	return colorful.Color{R: r, G: g, B: b}.Clamped()
}

// BVHex is BVColor as a hex string.
func BVHex(bv float64) string {
	return BVColor(bv).Hex()
}
