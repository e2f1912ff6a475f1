package skymap

import "github.com/litescript/ls-skymap/internal/astro"

// Surface is the drawing target of a render pass. Coordinates are pixels
// with the origin at the top-left corner and y growing downwards. Colours
// are CSS-style hex strings.
type Surface interface {
	// Size reports the drawable area in pixels.
	Size() (width, height float64)

	// Clear resets the surface, including any clip region.
	Clear()
	// ClipCircle restricts later drawing to a disk.
	ClipCircle(center astro.Point, radius float64)

	FillCircle(center astro.Point, radius float64, color string)
	StrokeCircle(center astro.Point, radius float64, color string, width float64)

	// BeginPath starts a new polyline; MoveTo lifts the pen.
	BeginPath()
	MoveTo(p astro.Point)
	LineTo(p astro.Point)
	Stroke(color string, width float64)

	MeasureText(text string, size float64) float64
	// FillText draws text with its top-left corner at p.
	FillText(text string, p astro.Point, size float64, color string)
}

// Shadower is implemented by surfaces that can draw a glow around shapes.
// A blur of zero turns the glow off.
type Shadower interface {
	SetShadow(blur float64, color string)
}

// pen turns a stream of projected points into MoveTo/LineTo calls, lifting
// at points that did not project to finite coordinates.
type pen struct {
	s    Surface
	down bool
}

func (p *pen) move(pt astro.Point) {
	if !pt.Valid() {
		p.down = false
		return
	}
	p.s.MoveTo(pt)
	p.down = true
}

func (p *pen) line(pt astro.Point) {
	if !pt.Valid() {
		p.down = false
		return
	}
	if !p.down {
		p.move(pt)
		return
	}
	p.s.LineTo(pt)
}

func (p *pen) lift() { p.down = false }
