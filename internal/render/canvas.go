// Package render provides a terminal Surface for the sky map: a grid of
// styled character cells addressed in half-cell pixels.
package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/litescript/ls-skymap/internal/astro"
)

// Terminal cells are roughly twice as tall as they are wide, so one cell
// spans one pixel horizontally and two vertically.
const cellHeight = 2

// Disk glyphs by radius in pixels. Disks at least areaFillRadius across
// paint cell backgrounds instead.
const (
	glyphDot       = '·'
	glyphSmall     = '•'
	glyphLarge     = '●'
	areaFillRadius = 4
)

// Halo strength at a blur of haloBlur pixels or more.
const (
	haloBlend = 0.35
	haloBlur  = 10
)

// Cell is one character position.
type Cell struct {
	Rune rune
	Fg   string // hex, empty for the terminal default
	Bg   string
}

type subpath []astro.Point

// Canvas implements the sky map Surface on a character grid.
type Canvas struct {
	cols, rows int
	cells      [][]Cell

	clip  bool
	clipC astro.Point
	clipR float64

	path   []subpath
	blur   float64
	shadow string
}

// New creates a blank canvas of cols x rows cells.
func New(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

// Resize reallocates the grid. Content is discarded.
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 0), max(rows, 0)
	c.cells = make([][]Cell, c.rows)
	for y := range c.cells {
		c.cells[y] = make([]Cell, c.cols)
	}
	c.Clear()
}

// Cols returns the grid width in cells.
func (c *Canvas) Cols() int { return c.cols }

// Rows returns the grid height in cells.
func (c *Canvas) Rows() int { return c.rows }

// Size reports the pixel extent.
func (c *Canvas) Size() (float64, float64) {
	return float64(c.cols), float64(c.rows * cellHeight)
}

// Clear blanks every cell and removes the clip region, path and shadow.
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = Cell{Rune: ' '}
		}
	}
	c.clip = false
	c.path = nil
	c.blur, c.shadow = 0, ""
}

// ClipCircle restricts drawing to cells whose centres fall inside the disk.
func (c *Canvas) ClipCircle(center astro.Point, radius float64) {
	c.clip = true
	c.clipC = center
	c.clipR = radius
}

// SetShadow turns the glow halo on (blur > 0) or off.
func (c *Canvas) SetShadow(blur float64, color string) {
	if blur <= 0 || color == "" {
		c.blur, c.shadow = 0, ""
		return
	}
	c.blur, c.shadow = blur, color
}

// cellAt maps a pixel to a cell; ok is false outside the grid or clip.
func (c *Canvas) cellAt(p astro.Point) (x, y int, ok bool) {
	if !p.Valid() {
		return 0, 0, false
	}
	x = int(math.Floor(p.X))
	y = int(math.Floor(p.Y / cellHeight))
	return x, y, c.visible(x, y)
}

func (c *Canvas) visible(x, y int) bool {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return false
	}
	if !c.clip {
		return true
	}
	dx := float64(x) + 0.5 - c.clipC.X
	dy := float64(y*cellHeight) + cellHeight/2 - c.clipC.Y
	return dx*dx+dy*dy <= c.clipR*c.clipR
}

func (c *Canvas) set(x, y int, r rune, fg string) {
	cell := &c.cells[y][x]
	cell.Rune = r
	cell.Fg = fg
	if c.shadow != "" {
		c.halo(x, y)
	}
}

// halo tints the background of the four neighbours toward the shadow colour.
func (c *Canvas) halo(x, y int) {
	sc, err := colorful.Hex(c.shadow)
	if err != nil {
		return
	}
	strength := haloBlend * math.Min(c.blur/haloBlur, 1)
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		nx, ny := x+d[0], y+d[1]
		if !c.visible(nx, ny) {
			continue
		}
		cell := &c.cells[ny][nx]
		base, err := colorful.Hex(cell.Bg)
		if err != nil {
			base = colorful.Color{}
		}
		cell.Bg = base.BlendLab(sc, strength).Clamped().Hex()
	}
}

// FillCircle draws a glyph for small disks and paints backgrounds for
// large ones.
func (c *Canvas) FillCircle(center astro.Point, radius float64, color string) {
	if radius >= areaFillRadius {
		c.fillArea(center, radius, color)
		return
	}
	x, y, ok := c.cellAt(center)
	if !ok {
		return
	}
	g := glyphLarge
	switch {
	case radius < 1:
		g = glyphDot
	case radius < 2:
		g = glyphSmall
	}
	c.set(x, y, g, color)
}

func (c *Canvas) fillArea(center astro.Point, radius float64, color string) {
	x0 := int(math.Floor(center.X - radius))
	x1 := int(math.Ceil(center.X + radius))
	y0 := int(math.Floor((center.Y - radius) / cellHeight))
	y1 := int(math.Ceil((center.Y + radius) / cellHeight))
	r2 := radius * radius
	for y := max(y0, 0); y <= min(y1, c.rows-1); y++ {
		for x := max(x0, 0); x <= min(x1, c.cols-1); x++ {
			dx := float64(x) + 0.5 - center.X
			dy := float64(y*cellHeight) + cellHeight/2 - center.Y
			if dx*dx+dy*dy > r2 || !c.visible(x, y) {
				continue
			}
			c.cells[y][x].Bg = color
		}
	}
}

// StrokeCircle draws the rim of a disk.
func (c *Canvas) StrokeCircle(center astro.Point, radius float64, color string, width float64) {
	if radius <= 0 {
		return
	}
	steps := int(math.Ceil(2 * math.Pi * radius * 2))
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		p := astro.Point{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)}
		// Nudge inward so the rim survives a clip of the same radius.
		p.X -= 0.5 * math.Cos(a)
		p.Y -= 0.5 * math.Sin(a)
		if x, y, ok := c.cellAt(p); ok {
			c.set(x, y, glyphDot, color)
		}
	}
}

// BeginPath discards the current path.
func (c *Canvas) BeginPath() { c.path = nil }

// MoveTo starts a new subpath at p.
func (c *Canvas) MoveTo(p astro.Point) {
	c.path = append(c.path, subpath{p})
}

// LineTo extends the current subpath, starting one if there is none.
func (c *Canvas) LineTo(p astro.Point) {
	if len(c.path) == 0 {
		c.MoveTo(p)
		return
	}
	last := len(c.path) - 1
	c.path[last] = append(c.path[last], p)
}

// Stroke rasterizes the current path. Width is ignored; every line is one
// cell thick. The path is kept, as on an HTML canvas.
func (c *Canvas) Stroke(color string, width float64) {
	for _, sp := range c.path {
		for i := 1; i < len(sp); i++ {
			c.line(sp[i-1], sp[i], color)
		}
	}
}

func (c *Canvas) line(a, b astro.Point, color string) {
	if !a.Valid() || !b.Valid() {
		return
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	g := lineGlyph(dx, dy/cellHeight)
	n := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy)/cellHeight) * 2))
	if n == 0 {
		if x, y, ok := c.cellAt(a); ok {
			c.set(x, y, g, color)
		}
		return
	}
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		p := astro.Point{X: a.X + dx*t, Y: a.Y + dy*t}
		if x, y, ok := c.cellAt(p); ok {
			c.set(x, y, g, color)
		}
	}
}

// lineGlyph picks a box-drawing character for a direction in cell units.
func lineGlyph(dx, dy float64) rune {
	if dx == 0 && dy == 0 {
		return glyphDot
	}
	deg := math.Atan2(-dy, dx) * 180 / math.Pi
	if deg < 0 {
		deg += 180
	}
	switch {
	case deg < 22.5 || deg >= 157.5:
		return '─'
	case deg < 67.5:
		return '╱'
	case deg < 112.5:
		return '│'
	default:
		return '╲'
	}
}

// MeasureText returns the display width of text in pixels. The font size
// has no effect on a terminal.
func (c *Canvas) MeasureText(text string, size float64) float64 {
	return float64(runewidth.StringWidth(text))
}

// FillText writes text starting at the cell containing p.
func (c *Canvas) FillText(text string, p astro.Point, size float64, color string) {
	if !p.Valid() {
		return
	}
	x := int(math.Floor(p.X))
	y := int(math.Floor(p.Y / cellHeight))
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if c.visible(x, y) {
			c.set(x, y, r, color)
			// A wide rune covers the next cell too.
			for i := 1; i < w && c.visible(x+i, y); i++ {
				c.cells[y][x+i] = Cell{Rune: 0, Fg: color, Bg: c.cells[y][x+i].Bg}
			}
		}
		x += w
	}
}

// Cell returns the cell at column x, row y.
func (c *Canvas) Cell(x, y int) Cell {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return Cell{}
	}
	return c.cells[y][x]
}

// Plain returns the grid as text without colours.
func (c *Canvas) Plain() string {
	var b strings.Builder
	for y, row := range c.cells {
		for _, cell := range row {
			if cell.Rune != 0 {
				b.WriteRune(cell.Rune)
			}
		}
		if y < c.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// String renders the grid with lipgloss styles, one style per run of
// identically coloured cells.
func (c *Canvas) String() string {
	var b strings.Builder
	for y, row := range c.cells {
		var run strings.Builder
		var fg, bg string
		flush := func() {
			if run.Len() == 0 {
				return
			}
			style := lipgloss.NewStyle()
			if fg != "" {
				style = style.Foreground(lipgloss.Color(fg))
			}
			if bg != "" {
				style = style.Background(lipgloss.Color(bg))
			}
			b.WriteString(style.Render(run.String()))
			run.Reset()
		}
		for _, cell := range row {
			if cell.Rune == 0 {
				continue
			}
			if cell.Fg != fg || cell.Bg != bg {
				flush()
				fg, bg = cell.Fg, cell.Bg
			}
			run.WriteRune(cell.Rune)
		}
		flush()
		if y < c.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
