package render

import (
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-skymap/internal/astro"
	"github.com/litescript/ls-skymap/internal/catalog"
	"github.com/litescript/ls-skymap/internal/ephem"
	"github.com/litescript/ls-skymap/internal/skymap"
	"github.com/litescript/ls-skymap/internal/state"
)

var (
	_ skymap.Surface  = (*Canvas)(nil)
	_ skymap.Shadower = (*Canvas)(nil)
)

func pt(x, y float64) astro.Point { return astro.Point{X: x, Y: y} }

func row(c *Canvas, y int) string {
	return strings.Split(c.Plain(), "\n")[y]
}

func TestCanvas_Size(t *testing.T) {
	c := New(10, 5)
	w, h := c.Size()
	if w != 10 || h != 10 {
		t.Errorf("Size() = %v x %v, want 10 x 10", w, h)
	}
	c.Resize(40, 12)
	if c.Cols() != 40 || c.Rows() != 12 {
		t.Errorf("after Resize: %d x %d", c.Cols(), c.Rows())
	}
}

func TestCanvas_FillText(t *testing.T) {
	c := New(10, 5)
	c.FillText("Hi", pt(2, 4), 14, "#ffffff")
	if got := c.Cell(2, 2); got.Rune != 'H' || got.Fg != "#ffffff" {
		t.Errorf("cell = %+v", got)
	}
	if c.Cell(3, 2).Rune != 'i' {
		t.Errorf("second rune = %q", c.Cell(3, 2).Rune)
	}
	if !strings.Contains(c.String(), "Hi") {
		t.Errorf("String() missing text: %q", c.String())
	}
}

func TestCanvas_WideText(t *testing.T) {
	c := New(6, 1)
	if got := c.MeasureText("漢a", 14); got != 3 {
		t.Errorf("MeasureText = %v, want 3", got)
	}
	c.FillText("漢a", pt(0, 0), 14, "")
	if c.Cell(0, 0).Rune != '漢' || c.Cell(2, 0).Rune != 'a' {
		t.Errorf("cells = %+v %+v", c.Cell(0, 0), c.Cell(2, 0))
	}
	if got := row(c, 0); got != "漢a   " {
		t.Errorf("row = %q", got)
	}
}

func TestCanvas_Clip(t *testing.T) {
	c := New(10, 5)
	c.ClipCircle(pt(5, 5), 3)
	c.FillText("X", pt(0, 0), 14, "")
	c.FillText("Y", pt(5, 4), 14, "")
	if c.Cell(0, 0).Rune != ' ' {
		t.Error("drew outside the clip")
	}
	if c.Cell(5, 2).Rune != 'Y' {
		t.Error("clipped inside the disk")
	}

	c.Clear()
	c.FillText("X", pt(0, 0), 14, "")
	if c.Cell(0, 0).Rune != 'X' {
		t.Error("Clear did not remove the clip")
	}
}

func TestCanvas_StrokeLines(t *testing.T) {
	tests := []struct {
		name  string
		from  astro.Point
		to    astro.Point
		cells [][2]int
		glyph rune
	}{
		{"horizontal", pt(0, 4.5), pt(9.5, 4.5), [][2]int{{0, 2}, {5, 2}, {9, 2}}, '─'},
		{"vertical", pt(3.5, 0), pt(3.5, 9.5), [][2]int{{3, 0}, {3, 2}, {3, 4}}, '│'},
		{"rising", pt(0.5, 9.5), pt(4.5, 1.5), [][2]int{{0, 4}, {4, 0}}, '╱'},
		{"falling", pt(0.5, 0.5), pt(4.5, 8.5), [][2]int{{0, 0}, {4, 4}}, '╲'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(10, 5)
			c.BeginPath()
			c.MoveTo(tt.from)
			c.LineTo(tt.to)
			c.Stroke("#555", 1)
			for _, xy := range tt.cells {
				if got := c.Cell(xy[0], xy[1]); got.Rune != tt.glyph || got.Fg != "#555" {
					t.Errorf("cell %v = %+v, want %q", xy, got, tt.glyph)
				}
			}
		})
	}
}

func TestCanvas_MoveToBreaksPath(t *testing.T) {
	c := New(10, 1)
	c.BeginPath()
	c.MoveTo(pt(0, 0.5))
	c.LineTo(pt(3.5, 0.5))
	c.MoveTo(pt(6, 0.5))
	c.LineTo(pt(9.5, 0.5))
	c.Stroke("", 1)
	if got := row(c, 0); got != "────  ────" {
		t.Errorf("row = %q", got)
	}

	// BeginPath discards what was stroked before.
	c.Clear()
	c.BeginPath()
	c.Stroke("", 1)
	if got := row(c, 0); strings.TrimSpace(got) != "" {
		t.Errorf("empty path drew %q", got)
	}
}

func TestCanvas_LineToStartsSubpath(t *testing.T) {
	c := New(10, 1)
	c.BeginPath()
	c.LineTo(pt(0, 0.5))
	c.LineTo(pt(2.5, 0.5))
	c.Stroke("", 1)
	if got := row(c, 0); got != "───       " {
		t.Errorf("row = %q", got)
	}
}

func TestCanvas_FillCircleGlyphs(t *testing.T) {
	tests := []struct {
		radius float64
		want   rune
	}{
		{0.5, '·'},
		{1.5, '•'},
		{3, '●'},
	}
	for _, tt := range tests {
		c := New(5, 3)
		c.FillCircle(pt(2.5, 2.5), tt.radius, "#ff0000")
		if got := c.Cell(2, 1); got.Rune != tt.want || got.Fg != "#ff0000" {
			t.Errorf("radius %v: cell = %+v, want %q", tt.radius, got, tt.want)
		}
	}
}

func TestCanvas_FillArea(t *testing.T) {
	c := New(10, 5)
	c.FillCircle(pt(5, 5), 4, "#112233")
	if got := c.Cell(5, 2).Bg; got != "#112233" {
		t.Errorf("centre bg = %q", got)
	}
	if got := c.Cell(0, 0).Bg; got != "" {
		t.Errorf("corner bg = %q, want none", got)
	}
	if c.Cell(5, 2).Rune != ' ' {
		t.Error("area fill wrote a glyph")
	}
}

func TestCanvas_StrokeCircle(t *testing.T) {
	c := New(20, 10)
	c.ClipCircle(pt(10, 10), 8)
	c.StrokeCircle(pt(10, 10), 8, "#ffffff", 1)
	if got := c.Cell(17, 5); got.Rune != '·' {
		t.Errorf("rim cell = %+v", got)
	}
	if c.Cell(10, 5).Rune != ' ' {
		t.Error("StrokeCircle filled the centre")
	}
}

func TestCanvas_ShadowHalo(t *testing.T) {
	c := New(10, 5)
	c.SetShadow(10, "#ffffff")
	c.FillCircle(pt(5.5, 5), 0.5, "#ffffff")
	bg := c.Cell(4, 2).Bg
	if bg == "" || bg == "#000000" || bg == "#ffffff" {
		t.Errorf("halo bg = %q, want a blend", bg)
	}
	if c.Cell(5, 2).Bg != "" {
		t.Error("halo painted under the glyph itself")
	}

	c.SetShadow(0, "")
	c.FillCircle(pt(1.5, 1), 0.5, "#ffffff")
	if c.Cell(0, 0).Bg != "" {
		t.Error("halo drawn with shadow off")
	}
}

func TestCanvas_DrawsSkyMap(t *testing.T) {
	data, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	eph, err := ephem.NewMeeusProvider("")
	if err != nil {
		t.Fatal(err)
	}
	c := New(60, 30)
	m, err := skymap.New(c, data, eph, skymap.WithParams(state.Params{
		Latitude: 40, Longitude: -80, Fov: 180,
		Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}))
	if err != nil {
		t.Fatalf("skymap.New: %v", err)
	}
	if m.Drawn()["stars"] == 0 {
		t.Error("no stars drawn")
	}
	if !strings.ContainsRune(c.Plain(), '·') {
		t.Errorf("no star glyphs on canvas:\n%s", c.Plain())
	}
	// Corners lie outside the map disk.
	if c.Cell(0, 0).Rune != ' ' || c.Cell(0, 0).Bg != "" {
		t.Errorf("corner cell = %+v", c.Cell(0, 0))
	}
	if c.Cell(30, 15).Bg != "#000000" {
		t.Errorf("centre bg = %q, want map background", c.Cell(30, 15).Bg)
	}
}
