package skymap

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/litescript/ls-skymap/internal/astro"
	"github.com/litescript/ls-skymap/internal/state"
)

// Kind classifies a projected object.
type Kind string

const (
	KindStar          Kind = "star"
	KindPlanet        Kind = "planet"
	KindSun           Kind = "sun"
	KindMoon          Kind = "moon"
	KindConstellation Kind = "constellation"
)

// Object is one thing placed on the map by the last render.
type Object struct {
	Kind       Kind
	ID         string
	Label      string
	RA, Dec    float64 // degrees
	Mag        float64
	Horizontal astro.Horizontal
	Point      astro.Point
	Radius     float64
	Color      string
}

// AboveHorizon reports whether the object is at or above 0 degrees altitude.
func (o Object) AboveHorizon() bool {
	return o.Horizontal.Alt.Degrees() >= 0
}

func (m *SkyMap) record(o Object) {
	m.objects = append(m.objects, o)
}

// Objects returns what the last render placed, in draw order.
func (m *SkyMap) Objects() []Object {
	return append([]Object(nil), m.objects...)
}

// SnapshotExport is the JSON-serializable representation of a rendered map.
type SnapshotExport struct {
	Timestamp time.Time      `json:"timestamp"`
	Observer  state.Params   `json:"observer"`
	LST       float64        `json:"lst_deg"`
	Radius    float64        `json:"radius"`
	Drawn     map[string]int `json:"drawn"`
	Objects   []ObjectExport `json:"objects"`
}

// ObjectExport is a JSON-friendly object representation. Screen coordinates
// are omitted when the object did not project to a finite point.
type ObjectExport struct {
	Kind      Kind     `json:"kind"`
	ID        string   `json:"id,omitempty"`
	Label     string   `json:"label,omitempty"`
	RA        float64  `json:"ra_deg"`
	Dec       float64  `json:"dec_deg"`
	Mag       *float64 `json:"mag,omitempty"`
	Altitude  float64  `json:"alt_deg"`
	Azimuth   *float64 `json:"az_deg,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Radius    float64  `json:"radius,omitempty"`
	Color     string   `json:"color,omitempty"`
	SunSep    *float64 `json:"sun_sep_deg,omitempty"`
	AboveHorz bool     `json:"above_horizon"`
}

// ExportSnapshot converts the last render to an exportable format.
func (m *SkyMap) ExportSnapshot() *SnapshotExport {
	export := &SnapshotExport{
		Timestamp: m.state.Date(),
		Observer:  m.state.Params(),
		LST:       m.state.LST().Degrees(),
		Radius:    m.radius,
		Drawn:     m.Drawn(),
		Objects:   make([]ObjectExport, 0, len(m.objects)),
	}

	var sun *Object
	for i := range m.objects {
		if m.objects[i].Kind == KindSun {
			sun = &m.objects[i]
		}
	}

	for _, o := range m.objects {
		oe := ObjectExport{
			Kind:      o.Kind,
			ID:        o.ID,
			Label:     o.Label,
			RA:        round(o.RA, 4),
			Dec:       round(o.Dec, 4),
			Altitude:  round(o.Horizontal.Alt.Degrees(), 4),
			Radius:    round(o.Radius, 3),
			Color:     o.Color,
			AboveHorz: o.AboveHorizon(),
		}
		if o.Kind == KindStar {
			mag := o.Mag
			oe.Mag = &mag
		}
		if az := o.Horizontal.AzimuthDegrees(); !math.IsNaN(az) {
			az = round(az, 4)
			oe.Azimuth = &az
		}
		if o.Point.Valid() {
			x, y := round(o.Point.X, 2), round(o.Point.Y, 2)
			oe.X, oe.Y = &x, &y
		}
		if sun != nil && o.Kind != KindSun {
			sep := round(SunSeparation(*sun, o), 2)
			oe.SunSep = &sep
		}
		export.Objects = append(export.Objects, oe)
	}
	return export
}

// SunSeparation returns the angle in degrees between the Sun and o on the
// celestial sphere.
func SunSeparation(sun, o Object) float64 {
	return astro.AngularSeparation(
		astro.FromDegrees(sun.RA), astro.FromDegrees(sun.Dec),
		astro.FromDegrees(o.RA), astro.FromDegrees(o.Dec),
	).Degrees()
}

// WriteJSON writes the snapshot as JSON to the given writer.
func (s *SnapshotExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteSummaryTable writes the solar system bodies and the brightest visible
// stars as a text table.
func (m *SkyMap) WriteSummaryTable(w io.Writer, maxStars int) {
	p := m.state.Params()
	fmt.Fprintf(w, "Sky @ %s  lat %.2f  lon %.2f  fov %.0f  LST %.2fh\n",
		p.Date.Format(time.RFC3339), p.Latitude, p.Longitude, p.Fov, m.state.LST().Hours())
	fmt.Fprintln(w, strings.Repeat("─", 64))
	fmt.Fprintf(w, "%-14s %-8s %8s %8s %8s %8s\n", "Object", "Kind", "RA", "Dec", "Alt", "Az")
	fmt.Fprintln(w, strings.Repeat("─", 64))

	var bodies, stars []Object
	for _, o := range m.objects {
		switch o.Kind {
		case KindStar:
			stars = append(stars, o)
		case KindPlanet, KindSun, KindMoon:
			bodies = append(bodies, o)
		}
	}
	sort.SliceStable(stars, func(i, j int) bool { return stars[i].Mag < stars[j].Mag })
	if maxStars >= 0 && len(stars) > maxStars {
		stars = stars[:maxStars]
	}

	for _, o := range append(bodies, stars...) {
		name := o.Label
		if name == "" {
			name = o.ID
		}
		az := o.Horizontal.AzimuthDegrees()
		azStr := "-"
		if !math.IsNaN(az) {
			azStr = fmt.Sprintf("%8.2f", az)
		}
		fmt.Fprintf(w, "%-14s %-8s %8.2f %8.2f %8.2f %8s\n",
			truncateStr(name, 14), o.Kind, o.RA, o.Dec, o.Horizontal.Alt.Degrees(), azStr)
	}

	fmt.Fprintf(w, "\nVisible stars: %d\n", m.drawn["stars"])
}

func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

func round(v float64, places int) float64 {
	f := math.Pow(10, float64(places))
	return math.Round(v*f) / f
}
