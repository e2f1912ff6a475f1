// Package catalog provides the star and constellation datasets drawn by the
// sky map, together with their multilingual labels.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrLabelNotFound is returned when an id or language has no label.
	ErrLabelNotFound = errors.New("label not found")
	// ErrNotLoaded is returned when a required dataset is missing.
	ErrNotLoaded = errors.New("catalog data not loaded")
)

// Range is a min/max summary.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Star is one catalog star. Coordinates are J2000 degrees; the JSON keys use
// the sky-sphere lon/lat naming of the source datasets.
type Star struct {
	Name string  `json:"name,omitempty"`
	RA   float64 `json:"lon"`
	Dec  float64 `json:"lat"`
	Mag  float64 `json:"mag"`
	BV   float64 `json:"bv"`
}

// Stars is a star dataset with its brightness and colour ranges.
type Stars struct {
	Mag   Range  `json:"mag"`
	BV    Range  `json:"bv"`
	Total int    `json:"total"`
	Stars []Star `json:"stars"`
}

// Vertex is an (RA, Dec) pair in degrees.
type Vertex [2]float64

// ConstellationLine is a stick figure made of one or more vertex groups.
type ConstellationLine struct {
	ID       string     `json:"id"`
	Rank     int        `json:"rank"`
	Vertices [][]Vertex `json:"vertices"`
}

// ConstellationBoundary is a border shared by the constellations in IDs.
type ConstellationBoundary struct {
	IDs      []string   `json:"ids"`
	Vertices [][]Vertex `json:"vertices"`
}

// Labels maps a language code to text.
type Labels map[string]string

// Get returns the text for lang.
func (l Labels) Get(lang string) (string, bool) {
	s, ok := l[lang]
	return s, ok && s != ""
}

// Languages lists the available language codes, sorted.
func (l Labels) Languages() []string {
	out := make([]string, 0, len(l))
	for k := range l {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ConstellationLabel positions a constellation name on the sky.
type ConstellationLabel struct {
	ID     string `json:"id"`
	Coords Vertex `json:"coords"`
	Labels Labels `json:"labels"`
}

// Catalogs is everything the sky map draws apart from the ephemeris bodies.
type Catalogs struct {
	Stars               *Stars
	Lines               []ConstellationLine
	Boundaries          []ConstellationBoundary
	ConstellationLabels map[string]ConstellationLabel
	PlanetLabels        map[string]Labels
	SunLabels           Labels
	MoonLabels          Labels
}

// Validate checks that every dataset is present.
func (c *Catalogs) Validate() error {
	switch {
	case c.Stars == nil:
		return fmt.Errorf("%w: stars", ErrNotLoaded)
	case c.Lines == nil:
		return fmt.Errorf("%w: constellation lines", ErrNotLoaded)
	case c.Boundaries == nil:
		return fmt.Errorf("%w: constellation boundaries", ErrNotLoaded)
	case c.ConstellationLabels == nil:
		return fmt.Errorf("%w: constellation labels", ErrNotLoaded)
	case c.PlanetLabels == nil:
		return fmt.Errorf("%w: planet labels", ErrNotLoaded)
	case c.SunLabels == nil:
		return fmt.Errorf("%w: sun labels", ErrNotLoaded)
	case c.MoonLabels == nil:
		return fmt.Errorf("%w: moon labels", ErrNotLoaded)
	}
	if c.Stars.Total == 0 {
		c.Stars.Total = len(c.Stars.Stars)
	}
	return nil
}

// ConstellationLabel returns the label text and position for a constellation.
func (c *Catalogs) ConstellationLabel(id, lang string) (string, Vertex, error) {
	cl, ok := c.ConstellationLabels[id]
	if !ok {
		return "", Vertex{}, fmt.Errorf("%w: constellation %q", ErrLabelNotFound, id)
	}
	text, ok := cl.Labels.Get(lang)
	if !ok {
		return "", Vertex{}, fmt.Errorf("%w: constellation %q language %q", ErrLabelNotFound, id, lang)
	}
	return text, cl.Coords, nil
}

// PlanetLabel returns the name of planet id in lang.
func (c *Catalogs) PlanetLabel(id, lang string) (string, error) {
	labels, ok := c.PlanetLabels[id]
	if !ok {
		return "", fmt.Errorf("%w: planet %q", ErrLabelNotFound, id)
	}
	text, ok := labels.Get(lang)
	if !ok {
		return "", fmt.Errorf("%w: planet %q language %q", ErrLabelNotFound, id, lang)
	}
	return text, nil
}

// SunLabel returns the Sun's name in lang.
func (c *Catalogs) SunLabel(lang string) (string, error) {
	text, ok := c.SunLabels.Get(lang)
	if !ok {
		return "", fmt.Errorf("%w: sun language %q", ErrLabelNotFound, lang)
	}
	return text, nil
}

// MoonLabel returns the Moon's name in lang.
func (c *Catalogs) MoonLabel(lang string) (string, error) {
	text, ok := c.MoonLabels.Get(lang)
	if !ok {
		return "", fmt.Errorf("%w: moon language %q", ErrLabelNotFound, lang)
	}
	return text, nil
}

// Languages lists the language codes present in every label set, sorted.
func (c *Catalogs) Languages() []string {
	sets := []Labels{c.SunLabels, c.MoonLabels}
	for _, id := range sortedKeys(c.PlanetLabels) {
		sets = append(sets, c.PlanetLabels[id])
	}
	for _, id := range sortedKeys(c.ConstellationLabels) {
		sets = append(sets, c.ConstellationLabels[id].Labels)
	}

	var out []string
	for _, lang := range c.SunLabels.Languages() {
		ok := true
		for _, l := range sets {
			if _, found := l.Get(lang); !found {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, lang)
		}
	}
	return out
}

// FilterMagnitude returns a copy of c whose star list keeps only stars at or
// brighter than limit. The magnitude range is recomputed.
func (c *Catalogs) FilterMagnitude(limit float64) *Catalogs {
	out := *c
	if c.Stars == nil {
		return &out
	}
	s := &Stars{BV: c.Stars.BV}
	first := true
	for _, st := range c.Stars.Stars {
		if st.Mag > limit {
			continue
		}
		s.Stars = append(s.Stars, st)
		if first || st.Mag < s.Mag.Min {
			s.Mag.Min = st.Mag
		}
		if first || st.Mag > s.Mag.Max {
			s.Mag.Max = st.Mag
		}
		first = false
	}
	s.Total = len(s.Stars)
	out.Stars = s
	return &out
}
