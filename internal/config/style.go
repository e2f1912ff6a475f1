// Package config holds the sky map display settings and the application
// configuration, with loading from files and environment via viper.
package config

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Style is the display settings tree. Empty colour strings mean "derive it"
// (star colour from the B-V index, planet colour from the planet table).
type Style struct {
	BgColor        string             `yaml:"bg_color" mapstructure:"bg_color"`
	Glow           bool               `yaml:"glow" mapstructure:"glow"`
	Language       string             `yaml:"language" mapstructure:"language"`
	Stars          StarStyle          `yaml:"stars" mapstructure:"stars"`
	Grid           LineStyle          `yaml:"grid" mapstructure:"grid"`
	Constellations ConstellationStyle `yaml:"constellations" mapstructure:"constellations"`
	Planets        PlanetStyle        `yaml:"planets" mapstructure:"planets"`
	Sun            BodyStyle          `yaml:"sun" mapstructure:"sun"`
	Moon           BodyStyle          `yaml:"moon" mapstructure:"moon"`
}

type StarStyle struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	Color   string  `yaml:"color" mapstructure:"color"`
	Scale   float64 `yaml:"scale" mapstructure:"scale"`
}

type LineStyle struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	Color   string  `yaml:"color" mapstructure:"color"`
	Width   float64 `yaml:"width" mapstructure:"width"`
}

type LabelStyle struct {
	Enabled  bool    `yaml:"enabled" mapstructure:"enabled"`
	Color    string  `yaml:"color" mapstructure:"color"`
	FontSize float64 `yaml:"font_size" mapstructure:"font_size"`
}

type ConstellationLinesStyle struct {
	Enabled bool       `yaml:"enabled" mapstructure:"enabled"`
	Color   string     `yaml:"color" mapstructure:"color"`
	Width   float64    `yaml:"width" mapstructure:"width"`
	Labels  LabelStyle `yaml:"labels" mapstructure:"labels"`
}

type ConstellationStyle struct {
	Lines      ConstellationLinesStyle `yaml:"lines" mapstructure:"lines"`
	Boundaries LineStyle               `yaml:"boundaries" mapstructure:"boundaries"`
}

type PlanetStyle struct {
	Enabled bool       `yaml:"enabled" mapstructure:"enabled"`
	Color   string     `yaml:"color" mapstructure:"color"`
	Scale   float64    `yaml:"scale" mapstructure:"scale"`
	Labels  LabelStyle `yaml:"labels" mapstructure:"labels"`
}

// BodyStyle styles the Sun or the Moon.
type BodyStyle struct {
	Enabled bool       `yaml:"enabled" mapstructure:"enabled"`
	Color   string     `yaml:"color" mapstructure:"color"`
	Scale   float64    `yaml:"scale" mapstructure:"scale"`
	Label   LabelStyle `yaml:"label" mapstructure:"label"`
}

const (
	defaultLanguage = "en"
	defaultFontSize = 14
)

func defaultLabel() LabelStyle {
	return LabelStyle{Enabled: true, Color: "#fefefe", FontSize: defaultFontSize}
}

// Default returns the stock sky map look.
func Default() Style {
	return Style{
		BgColor:  "#000000",
		Glow:     false,
		Language: defaultLanguage,
		Stars: StarStyle{
			Enabled: true,
			Scale:   1,
		},
		Grid: LineStyle{
			Enabled: true,
			Color:   "#555",
			Width:   1,
		},
		Constellations: ConstellationStyle{
			Lines: ConstellationLinesStyle{
				Enabled: true,
				Color:   "#eaeaea",
				Width:   2,
				Labels:  defaultLabel(),
			},
			Boundaries: LineStyle{
				Enabled: false,
				Color:   "#aaa",
				Width:   1,
			},
		},
		Planets: PlanetStyle{
			Enabled: true,
			Scale:   1,
			Labels:  defaultLabel(),
		},
		Sun: BodyStyle{
			Enabled: true,
			Color:   "#ffe484",
			Scale:   1,
			Label:   defaultLabel(),
		},
		Moon: BodyStyle{
			Enabled: true,
			Color:   "#eaeaea",
			Scale:   1,
			Label:   defaultLabel(),
		},
	}
}

// DefaultAndValidate fills zero-valued sizes and required strings and checks
// every colour. Optional colours (stars, planets) may stay empty.
func DefaultAndValidate(s *Style) error {
	d := Default()

	if s.BgColor == "" {
		s.BgColor = d.BgColor
	}
	if s.Language == "" {
		s.Language = d.Language
	}
	for _, c := range []struct {
		dst *string
		def string
	}{
		{&s.Grid.Color, d.Grid.Color},
		{&s.Constellations.Lines.Color, d.Constellations.Lines.Color},
		{&s.Constellations.Boundaries.Color, d.Constellations.Boundaries.Color},
		{&s.Sun.Color, d.Sun.Color},
		{&s.Moon.Color, d.Moon.Color},
	} {
		if *c.dst == "" {
			*c.dst = c.def
		}
	}
	if s.Stars.Scale <= 0 {
		s.Stars.Scale = d.Stars.Scale
	}
	if s.Grid.Width <= 0 {
		s.Grid.Width = d.Grid.Width
	}
	if s.Constellations.Lines.Width <= 0 {
		s.Constellations.Lines.Width = d.Constellations.Lines.Width
	}
	if s.Constellations.Boundaries.Width <= 0 {
		s.Constellations.Boundaries.Width = d.Constellations.Boundaries.Width
	}
	if s.Planets.Scale <= 0 {
		s.Planets.Scale = d.Planets.Scale
	}
	if s.Sun.Scale <= 0 {
		s.Sun.Scale = d.Sun.Scale
	}
	if s.Moon.Scale <= 0 {
		s.Moon.Scale = d.Moon.Scale
	}
	for _, l := range []*LabelStyle{
		&s.Constellations.Lines.Labels, &s.Planets.Labels, &s.Sun.Label, &s.Moon.Label,
	} {
		if l.FontSize <= 0 {
			l.FontSize = defaultFontSize
		}
		if l.Color == "" {
			l.Color = defaultLabel().Color
		}
	}
	for _, c := range []struct {
		name, val string
		required  bool
	}{
		{"bg_color", s.BgColor, true},
		{"stars.color", s.Stars.Color, false},
		{"grid.color", s.Grid.Color, true},
		{"constellations.lines.color", s.Constellations.Lines.Color, true},
		{"constellations.lines.labels.color", s.Constellations.Lines.Labels.Color, true},
		{"constellations.boundaries.color", s.Constellations.Boundaries.Color, true},
		{"planets.color", s.Planets.Color, false},
		{"planets.labels.color", s.Planets.Labels.Color, true},
		{"sun.color", s.Sun.Color, true},
		{"sun.label.color", s.Sun.Label.Color, true},
		{"moon.color", s.Moon.Color, true},
		{"moon.label.color", s.Moon.Label.Color, true},
	} {
		if c.val == "" && !c.required {
			continue
		}
		if _, err := ParseColor(c.val); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}

// ParseColor parses "#rgb" or "#rrggbb".
func ParseColor(s string) (colorful.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q", s)
	}
	return c, nil
}
