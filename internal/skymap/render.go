package skymap

import (
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-skymap/internal/astro"
	"github.com/litescript/ls-skymap/internal/config"
	"github.com/litescript/ls-skymap/internal/ephem"
	"github.com/litescript/ls-skymap/internal/metrics"
)

// Culling thresholds in degrees of altitude.
const (
	lineBreakAlt     = -20
	boundaryBreakAlt = -45
	circleBreakAlt   = -3
)

// Glow blur radii, in surface pixels.
const (
	lineGlow = 5
	diskGlow = 10
)

// project maps equatorial degrees to the surface.
func (m *SkyMap) project(raDeg, decDeg float64) (astro.Point, astro.Horizontal) {
	h := astro.EquatorialToHorizontal(
		astro.FromDegrees(raDeg), astro.FromDegrees(decDeg),
		m.state.Latitude(), m.state.LST(),
	)
	return astro.Project(m.center, h, m.radius/m.state.FovFactor()), h
}

func (m *SkyMap) projectAngles(ra, dec astro.Angle) (astro.Point, astro.Horizontal) {
	h := astro.EquatorialToHorizontal(ra, dec, m.state.Latitude(), m.state.LST())
	return astro.Project(m.center, h, m.radius/m.state.FovFactor()), h
}

// Render redraws the whole map: clip, background, grid, constellation lines
// and labels, boundaries, stars, planets, Sun, Moon and the border. A missing
// label stops the pass and is returned.
func (m *SkyMap) Render() (err error) {
	start := time.Now()
	drawn := make(map[string]int)
	m.objects = m.objects[:0]
	defer func() {
		m.drawn = drawn
		m.lastErr = err
		metrics.ObserveRender(start, err, drawn)
	}()

	st := m.config.Style()
	s := m.surface

	s.Clear()
	s.ClipCircle(m.center, m.radius)
	s.FillCircle(m.center, m.radius, st.BgColor)

	steps := []struct {
		layer string
		draw  func(config.Style) (int, error)
	}{
		{"grid", m.drawGrid},
		{"constellations", m.drawConstellationLines},
		{"boundaries", m.drawConstellationBoundaries},
		{"stars", m.drawStars},
		{"planets", m.drawPlanets},
		{"sun", m.drawSun},
		{"moon", m.drawMoon},
	}
	for _, step := range steps {
		n, err := step.draw(st)
		if err != nil {
			return fmt.Errorf("draw %s: %w", step.layer, err)
		}
		drawn[step.layer] = n
	}

	m.setShadow(0, "")
	s.StrokeCircle(m.center, m.radius, st.BgColor, 2*m.scaleMod)
	return nil
}

// Drawn returns per-layer object counts from the last render.
func (m *SkyMap) Drawn() map[string]int {
	out := make(map[string]int, len(m.drawn))
	for k, v := range m.drawn {
		out[k] = v
	}
	return out
}

func (m *SkyMap) setShadow(blur float64, color string) {
	if sh, ok := m.surface.(Shadower); ok {
		sh.SetShadow(blur, color)
	}
}

func (m *SkyMap) glow(st config.Style, blur float64, color string) {
	if st.Glow {
		m.setShadow(blur, color)
	} else {
		m.setShadow(0, "")
	}
}

func (m *SkyMap) drawGrid(st config.Style) (int, error) {
	if !st.Grid.Enabled {
		return 0, nil
	}
	s := m.surface
	width := st.Grid.Width * m.scaleMod
	m.setShadow(0, "")

	latDeg := m.state.Params().Latitude
	minAlt := -1.0
	if math.Abs(latDeg) < 1 {
		minAlt = 0
	}

	lines := 0
	// Meridians every 1h; the four cardinal ones run pole to pole.
	for ra := 0; ra < 360; ra += 15 {
		decMin, decMax := -80, 80
		if ra%90 == 0 {
			decMin, decMax = -90, 90
		}
		s.BeginPath()
		p := pen{s: s}
		for dec := decMin; dec <= decMax; dec += 5 {
			pt, h := m.project(float64(ra), float64(dec))
			if h.Alt.Degrees() < minAlt {
				continue
			}
			p.line(pt)
		}
		s.Stroke(st.Grid.Color, width)
		lines++
	}

	// Declination circles; the equator degenerates to the horizon at a pole.
	s.BeginPath()
	for dec := -80; dec <= 80; dec += 20 {
		if dec == 0 && math.Abs(latDeg) == 90 {
			continue
		}
		p := pen{s: s}
		for ra := 0; ra <= 360; ra += 5 {
			pt, h := m.project(float64(ra), float64(dec))
			if h.Alt.Degrees() < circleBreakAlt {
				p.lift()
				continue
			}
			p.line(pt)
		}
		lines++
	}
	s.Stroke(st.Grid.Color, width)
	return lines, nil
}

func (m *SkyMap) drawConstellationLines(st config.Style) (int, error) {
	cs := st.Constellations.Lines
	if !cs.Enabled {
		return 0, nil
	}
	s := m.surface
	fontSize := m.scaleMod * cs.Labels.FontSize
	width := cs.Width * m.scaleMod
	m.glow(st, lineGlow, cs.Color)

	for _, c := range m.data.Lines {
		s.BeginPath()
		p := pen{s: s}
		for _, group := range c.Vertices {
			for j, v := range group {
				pt, h := m.project(v[0], v[1])
				if j == 0 || h.Alt.Degrees() < lineBreakAlt {
					p.move(pt)
				} else {
					p.line(pt)
				}
			}
		}

		if cs.Labels.Enabled {
			text, coords, err := m.data.ConstellationLabel(c.ID, st.Language)
			if err != nil {
				return 0, err
			}
			pt, h := m.project(coords[0], coords[1])
			if pt.Valid() {
				w := s.MeasureText(text, fontSize)
				s.FillText(text, astro.Point{X: pt.X - w/2, Y: pt.Y - fontSize/2}, fontSize, cs.Labels.Color)
			}
			m.record(Object{
				Kind: KindConstellation, ID: c.ID, Label: text,
				RA: coords[0], Dec: coords[1], Horizontal: h, Point: pt,
				Color: cs.Labels.Color,
			})
		}
		s.Stroke(cs.Color, width)
	}
	return len(m.data.Lines), nil
}

func (m *SkyMap) drawConstellationBoundaries(st config.Style) (int, error) {
	bs := st.Constellations.Boundaries
	if !bs.Enabled {
		return 0, nil
	}
	s := m.surface
	width := bs.Width * m.scaleMod
	m.glow(st, lineGlow, bs.Color)

	for _, b := range m.data.Boundaries {
		s.BeginPath()
		p := pen{s: s}
		for _, group := range b.Vertices {
			for _, v := range group {
				pt, h := m.project(v[0], v[1])
				if h.Alt.Degrees() < boundaryBreakAlt {
					p.move(pt)
				} else {
					p.line(pt)
				}
			}
		}
		s.Stroke(bs.Color, width)
	}
	return len(m.data.Boundaries), nil
}

// StarSize is the drawn radius of a star: a magnitude -1.44 star in a
// catalogue whose faintest star is 1.44 gets 8 pixels at scale 1.
func StarSize(mag, magMax, scaleMod, scale, fovFactor float64) float64 {
	return 8 / math.Pow(1.18, mag+magMax) * scaleMod * scale / fovFactor
}

func (m *SkyMap) drawStars(st config.Style) (int, error) {
	if !st.Stars.Enabled {
		return 0, nil
	}
	stars := m.data.Stars
	fovFactor := m.state.FovFactor()
	n := 0

	for _, star := range stars.Stars {
		pt, h := m.project(star.RA, star.Dec)
		if h.Alt.Degrees() < 0 || !pt.Valid() {
			continue
		}
		size := StarSize(star.Mag, stars.Mag.Max, m.scaleMod, st.Stars.Scale, fovFactor)
		color := st.Stars.Color
		if color == "" {
			color = BVHex(star.BV)
		}
		m.glow(st, diskGlow, color)
		m.surface.FillCircle(pt, size, color)
		m.record(Object{
			Kind: KindStar, ID: star.Name, Label: star.Name,
			RA: star.RA, Dec: star.Dec, Mag: star.Mag, Horizontal: h, Point: pt,
			Radius: size, Color: color,
		})
		n++
	}
	return n, nil
}

func (m *SkyMap) drawPlanets(st config.Style) (int, error) {
	ps := st.Planets
	if !ps.Enabled {
		return 0, nil
	}
	s := m.surface
	fontSize := m.scaleMod * ps.Labels.FontSize
	date := m.state.Date()
	site := m.state.Site()
	n := 0

	for _, planet := range ephem.Planets {
		ra, dec, err := m.eph.Equatorial(planet.Body, date, site)
		if err != nil {
			return n, fmt.Errorf("%s position: %w", planet.Name, err)
		}
		pt, h := m.projectAngles(ra, dec)

		color := ps.Color
		if color == "" {
			color = planet.Color
		}
		radius := planet.Radius * m.scaleMod * ps.Scale / m.state.FovFactor()

		label := ""
		if ps.Labels.Enabled {
			label, err = m.data.PlanetLabel(planet.ID, st.Language)
			if err != nil {
				return n, err
			}
		}
		if pt.Valid() {
			m.glow(st, diskGlow, color)
			s.FillCircle(pt, radius, color)
			if label != "" {
				w := s.MeasureText(label, fontSize)
				s.FillText(label, astro.Point{X: pt.X - w/2, Y: pt.Y - radius - fontSize/2}, fontSize, ps.Labels.Color)
			}
			n++
		}
		m.record(Object{
			Kind: KindPlanet, ID: planet.ID, Label: label,
			RA: ra.Degrees(), Dec: dec.Degrees(), Horizontal: h, Point: pt,
			Radius: radius, Color: color,
		})
	}
	return n, nil
}

func (m *SkyMap) drawSun(st config.Style) (int, error) {
	return m.drawLuminary(st, ephem.Sun, st.Sun, 8, m.data.SunLabel)
}

func (m *SkyMap) drawMoon(st config.Style) (int, error) {
	return m.drawLuminary(st, ephem.Moon, st.Moon, 4, m.data.MoonLabel)
}

// drawLuminary draws the Sun or the Moon with its label above the disk.
func (m *SkyMap) drawLuminary(st config.Style, body ephem.Body, bs config.BodyStyle, size float64, labelFor func(lang string) (string, error)) (int, error) {
	if !bs.Enabled {
		return 0, nil
	}
	s := m.surface
	fontSize := m.scaleMod * bs.Label.FontSize

	ra, dec, err := m.eph.Equatorial(body, m.state.Date(), m.state.Site())
	if err != nil {
		return 0, fmt.Errorf("%s position: %w", body, err)
	}
	pt, h := m.projectAngles(ra, dec)
	rad := size * m.scaleMod * bs.Scale / m.state.FovFactor()

	label := ""
	if bs.Label.Enabled {
		label, err = labelFor(st.Language)
		if err != nil {
			return 0, err
		}
	}

	kind := KindSun
	if body == ephem.Moon {
		kind = KindMoon
	}
	info, _ := body.Info()
	m.record(Object{
		Kind: kind, ID: info.ID, Label: label,
		RA: ra.Degrees(), Dec: dec.Degrees(), Horizontal: h, Point: pt,
		Radius: rad, Color: bs.Color,
	})
	if !pt.Valid() {
		return 0, nil
	}

	m.glow(st, diskGlow, bs.Color)
	s.FillCircle(pt, rad, bs.Color)
	if label != "" {
		w := s.MeasureText(label, fontSize)
		s.FillText(label, astro.Point{X: pt.X - w/2, Y: pt.Y - rad*1.5}, fontSize, bs.Label.Color)
	}
	return 1, nil
}
