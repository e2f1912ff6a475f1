// Package skymap draws an azimuthal sky map (stars, constellations, planets,
// Sun, Moon and an equatorial grid) for an observer onto a Surface.
package skymap

import (
	"errors"
	"time"

	"github.com/litescript/ls-skymap/internal/anim"
	"github.com/litescript/ls-skymap/internal/astro"
	"github.com/litescript/ls-skymap/internal/catalog"
	"github.com/litescript/ls-skymap/internal/config"
	"github.com/litescript/ls-skymap/internal/ephem"
	"github.com/litescript/ls-skymap/internal/logging"
	"github.com/litescript/ls-skymap/internal/state"
)

// baseRadius is the disk radius at which drawing sizes are unscaled.
const baseRadius = 400

// SkyMap owns the observer state, the style settings and the animation
// engine of one map. It is driven from a single goroutine.
type SkyMap struct {
	surface Surface
	data    *catalog.Catalogs
	eph     ephem.Provider
	logger  *logging.Logger

	state  *state.Observer
	config *config.Reactive
	engine *anim.Engine

	center   astro.Point
	radius   float64
	scaleMod float64

	objects []Object
	drawn   map[string]int
	lastErr error
}

type options struct {
	params      state.Params
	hasParams   bool
	style       config.Style
	stateConfig state.Config
	clock       func() time.Time
	logger      *logging.Logger
}

// Option configures a SkyMap.
type Option func(*options)

// WithParams sets the initial observer. The default is lat 0, lon 0, the
// current time and a 180 degree field of view.
func WithParams(p state.Params) Option {
	return func(o *options) {
		o.params = p
		o.hasParams = true
	}
}

// WithStyle sets the initial display settings.
func WithStyle(s config.Style) Option {
	return func(o *options) {
		o.style = s
	}
}

// WithStateConfig sets the observer change log size.
func WithStateConfig(cfg state.Config) Option {
	return func(o *options) {
		o.stateConfig = cfg
	}
}

// WithClock sets the time source for animations and the default date.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// DefaultParams returns the observer used when none is given.
func DefaultParams(now time.Time) state.Params {
	return state.Params{Latitude: 0, Longitude: 0, Date: now.UTC(), Fov: 180}
}

// New creates a sky map sized to surface and renders it once.
func New(surface Surface, data *catalog.Catalogs, eph ephem.Provider, opts ...Option) (*SkyMap, error) {
	if surface == nil || data == nil || eph == nil {
		return nil, errors.New("skymap: surface, catalogs and ephemeris are required")
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	o := options{
		style:       config.Default(),
		stateConfig: state.DefaultConfig(),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasParams {
		o.params = DefaultParams(o.clock())
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}

	obs, err := state.NewObserver(o.params, o.stateConfig)
	if err != nil {
		return nil, err
	}

	m := &SkyMap{
		surface: surface,
		data:    data,
		eph:     eph,
		logger:  o.logger,
		state:   obs,
		engine:  anim.NewEngine(anim.WithClock(o.clock)),
		drawn:   make(map[string]int),
	}
	m.config, err = config.NewReactive(o.style, m.configChanged)
	if err != nil {
		return nil, err
	}

	if err := m.Resize(surface.Size()); err != nil {
		return nil, err
	}
	return m, nil
}

// Clone creates an independent map with the same observer and style on
// another surface. Catalogs and the ephemeris provider are shared.
func (m *SkyMap) Clone(surface Surface) (*SkyMap, error) {
	return New(surface, m.data, m.eph,
		WithParams(m.state.Params()),
		WithStyle(m.config.Style()),
		WithClock(m.engine.Now),
		WithLogger(m.logger),
	)
}

func (m *SkyMap) configChanged() {
	if err := m.Render(); err != nil {
		m.logger.Warn("render after config change: %v", err)
	}
}

// Config returns the reactive display settings. Every committed change
// re-renders the map.
func (m *SkyMap) Config() *config.Reactive { return m.config }

// Observer returns the observer state. Mutate it through the SkyMap setters
// so the map is re-rendered.
func (m *SkyMap) Observer() *state.Observer { return m.state }

// Params returns the current observer parameters.
func (m *SkyMap) Params() state.Params { return m.state.Params() }

// Engine returns the animation engine.
func (m *SkyMap) Engine() *anim.Engine { return m.engine }

// Err returns the error of the most recent render, if any.
func (m *SkyMap) Err() error { return m.lastErr }

// Geometry returns the projection centre, radius and size modifier.
func (m *SkyMap) Geometry() (center astro.Point, radius, scaleMod float64) {
	return m.center, m.radius, m.scaleMod
}

// Resize fits the map disk into a w by h area and renders.
func (m *SkyMap) Resize(w, h float64) error {
	m.radius = min(w, h) / 2
	m.center = astro.Point{X: m.radius, Y: m.radius}
	m.scaleMod = m.radius / baseRadius
	return m.Render()
}

// SetLatitude sets the observer latitude in degrees and renders.
func (m *SkyMap) SetLatitude(deg float64) error {
	if err := m.state.SetLatitude(deg); err != nil {
		return err
	}
	return m.Render()
}

// SetLongitude sets the observer longitude in degrees and renders.
func (m *SkyMap) SetLongitude(deg float64) error {
	if err := m.state.SetLongitude(deg); err != nil {
		return err
	}
	return m.Render()
}

// SetLocation sets latitude and longitude together and renders once.
func (m *SkyMap) SetLocation(lat, lon float64) error {
	if err := m.state.SetLocation(lat, lon); err != nil {
		return err
	}
	return m.Render()
}

// SetDate sets the observation instant and renders.
func (m *SkyMap) SetDate(t time.Time) error {
	if err := m.state.SetDate(t); err != nil {
		return err
	}
	return m.Render()
}

// SetFov sets the field of view in degrees and renders.
func (m *SkyMap) SetFov(deg float64) error {
	if err := m.state.SetFov(deg); err != nil {
		return err
	}
	return m.Render()
}

// SetObserverParams replaces every observer parameter and renders once.
func (m *SkyMap) SetObserverParams(p state.Params) error {
	if err := m.state.SetParams(p); err != nil {
		return err
	}
	return m.Render()
}

type location struct {
	lat, lon float64
}

func lerpLocation(a, b location, t float64) location {
	return location{
		lat: anim.Lerp(a.lat, b.lat, t),
		lon: anim.LerpAngle(a.lon, b.lon, t),
	}
}

// wrapLongitude folds an interpolated longitude back into [-180, 180].
func wrapLongitude(lon float64) float64 {
	switch {
	case lon > 180:
		return lon - 360
	case lon < -180:
		return lon + 360
	}
	return lon
}

// SetLocationWithAnimation moves the observer to lat/lon over d. Longitude
// travels the short way around. The target is validated up front; onStep,
// if set, runs after each frame's render.
func (m *SkyMap) SetLocationWithAnimation(lat, lon float64, d time.Duration, onStep func(lat, lon float64)) error {
	target := m.state.Params()
	target.Latitude, target.Longitude = lat, lon
	if err := target.Validate(); err != nil {
		return err
	}

	from := location{lat: m.state.Params().Latitude, lon: m.state.Params().Longitude}
	anim.Start(m.engine, "location", from, location{lat: lat, lon: lon}, d, lerpLocation, func(v location) {
		v.lon = wrapLongitude(v.lon)
		m.report(m.SetLocation(v.lat, v.lon))
		if onStep != nil {
			onStep(v.lat, v.lon)
		}
	})
	return nil
}

// SetDateWithAnimation moves the observation instant to t over d.
func (m *SkyMap) SetDateWithAnimation(t time.Time, d time.Duration, onStep func(time.Time)) error {
	anim.Start(m.engine, "date", m.state.Date(), t.UTC(), d, anim.LerpTime, func(v time.Time) {
		m.report(m.SetDate(v))
		if onStep != nil {
			onStep(v)
		}
	})
	return nil
}

// SetFovWithAnimation zooms to fov over d.
func (m *SkyMap) SetFovWithAnimation(fov float64, d time.Duration, onStep func(float64)) error {
	target := m.state.Params()
	target.Fov = fov
	if err := target.Validate(); err != nil {
		return err
	}
	anim.Start(m.engine, "fov", m.state.Fov(), fov, d, anim.Lerp, func(v float64) {
		m.report(m.SetFov(v))
		if onStep != nil {
			onStep(v)
		}
	})
	return nil
}

// Tick advances any running animation to now and reports whether one is
// still running.
func (m *SkyMap) Tick(now time.Time) bool {
	return m.engine.Tick(now)
}

// Animating reports whether an animation is in flight.
func (m *SkyMap) Animating() bool { return m.engine.Running() }

// StopAnimation cancels the running animation, leaving the map where it is.
func (m *SkyMap) StopAnimation() { m.engine.Stop() }

func (m *SkyMap) report(err error) {
	if err != nil {
		m.logger.Warn("animation step: %v", err)
	}
}
