// Package state holds the observer/view state that every sky map render
// reads: location, instant, field of view and the values derived from them.
package state

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-skymap/internal/astro"
)

// ErrInvalidParams is matched by every validation failure.
var ErrInvalidParams = errors.New("invalid observer parameters")

// Valid ranges, inclusive.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
	MinFov       = 0.0
	MaxFov       = 360.0
)

// ValidationError reports an out-of-range setter argument.
type ValidationError struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %v out of range [%v, %v]", e.Field, e.Value, e.Min, e.Max)
}

// Unwrap lets errors.Is match ErrInvalidParams.
func (e *ValidationError) Unwrap() error { return ErrInvalidParams }

// ChangeKind names the setter that produced a change.
type ChangeKind string

const (
	ChangeLatitude  ChangeKind = "LATITUDE"
	ChangeLongitude ChangeKind = "LONGITUDE"
	ChangeDate      ChangeKind = "DATE"
	ChangeFov       ChangeKind = "FOV"
	ChangeLocation  ChangeKind = "LOCATION"
	ChangeParams    ChangeKind = "PARAMS"
)

// Params is the full set of observer inputs.
type Params struct {
	Latitude  float64   `json:"latitude"`  // degrees, north positive
	Longitude float64   `json:"longitude"` // degrees, east positive
	Date      time.Time `json:"date"`
	Fov       float64   `json:"fov"` // degrees
}

// Change is one committed mutation, recorded with the resulting params.
type Change struct {
	Kind   ChangeKind `json:"kind"`
	At     time.Time  `json:"at"`
	Params Params     `json:"params"`
}

// Config holds configuration for the observer state.
type Config struct {
	MaxChanges int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxChanges: 50,
	}
}

// Observer is the single authoritative snapshot of what a render depends on.
// It is owned by one sky map and is not safe for concurrent use.
type Observer struct {
	params Params

	// Derived/cached data
	time      astro.AstronomicalTime
	lst       astro.Angle
	fovFactor float64

	// Change log (ring buffer)
	changes    []Change
	maxChanges int
	writeAt    int

	clock func() time.Time
}

// NewObserver validates p and creates the state.
func NewObserver(p Params, cfg Config) (*Observer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	maxChanges := cfg.MaxChanges
	if maxChanges <= 0 {
		maxChanges = 50
	}
	o := &Observer{
		maxChanges: maxChanges,
		changes:    make([]Change, 0, maxChanges),
		clock:      time.Now,
	}
	o.apply(p)
	return o, nil
}

// Validate checks every field and returns the first violation.
func (p Params) Validate() error {
	if err := checkRange("latitude", p.Latitude, MinLatitude, MaxLatitude); err != nil {
		return err
	}
	if err := checkRange("longitude", p.Longitude, MinLongitude, MaxLongitude); err != nil {
		return err
	}
	return checkRange("fov", p.Fov, MinFov, MaxFov)
}

func checkRange(field string, v, lo, hi float64) error {
	// NaN fails both comparisons, so test for it explicitly
	if math.IsNaN(v) || v < lo || v > hi {
		return &ValidationError{Field: field, Value: v, Min: lo, Max: hi}
	}
	return nil
}

// apply commits p and recomputes derived fields.
func (o *Observer) apply(p Params) {
	p.Date = p.Date.UTC()
	o.params = p
	o.time = astro.FromUTC(p.Date)
	o.lst = o.time.LST(astro.FromDegrees(p.Longitude))
	o.fovFactor = astro.FovFactor(p.Fov)
}

func (o *Observer) commit(kind ChangeKind, p Params) {
	o.apply(p)
	o.addChange(Change{Kind: kind, At: o.clock(), Params: o.params})
}

// SetLatitude sets the observer latitude in degrees.
func (o *Observer) SetLatitude(deg float64) error {
	if err := checkRange("latitude", deg, MinLatitude, MaxLatitude); err != nil {
		return err
	}
	p := o.params
	p.Latitude = deg
	o.commit(ChangeLatitude, p)
	return nil
}

// SetLongitude sets the observer longitude in degrees (east positive).
func (o *Observer) SetLongitude(deg float64) error {
	if err := checkRange("longitude", deg, MinLongitude, MaxLongitude); err != nil {
		return err
	}
	p := o.params
	p.Longitude = deg
	o.commit(ChangeLongitude, p)
	return nil
}

// SetLocation sets latitude and longitude together; neither changes unless
// both are valid.
func (o *Observer) SetLocation(lat, lon float64) error {
	if err := checkRange("latitude", lat, MinLatitude, MaxLatitude); err != nil {
		return err
	}
	if err := checkRange("longitude", lon, MinLongitude, MaxLongitude); err != nil {
		return err
	}
	p := o.params
	p.Latitude, p.Longitude = lat, lon
	o.commit(ChangeLocation, p)
	return nil
}

// SetDate sets the observation instant.
func (o *Observer) SetDate(t time.Time) error {
	p := o.params
	p.Date = t
	o.commit(ChangeDate, p)
	return nil
}

// SetFov sets the field of view in degrees.
func (o *Observer) SetFov(deg float64) error {
	if err := checkRange("fov", deg, MinFov, MaxFov); err != nil {
		return err
	}
	p := o.params
	p.Fov = deg
	o.commit(ChangeFov, p)
	return nil
}

// SetParams replaces all four inputs atomically.
func (o *Observer) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	o.commit(ChangeParams, p)
	return nil
}

// Params returns the current inputs.
func (o *Observer) Params() Params { return o.params }

func (o *Observer) Latitude() astro.Angle { return astro.FromDegrees(o.params.Latitude) }
func (o *Observer) Longitude() astro.Angle { return astro.FromDegrees(o.params.Longitude) }
func (o *Observer) Date() time.Time { return o.params.Date }
func (o *Observer) Time() astro.AstronomicalTime { return o.time }
func (o *Observer) Fov() float64 { return o.params.Fov }
func (o *Observer) FovFactor() float64 { return o.fovFactor }
func (o *Observer) LST() astro.Angle { return o.lst }

// Site returns the location as an astro.Observer.
func (o *Observer) Site() astro.Observer {
	return astro.Observer{LatDeg: o.params.Latitude, LonDeg: o.params.Longitude}
}

// addChange adds a change to the ring buffer.
func (o *Observer) addChange(c Change) {
	if len(o.changes) < o.maxChanges {
		o.changes = append(o.changes, c)
	} else {
		o.changes[o.writeAt] = c
		o.writeAt = (o.writeAt + 1) % o.maxChanges
	}
}

// Changes returns the change log in chronological order.
func (o *Observer) Changes() []Change {
	if len(o.changes) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(o.changes) < o.maxChanges {
		result := make([]Change, len(o.changes))
		copy(result, o.changes)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Change, o.maxChanges)
	for i := 0; i < o.maxChanges; i++ {
		idx := (o.writeAt + i) % o.maxChanges
		result[i] = o.changes[idx]
	}
	return result
}

// RecentChanges returns the last n changes.
func (o *Observer) RecentChanges(n int) []Change {
	all := o.Changes()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}
