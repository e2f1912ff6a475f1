// Package ephem provides geocentric positions of the Sun, Moon and planets.
package ephem

import (
	"errors"
	"fmt"
	"time"

	"github.com/litescript/ls-skymap/internal/astro"
)

// ErrUnknownBody is returned for a body id that is not drawn by the sky map.
var ErrUnknownBody = errors.New("unknown body")

// Body identifies a solar system object.
type Body int

const (
	Mercury Body = iota
	Venus
	Mars
	Jupiter
	Saturn
	Neptune
	Sun
	Moon
)

// BodyInfo describes how a body is identified and drawn.
type BodyInfo struct {
	Body   Body
	ID     string  // Catalog label key, e.g. "mar"
	Name   string  // English display name
	NAIF   int     // JPL Horizons command id
	Radius float64 // Disk radius before scaling
	Color  string  // Default fill colour
}

// Planets lists the planets drawn on the map, in draw order.
var Planets = []BodyInfo{
	{Body: Mercury, ID: "mer", Name: "Mercury", NAIF: 199, Radius: 1, Color: "#b0b0b0"},
	{Body: Venus, ID: "ven", Name: "Venus", NAIF: 299, Radius: 1, Color: "#ffffe0"},
	{Body: Mars, ID: "mar", Name: "Mars", NAIF: 499, Radius: 1, Color: "#ff4500"},
	{Body: Jupiter, ID: "jup", Name: "Jupiter", NAIF: 599, Radius: 4, Color: "#e3a869"},
	{Body: Saturn, ID: "sat", Name: "Saturn", NAIF: 699, Radius: 3.5, Color: "#66ccff"},
	{Body: Neptune, ID: "nep", Name: "Neptune", NAIF: 899, Radius: 2.2, Color: "#3366cc"},
}

var luminaries = []BodyInfo{
	{Body: Sun, ID: "sun", Name: "Sun", NAIF: 10, Radius: 8},
	{Body: Moon, ID: "moon", Name: "Moon", NAIF: 301, Radius: 4},
}

// Info returns the description of b.
func (b Body) Info() (BodyInfo, bool) {
	for _, list := range [][]BodyInfo{Planets, luminaries} {
		for _, info := range list {
			if info.Body == b {
				return info, true
			}
		}
	}
	return BodyInfo{}, false
}

// String returns the English name.
func (b Body) String() string {
	if info, ok := b.Info(); ok {
		return info.Name
	}
	return fmt.Sprintf("Body(%d)", int(b))
}

// ParseBody looks a body up by its catalog id.
func ParseBody(id string) (Body, error) {
	for _, list := range [][]BodyInfo{Planets, luminaries} {
		for _, info := range list {
			if info.ID == id {
				return info.Body, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBody, id)
}

// Provider defines the interface for ephemeris data sources.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// Equatorial returns the geocentric right ascension and declination of a
	// body at t. obs is used by topocentric sources and may be ignored.
	Equatorial(body Body, t time.Time, obs astro.Observer) (ra, dec astro.Angle, err error)
}

// Mode represents which ephemeris source to use.
type Mode int

const (
	ModeMeeus    Mode = iota // Local series (default)
	ModeHorizons             // Use JPL Horizons only
	ModeAuto                 // Try Horizons, fall back to local series
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeMeeus:
		return "meeus"
	case ModeHorizons:
		return "horizons"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string. Empty selects ModeMeeus.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "meeus":
		return ModeMeeus, nil
	case "horizons":
		return ModeHorizons, nil
	case "auto":
		return ModeAuto, nil
	default:
		return ModeMeeus, fmt.Errorf("unknown ephemeris mode %q", s)
	}
}
