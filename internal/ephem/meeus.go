package ephem

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/elliptic"
	"github.com/soniakeys/meeus/v3/kepler"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	pp "github.com/soniakeys/meeus/v3/planetposition"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-skymap/internal/astro"
	"github.com/litescript/ls-skymap/internal/metrics"
)

// maxCacheEntries bounds the position cache; it is cleared when full.
const maxCacheEntries = 512

// MeeusProvider computes positions locally with the algorithms of Meeus'
// Astronomical Algorithms. Planets use VSOP87 when a data directory is
// configured and JPL's approximate Keplerian elements otherwise.
type MeeusProvider struct {
	earth *pp.V87Planet
	vsop  map[Body]*pp.V87Planet

	mu    sync.Mutex
	cache map[cacheKey]position
}

type cacheKey struct {
	body Body
	jd   float64
}

type position struct {
	ra, dec astro.Angle
}

// vsopIndex maps bodies to planetposition's planet numbering.
var vsopIndex = map[Body]int{
	Mercury: pp.Mercury,
	Venus:   pp.Venus,
	Mars:    pp.Mars,
	Jupiter: pp.Jupiter,
	Saturn:  pp.Saturn,
	Neptune: pp.Neptune,
}

// NewMeeusProvider creates a local provider. vsop87Dir may be empty.
func NewMeeusProvider(vsop87Dir string) (*MeeusProvider, error) {
	p := &MeeusProvider{cache: make(map[cacheKey]position)}
	if vsop87Dir == "" {
		return p, nil
	}

	earth, err := pp.LoadPlanetPath(pp.Earth, vsop87Dir)
	if err != nil {
		return nil, fmt.Errorf("load VSOP87 earth: %w", err)
	}
	p.earth = earth
	p.vsop = make(map[Body]*pp.V87Planet, len(vsopIndex))
	for body, idx := range vsopIndex {
		planet, err := pp.LoadPlanetPath(idx, vsop87Dir)
		if err != nil {
			return nil, fmt.Errorf("load VSOP87 %s: %w", body, err)
		}
		p.vsop[body] = planet
	}
	return p, nil
}

// Name implements Provider.
func (p *MeeusProvider) Name() string {
	if p.earth != nil {
		return "VSOP87"
	}
	return "Meeus"
}

// Equatorial implements Provider. obs is unused; positions are geocentric.
func (p *MeeusProvider) Equatorial(body Body, t time.Time, _ astro.Observer) (astro.Angle, astro.Angle, error) {
	jd := astro.FromUTC(t).JulianDate()
	key := cacheKey{body: body, jd: jd}

	p.mu.Lock()
	cached, ok := p.cache[key]
	p.mu.Unlock()
	if ok {
		metrics.EphemerisRequests.WithLabelValues("meeus", "hit").Inc()
		return cached.ra, cached.dec, nil
	}

	pos, err := p.compute(body, jd)
	if err != nil {
		metrics.EphemerisRequests.WithLabelValues("meeus", "error").Inc()
		return astro.Angle{}, astro.Angle{}, err
	}
	metrics.EphemerisRequests.WithLabelValues("meeus", "miss").Inc()

	p.mu.Lock()
	if len(p.cache) >= maxCacheEntries {
		clear(p.cache)
	}
	p.cache[key] = pos
	p.mu.Unlock()

	return pos.ra, pos.dec, nil
}

func (p *MeeusProvider) compute(body Body, jd float64) (position, error) {
	switch body {
	case Sun:
		ra, dec := solar.ApparentEquatorial(jd)
		return fromMeeus(ra, dec), nil
	case Moon:
		return moonEquatorial(jd), nil
	}

	if _, ok := vsopIndex[body]; !ok {
		return position{}, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
	}
	if p.earth != nil {
		ra, dec := elliptic.Position(p.vsop[body], p.earth, jd)
		return fromMeeus(ra, dec), nil
	}
	return keplerEquatorial(body, jd), nil
}

// moonEquatorial returns the apparent place of the Moon, with nutation
// applied to both longitude and obliquity.
func moonEquatorial(jd float64) position {
	lon, lat, _ := moonposition.Position(jd)
	dPsi, dEps := nutation.Nutation(jd)
	eps := nutation.MeanObliquity(jd) + dEps
	ra, dec := coord.EclToEq(lon+dPsi, lat, eps.Sin(), eps.Cos())
	return fromMeeus(ra, dec)
}

func fromMeeus(ra unit.RA, dec unit.Angle) position {
	return position{
		ra:  astro.FromRadians(ra.Rad()).Normalize(),
		dec: astro.FromRadians(dec.Rad()),
	}
}

// elements are JPL approximate Keplerian elements (Standish), valid
// 1800-2050, referred to the J2000 ecliptic and equinox. Each pair is the
// J2000 value and its rate per Julian century.
type elements struct {
	a, e, i, l, peri, node [2]float64
}

var (
	earthElements = elements{
		a: [2]float64{1.00000261, 0.00000562}, e: [2]float64{0.01671123, -0.00004392},
		i: [2]float64{-0.00001531, -0.01294668}, l: [2]float64{100.46457166, 35999.37244981},
		peri: [2]float64{102.93768193, 0.32327364}, node: [2]float64{0, 0},
	}

	planetElements = map[Body]elements{
		Mercury: {
			a: [2]float64{0.38709927, 0.00000037}, e: [2]float64{0.20563593, 0.00001906},
			i: [2]float64{7.00497902, -0.00594749}, l: [2]float64{252.25032350, 149472.67411175},
			peri: [2]float64{77.45779628, 0.16047689}, node: [2]float64{48.33076593, -0.12534081},
		},
		Venus: {
			a: [2]float64{0.72333566, 0.00000390}, e: [2]float64{0.00677672, -0.00004107},
			i: [2]float64{3.39467605, -0.00078890}, l: [2]float64{181.97909950, 58517.81538729},
			peri: [2]float64{131.60246718, 0.00268329}, node: [2]float64{76.67984255, -0.27769418},
		},
		Mars: {
			a: [2]float64{1.52371034, 0.00001847}, e: [2]float64{0.09339410, 0.00007882},
			i: [2]float64{1.84969142, -0.00813131}, l: [2]float64{-4.55343205, 19140.30268499},
			peri: [2]float64{-23.94362959, 0.44441088}, node: [2]float64{49.55953891, -0.29257343},
		},
		Jupiter: {
			a: [2]float64{5.20288700, -0.00011607}, e: [2]float64{0.04838624, -0.00013253},
			i: [2]float64{1.30439695, -0.00183714}, l: [2]float64{34.39644051, 3034.74612775},
			peri: [2]float64{14.72847983, 0.21252668}, node: [2]float64{100.47390909, 0.20469106},
		},
		Saturn: {
			a: [2]float64{9.53667594, -0.00125060}, e: [2]float64{0.05386179, -0.00050991},
			i: [2]float64{2.48599187, 0.00193609}, l: [2]float64{49.95424423, 1222.49362201},
			peri: [2]float64{92.59887831, -0.41897216}, node: [2]float64{113.66242448, -0.28867794},
		},
		Neptune: {
			a: [2]float64{30.06992276, 0.00026291}, e: [2]float64{0.00859048, 0.00005105},
			i: [2]float64{1.77004347, 0.00035372}, l: [2]float64{-55.12002969, 218.45945325},
			peri: [2]float64{44.96476227, -0.32241464}, node: [2]float64{131.78422574, -0.00508664},
		},
	}
)

// heliocentric returns the J2000 ecliptic position in AU.
func (el elements) heliocentric(T float64) astro.Vec3 {
	at := func(v [2]float64) float64 { return v[0] + v[1]*T }

	a, e := at(el.a), at(el.e)
	incl := astro.FromDegrees(at(el.i))
	node := astro.FromDegrees(at(el.node))
	peri := at(el.peri)
	argPeri := astro.FromDegrees(peri - at(el.node))

	m := math.Mod(at(el.l)-peri, 360)
	if m > 180 {
		m -= 360
	} else if m < -180 {
		m += 360
	}
	ecc := kepler.Kepler3(e, unit.AngleFromDeg(m))

	xp := a * (ecc.Cos() - e)
	yp := a * math.Sqrt(1-e*e) * ecc.Sin()

	cw, sw := argPeri.Cos(), argPeri.Sin()
	cn, sn := node.Cos(), node.Sin()
	ci, si := incl.Cos(), incl.Sin()

	return astro.Vec3{
		X: (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp,
		Y: (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp,
		Z: (sw*si)*xp + (cw*si)*yp,
	}
}

// keplerEquatorial returns the geometric geocentric J2000 position.
func keplerEquatorial(body Body, jd float64) position {
	T := (jd - astro.J2000) / 36525
	earth := earthElements.heliocentric(T)
	geo := planetElements[body].heliocentric(T).Sub(earth)
	ra, dec := astro.Vec3ToRADec(astro.EclipticToEquatorial(geo))
	return position{ra: ra, dec: dec}
}
