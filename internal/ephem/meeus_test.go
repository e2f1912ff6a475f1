package ephem

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-skymap/internal/astro"
)

func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	return math.Min(d, 360-d)
}

func separation(ra1, dec1, ra2, dec2 astro.Angle) float64 {
	return astro.AngularSeparation(ra1, dec1, ra2, dec2).Degrees()
}

func newMeeus(t *testing.T) *MeeusProvider {
	t.Helper()
	p, err := NewMeeusProvider("")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

func TestMeeus_Sun(t *testing.T) {
	p := newMeeus(t)
	ra, dec, err := p.Equatorial(Sun, j2000, astro.Observer{})
	if err != nil {
		t.Fatal(err)
	}
	if d := angleDiff(ra.Degrees(), 281.29); d > 0.05 {
		t.Errorf("Sun RA = %.4f, off by %.4f", ra.Degrees(), d)
	}
	if d := math.Abs(dec.Degrees() + 23.03); d > 0.05 {
		t.Errorf("Sun Dec = %.4f, off by %.4f", dec.Degrees(), d)
	}
}

func TestMeeus_SunSolstice(t *testing.T) {
	p := newMeeus(t)
	_, dec, err := p.Equatorial(Sun, time.Date(2024, 6, 20, 21, 0, 0, 0, time.UTC), astro.Observer{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(dec.Degrees()-23.44) > 0.02 {
		t.Errorf("solstice Sun Dec = %.4f", dec.Degrees())
	}
}

// Astronomical Algorithms example 47.a: 1992 April 12, 0h.
func TestMeeus_Moon(t *testing.T) {
	p := newMeeus(t)
	ra, dec, err := p.Equatorial(Moon, time.Date(1992, 4, 12, 0, 0, 0, 0, time.UTC), astro.Observer{})
	if err != nil {
		t.Fatal(err)
	}
	if d := angleDiff(ra.Degrees(), 134.688470); d > 0.02 {
		t.Errorf("Moon RA = %.5f, off by %.5f", ra.Degrees(), d)
	}
	if d := math.Abs(dec.Degrees() - 13.768368); d > 0.02 {
		t.Errorf("Moon Dec = %.5f, off by %.5f", dec.Degrees(), d)
	}
}

func TestMeeus_KeplerPlanets(t *testing.T) {
	tests := []struct {
		body    Body
		ra, dec float64
	}{
		{Mars, 330.5294, -13.1787},
		{Jupiter, 23.9616, 8.6323},
		{Saturn, 38.6142, 12.5646},
		{Neptune, 305.4311, -19.2147},
	}

	p := newMeeus(t)
	if p.Name() != "Meeus" {
		t.Errorf("Name() = %q", p.Name())
	}
	for _, tt := range tests {
		t.Run(tt.body.String(), func(t *testing.T) {
			ra, dec, err := p.Equatorial(tt.body, j2000, astro.Observer{})
			if err != nil {
				t.Fatal(err)
			}
			if d := angleDiff(ra.Degrees(), tt.ra); d > 0.01 {
				t.Errorf("RA = %.4f, want %.4f", ra.Degrees(), tt.ra)
			}
			if d := math.Abs(dec.Degrees() - tt.dec); d > 0.01 {
				t.Errorf("Dec = %.4f, want %.4f", dec.Degrees(), tt.dec)
			}
		})
	}
}

func TestMeeus_PlanetsNearEcliptic(t *testing.T) {
	p := newMeeus(t)
	for _, date := range []time.Time{
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2031, 3, 1, 0, 0, 0, 0, time.UTC),
	} {
		for _, info := range Planets {
			ra, dec, err := p.Equatorial(info.Body, date, astro.Observer{})
			if err != nil {
				t.Fatal(err)
			}
			ecl := astro.EquatorialToEcliptic(astro.SphericalToVec3(ra, dec))
			_, beta := astro.Vec3ToRADec(ecl)
			if math.Abs(beta.Degrees()) > 9 {
				t.Errorf("%s on %s: ecliptic latitude %.2f", info.Name, date.Format("2006-01-02"), beta.Degrees())
			}
		}
	}
}

func TestMeeus_InnerPlanetElongation(t *testing.T) {
	p := newMeeus(t)
	limits := map[Body]float64{Mercury: 28.8, Venus: 48.5}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 365; day += 7 {
		ts := start.AddDate(0, 0, day)
		sra, sdec, err := p.Equatorial(Sun, ts, astro.Observer{})
		if err != nil {
			t.Fatal(err)
		}
		for body, limit := range limits {
			ra, dec, err := p.Equatorial(body, ts, astro.Observer{})
			if err != nil {
				t.Fatal(err)
			}
			if e := separation(sra, sdec, ra, dec); e > limit {
				t.Errorf("%s elongation %.2f on %s exceeds %.1f", body, e, ts.Format("2006-01-02"), limit)
			}
		}
	}
}

func TestMeeus_Cache(t *testing.T) {
	p := newMeeus(t)
	ts := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	ra1, dec1, _ := p.Equatorial(Mars, ts, astro.Observer{})
	if len(p.cache) != 1 {
		t.Fatalf("cache size = %d, want 1", len(p.cache))
	}
	ra2, dec2, _ := p.Equatorial(Mars, ts, astro.Observer{LatDeg: 10})
	if ra1 != ra2 || dec1 != dec2 {
		t.Error("cached result differs")
	}
	if len(p.cache) != 1 {
		t.Errorf("cache size = %d after repeat", len(p.cache))
	}
}

func TestMeeus_UnknownBody(t *testing.T) {
	p := newMeeus(t)
	if _, _, err := p.Equatorial(Body(42), j2000, astro.Observer{}); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("err = %v, want ErrUnknownBody", err)
	}
}

func TestNewMeeusProvider_BadVSOPDir(t *testing.T) {
	if _, err := NewMeeusProvider(t.TempDir()); err == nil {
		t.Error("expected error for directory without VSOP87 files")
	}
}
