package ephem

import (
	"strings"
	"time"

	"github.com/litescript/ls-skymap/internal/astro"
	"github.com/litescript/ls-skymap/internal/logging"
	"github.com/litescript/ls-skymap/internal/metrics"
)

// FallbackProvider asks primary first and answers from fallback when the
// primary fails.
type FallbackProvider struct {
	primary  Provider
	fallback Provider
	logger   *logging.Logger
}

// NewFallbackProvider chains two providers. logger may be nil.
func NewFallbackProvider(primary, fallback Provider, logger *logging.Logger) *FallbackProvider {
	if logger == nil {
		logger = logging.Discard()
	}
	return &FallbackProvider{primary: primary, fallback: fallback, logger: logger}
}

// Name implements Provider.
func (f *FallbackProvider) Name() string {
	return f.primary.Name() + "+" + f.fallback.Name()
}

// Equatorial implements Provider.
func (f *FallbackProvider) Equatorial(body Body, t time.Time, obs astro.Observer) (astro.Angle, astro.Angle, error) {
	ra, dec, err := f.primary.Equatorial(body, t, obs)
	if err == nil {
		return ra, dec, nil
	}
	f.logger.Warn("%s failed for %s, using %s: %v", f.primary.Name(), body, f.fallback.Name(), err)
	metrics.EphemerisRequests.WithLabelValues(strings.ToLower(f.primary.Name()), "fallback").Inc()
	return f.fallback.Equatorial(body, t, obs)
}

// Options selects and configures a provider for New.
type Options struct {
	Mode      Mode
	VSOP87Dir string
	Horizons  []HorizonsOption
	Logger    *logging.Logger
}

// New builds the provider for opts.Mode.
func New(opts Options) (Provider, error) {
	local, err := NewMeeusProvider(opts.VSOP87Dir)
	if err != nil {
		return nil, err
	}
	switch opts.Mode {
	case ModeHorizons:
		return NewHorizonsProvider(opts.Horizons...), nil
	case ModeAuto:
		return NewFallbackProvider(NewHorizonsProvider(opts.Horizons...), local, opts.Logger), nil
	default:
		return local, nil
	}
}
