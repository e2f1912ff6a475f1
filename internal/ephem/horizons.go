package ephem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/litescript/ls-skymap/internal/astro"
	"github.com/litescript/ls-skymap/internal/metrics"
	"github.com/litescript/ls-skymap/internal/version"
)

const (
	// HorizonsAPIURL is the JPL Horizons JSON API endpoint.
	HorizonsAPIURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// DefaultPathDuration is the time span fetched per request.
	DefaultPathDuration = 24 * time.Hour

	// DefaultPathStep is the step between path points.
	DefaultPathStep = 10 * time.Minute

	// DefaultCacheTTL is how long a fetched path is reused.
	DefaultCacheTTL = 30 * time.Minute

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout = 30 * time.Second

	// DefaultPrefetchMargin is how close to either end of a cached path a
	// lookup may land before the next path is fetched in the background.
	DefaultPrefetchMargin = 3 * time.Hour
)

// ErrNoData is returned when Horizons answers without usable ephemeris rows.
var ErrNoData = errors.New("no ephemeris data")

// Sample is one RA/Dec row of a Horizons ephemeris.
type Sample struct {
	Time time.Time
	RA   astro.Angle
	Dec  astro.Angle
}

// Path is a time-ordered run of samples for one body.
type Path struct {
	Body    Body
	Samples []Sample
	Start   time.Time
	End     time.Time
}

// Covers reports whether t lies within the path.
func (p Path) Covers(t time.Time) bool {
	return len(p.Samples) > 1 && !t.Before(p.Start) && !t.After(p.End)
}

// At linearly interpolates the path at t. RA is interpolated along the
// shorter arc so paths crossing 0h do not swing through 12h.
func (p Path) At(t time.Time) (ra, dec astro.Angle, ok bool) {
	if !p.Covers(t) {
		return astro.Angle{}, astro.Angle{}, false
	}
	i := sort.Search(len(p.Samples), func(i int) bool {
		return p.Samples[i].Time.After(t)
	})
	if i == len(p.Samples) {
		last := p.Samples[i-1]
		return last.RA, last.Dec, true
	}
	a, b := p.Samples[i-1], p.Samples[i]
	span := b.Time.Sub(a.Time)
	frac := 0.0
	if span > 0 {
		frac = float64(t.Sub(a.Time)) / float64(span)
	}

	dRA := math.Mod(b.RA.Degrees()-a.RA.Degrees()+540, 360) - 180
	ra = a.RA.AddDegrees(dRA * frac)
	dec = astro.FromDegrees(a.Dec.Degrees() + (b.Dec.Degrees()-a.Dec.Degrees())*frac)
	return ra, dec, true
}

// HorizonsProvider queries JPL Horizons for observer-table ephemerides.
type HorizonsProvider struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	ttl     time.Duration
	limiter *rate.Limiter
	now     func() time.Time
	margin  time.Duration

	// Path cache
	mu          sync.RWMutex
	pathCache   map[Body]*cachedPath
	prefetching map[Body]bool
	wg          sync.WaitGroup
}

// cachedPath stores a cached trajectory.
type cachedPath struct {
	path      Path
	observer  astro.Observer
	fetchedAt time.Time
}

// HorizonsOption configures a HorizonsProvider.
type HorizonsOption func(*HorizonsProvider)

// WithBaseURL sets a custom API endpoint.
func WithBaseURL(u string) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.baseURL = u
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.client = client
	}
}

// WithCacheTTL sets how long fetched paths are reused.
func WithCacheTTL(d time.Duration) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.ttl = d
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables the
// limit.
func WithRateLimit(perSecond float64) HorizonsOption {
	return func(p *HorizonsProvider) {
		if perSecond <= 0 {
			p.limiter = nil
			return
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithPrefetchMargin sets how near the end of a cached path a lookup may be
// before the following path is fetched in the background. Zero disables
// prefetching, so only cache misses fetch.
func WithPrefetchMargin(d time.Duration) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.margin = d
	}
}

// NewHorizonsProvider creates a new Horizons API client.
func NewHorizonsProvider(opts ...HorizonsOption) *HorizonsProvider {
	p := &HorizonsProvider{
		baseURL:   HorizonsAPIURL,
		timeout:   RequestTimeout,
		ttl:       DefaultCacheTTL,
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		now:         time.Now,
		margin:      DefaultPrefetchMargin,
		pathCache:   make(map[Body]*cachedPath),
		prefetching: make(map[Body]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: p.timeout}
	}
	return p
}

// Name implements Provider.
func (p *HorizonsProvider) Name() string {
	return "Horizons"
}

// Equatorial implements Provider. A path covering t is fetched on a cache
// miss and the position is interpolated from it. The miss blocks the caller
// for up to the request timeout; hits near either end of a path start a
// background fetch of the adjoining path so animations rarely miss.
func (p *HorizonsProvider) Equatorial(body Body, t time.Time, obs astro.Observer) (astro.Angle, astro.Angle, error) {
	if _, ok := body.Info(); !ok {
		return astro.Angle{}, astro.Angle{}, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
	}

	p.mu.RLock()
	cached, ok := p.pathCache[body]
	p.mu.RUnlock()

	if ok && p.now().Sub(cached.fetchedAt) < p.ttl && observerMatch(cached.observer, obs) {
		if ra, dec, ok := cached.path.At(t); ok {
			metrics.EphemerisRequests.WithLabelValues("horizons", "hit").Inc()
			p.maybePrefetch(body, t, cached.path, obs)
			return ra, dec, nil
		}
	}

	path, err := p.fetch(body, t.Add(-time.Hour), obs)
	if err != nil {
		metrics.EphemerisRequests.WithLabelValues("horizons", "error").Inc()
		return astro.Angle{}, astro.Angle{}, err
	}
	metrics.EphemerisRequests.WithLabelValues("horizons", "miss").Inc()

	ra, dec, ok := path.At(t)
	if !ok {
		return astro.Angle{}, astro.Angle{}, fmt.Errorf("%w: %s at %s", ErrNoData, body, t.UTC().Format(time.RFC3339))
	}
	return ra, dec, nil
}

// fetch retrieves the path starting at start and caches it.
func (p *HorizonsProvider) fetch(body Body, start time.Time, obs astro.Observer) (Path, error) {
	start = start.Truncate(DefaultPathStep)
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	path, err := p.GetPath(ctx, body, start, start.Add(DefaultPathDuration), DefaultPathStep, obs)
	if err != nil {
		return Path{}, err
	}
	p.mu.Lock()
	p.pathCache[body] = &cachedPath{
		path:      path,
		observer:  obs,
		fetchedAt: p.now(),
	}
	p.mu.Unlock()
	return path, nil
}

// maybePrefetch starts a background fetch of the path adjoining cur when t
// is within the prefetch margin of its end (moving forward) or its start
// (moving backward). At most one prefetch per body runs at a time.
func (p *HorizonsProvider) maybePrefetch(body Body, t time.Time, cur Path, obs astro.Observer) {
	if p.margin <= 0 {
		return
	}
	var start time.Time
	switch {
	case cur.End.Sub(t) < p.margin:
		start = t.Add(-time.Hour)
	case t.Sub(cur.Start) < p.margin:
		start = t.Add(time.Hour - DefaultPathDuration)
	default:
		return
	}

	p.mu.Lock()
	if p.prefetching[body] {
		p.mu.Unlock()
		return
	}
	p.prefetching[body] = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_, err := p.fetch(body, start, obs)
		p.mu.Lock()
		delete(p.prefetching, body)
		p.mu.Unlock()
		if err != nil {
			metrics.EphemerisRequests.WithLabelValues("horizons", "error").Inc()
			return
		}
		metrics.EphemerisRequests.WithLabelValues("horizons", "prefetch").Inc()
	}()
}

// Wait blocks until background prefetches have finished.
func (p *HorizonsProvider) Wait() {
	p.wg.Wait()
}

// InvalidateCache drops every cached path.
func (p *HorizonsProvider) InvalidateCache() {
	p.mu.Lock()
	clear(p.pathCache)
	p.mu.Unlock()
}

// GetPath queries Horizons for a body's RA/Dec between start and end.
func (p *HorizonsProvider) GetPath(ctx context.Context, body Body, start, end time.Time, step time.Duration, obs astro.Observer) (Path, error) {
	info, ok := body.Info()
	if !ok {
		return Path{}, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return Path{}, fmt.Errorf("horizons rate limit: %w", err)
		}
	}

	// Values must be quoted with single quotes
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", fmt.Sprintf("'%d'", info.NAIF))
	params.Set("OBJ_DATA", "NO")
	params.Set("MAKE_EPHEM", "YES")
	params.Set("EPHEM_TYPE", "OBSERVER")
	params.Set("CENTER", "'coord@399'")
	params.Set("COORD_TYPE", "GEODETIC")
	params.Set("SITE_COORD", fmt.Sprintf("'%.4f,%.4f,0'", obs.LonDeg, obs.LatDeg))
	params.Set("START_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(start)))
	params.Set("STOP_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(end)))
	params.Set("STEP_SIZE", fmt.Sprintf("'%s'", formatStepSize(step)))
	params.Set("QUANTITIES", "'1'") // 1=Astrometric RA/Dec
	params.Set("ANG_FORMAT", "DEG")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Path{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := p.client.Do(req)
	if err != nil {
		return Path{}, fmt.Errorf("horizons request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Path{}, fmt.Errorf("horizons returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Path{}, fmt.Errorf("failed to read response: %w", err)
	}

	return parseHorizonsResponse(body, b)
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// parseHorizonsResponse parses the Horizons JSON response.
func parseHorizonsResponse(body Body, b []byte) (Path, error) {
	var resp horizonsResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return Path{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if resp.Error != "" {
		return Path{}, fmt.Errorf("horizons: %s", strings.TrimSpace(resp.Error))
	}

	// The ephemeris rows are in resp.Result as a text blob
	samples, err := parseEphemerisTable(resp.Result)
	if err != nil {
		return Path{}, err
	}
	if len(samples) == 0 {
		return Path{}, fmt.Errorf("%w for %s", ErrNoData, body)
	}

	return Path{
		Body:    body,
		Samples: samples,
		Start:   samples[0].Time,
		End:     samples[len(samples)-1].Time,
	}, nil
}

// parseEphemerisTable extracts samples between the $$SOE and $$EOE markers.
func parseEphemerisTable(result string) ([]Sample, error) {
	soeIdx := strings.Index(result, "$$SOE")
	eoeIdx := strings.Index(result, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return nil, fmt.Errorf("could not find ephemeris data markers")
	}

	var samples []Sample
	for _, line := range strings.Split(result[soeIdx+5:eoeIdx], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s, err := parseEphemerisLine(line)
		if err != nil {
			continue // Skip unparseable lines
		}
		samples = append(samples, s)
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Time.Before(samples[j].Time) })
	return samples, nil
}

// parseEphemerisLine parses one row of a QUANTITIES='1', ANG_FORMAT=DEG table:
//
//	2024-Jan-15 00:00 *m  295.86353 -21.30917
//
// Flag columns between the time and the angles are skipped.
func parseEphemerisLine(line string) (Sample, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Sample{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	t, err := parseHorizonsDateTime(fields[0] + " " + fields[1])
	if err != nil {
		return Sample{}, err
	}

	var vals []float64
	for _, f := range fields[2:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		vals = append(vals, v)
		if len(vals) == 2 {
			break
		}
	}
	if len(vals) < 2 {
		return Sample{}, fmt.Errorf("could not find RA/Dec values")
	}
	if vals[1] < -90 || vals[1] > 90 {
		return Sample{}, fmt.Errorf("declination out of range: %v", vals[1])
	}

	return Sample{
		Time: t,
		RA:   astro.FromDegrees(vals[0]).Normalize(),
		Dec:  astro.FromDegrees(vals[1]),
	}, nil
}

// parseHorizonsDateTime parses Horizons date format like "2025-Dec-05 00:00".
func parseHorizonsDateTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-Jan-02 15:04", "2006-Jan-02 15:04:05", "2006-Jan-02 15:04:05.000"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// formatHorizonsTime formats a time for Horizons API.
func formatHorizonsTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// formatStepSize formats a duration as a Horizons step size.
func formatStepSize(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	if minutes >= 60 && minutes%60 == 0 {
		return fmt.Sprintf("%d h", minutes/60)
	}
	return fmt.Sprintf("%d m", minutes)
}

// observerMatch checks if two observers are close enough to share cache.
func observerMatch(a, b astro.Observer) bool {
	const tolerance = 0.1 // degrees
	return math.Abs(a.LatDeg-b.LatDeg) <= tolerance && math.Abs(a.LonDeg-b.LonDeg) <= tolerance
}
