package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/litescript/ls-skymap/internal/version"
)

//go:embed data/*.json
var embedded embed.FS

// File names of a split catalog, as embedded and as read from a directory.
const (
	StarsFile          = "stars.json"
	LinesFile          = "constellations.lines.json"
	BoundariesFile     = "constellations.bounds.json"
	LabelsFile         = "constellations.labels.json"
	PlanetLabelsFile   = "planets.labels.json"
	SunLabelsFile      = "sun.labels.json"
	MoonLabelsFile     = "moon.labels.json"
	DefaultLoadTimeout = 15 * time.Second
)

// Bundle is the single-document catalog format served over HTTP or stored as
// one file.
type Bundle struct {
	Stars               *Stars                  `json:"stars"`
	Lines               []ConstellationLine     `json:"constellation_lines"`
	Boundaries          []ConstellationBoundary `json:"constellation_boundaries"`
	ConstellationLabels []ConstellationLabel    `json:"constellation_labels"`
	PlanetLabels        map[string]Labels       `json:"planet_labels"`
	SunLabels           Labels                  `json:"sun_labels"`
	MoonLabels          Labels                  `json:"moon_labels"`
}

// Catalogs converts the bundle and validates it.
func (b *Bundle) Catalogs() (*Catalogs, error) {
	c := &Catalogs{
		Stars:        b.Stars,
		Lines:        b.Lines,
		Boundaries:   b.Boundaries,
		PlanetLabels: b.PlanetLabels,
		SunLabels:    b.SunLabels,
		MoonLabels:   b.MoonLabels,
	}
	if b.ConstellationLabels != nil {
		c.ConstellationLabels = make(map[string]ConstellationLabel, len(b.ConstellationLabels))
		for _, l := range b.ConstellationLabels {
			c.ConstellationLabels[l.ID] = l
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Bundle returns c in single-document form.
func (c *Catalogs) Bundle() *Bundle {
	b := &Bundle{
		Stars:        c.Stars,
		Lines:        c.Lines,
		Boundaries:   c.Boundaries,
		PlanetLabels: c.PlanetLabels,
		SunLabels:    c.SunLabels,
		MoonLabels:   c.MoonLabels,
	}
	for _, id := range sortedKeys(c.ConstellationLabels) {
		b.ConstellationLabels = append(b.ConstellationLabels, c.ConstellationLabels[id])
	}
	return b
}

// Default returns the built-in catalog.
func Default() (*Catalogs, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadFS reads a split catalog from the root of fsys.
func LoadFS(fsys fs.FS) (*Catalogs, error) {
	var b Bundle
	var labels []ConstellationLabel
	for _, f := range []struct {
		name string
		dst  any
	}{
		{StarsFile, &b.Stars},
		{LinesFile, &b.Lines},
		{BoundariesFile, &b.Boundaries},
		{LabelsFile, &labels},
		{PlanetLabelsFile, &b.PlanetLabels},
		{SunLabelsFile, &b.SunLabels},
		{MoonLabelsFile, &b.MoonLabels},
	} {
		data, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.name, err)
		}
		if err := json.Unmarshal(data, f.dst); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
	}
	b.ConstellationLabels = labels
	return b.Catalogs()
}

// Loader fetches catalogs from files, directories or HTTP.
type Loader struct {
	client  *http.Client
	timeout time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		l.client = client
	}
}

// NewLoader creates a catalog loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{timeout: DefaultLoadTimeout}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		l.client = &http.Client{Timeout: l.timeout}
	}
	return l
}

// Load reads the catalog named by src: empty for the built-in set, an
// http(s) URL or file path of a bundle, or a directory of split files.
func (l *Loader) Load(ctx context.Context, src string) (*Catalogs, error) {
	switch {
	case src == "":
		return Default()
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		data, err := l.fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		return parseBundle(data)
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("catalog source: %w", err)
	}
	if info.IsDir() {
		return LoadFS(os.DirFS(src))
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parseBundle(data)
}

// Load is a convenience wrapper around NewLoader(opts...).Load.
func Load(ctx context.Context, src string, opts ...LoaderOption) (*Catalogs, error) {
	return NewLoader(opts...).Load(ctx, src)
}

func parseBundle(data []byte) (*Catalogs, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse catalog bundle: %w", err)
	}
	return b.Catalogs()
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// WriteJSON writes c as an indented bundle.
func (c *Catalogs) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c.Bundle())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
