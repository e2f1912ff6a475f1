// Command ls-skymap draws an interactive map of the sky in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-skymap/internal/catalog"
	"github.com/litescript/ls-skymap/internal/config"
	"github.com/litescript/ls-skymap/internal/ephem"
	"github.com/litescript/ls-skymap/internal/logging"
	"github.com/litescript/ls-skymap/internal/metrics"
	"github.com/litescript/ls-skymap/internal/render"
	"github.com/litescript/ls-skymap/internal/skymap"
	"github.com/litescript/ls-skymap/internal/state"
	"github.com/litescript/ls-skymap/internal/ui"
	"github.com/litescript/ls-skymap/internal/version"
)

// CLI flags for headless mode
var (
	snapshotMode bool
	summaryMode  bool
	jsonPath     string
	animateTo    string
	canvasSize   string
	maxStars     int
)

// settings collects repeated --set key=value flags.
type settings []string

func (s *settings) String() string { return strings.Join(*s, ",") }

func (s *settings) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	*s = append(*s, v)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Config file (default: skymap.yaml in . or the user config dir)")
	lat := flag.Float64("lat", 0, "Observer latitude in degrees, north positive")
	lon := flag.Float64("lon", 0, "Observer longitude in degrees, east positive")
	date := flag.String("date", "", "Observation time, RFC 3339 (default: now)")
	fov := flag.Float64("fov", 180, "Field of view in degrees")
	ephemMode := flag.String("ephem", "", "Ephemeris source: meeus, horizons, auto")
	vsopDir := flag.String("vsop87", "", "Directory of VSOP87B files for planet positions")
	catalogSrc := flag.String("catalog", "", "Catalog bundle file, directory or URL (default: built-in)")
	magLimit := flag.Float64("mag-limit", 0, "Only draw stars at or brighter than this magnitude (0: all)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Write logs to this file")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
	writeStyle := flag.String("write-style", "", "Write the effective style as YAML to this file and exit")
	dumpCatalog := flag.String("dump-catalog", "", "Write the loaded catalog as one JSON bundle (use - for stdout) and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	var sets settings
	flag.Var(&sets, "set", "Override a style setting, key=value (repeatable)")
	flag.BoolVar(&snapshotMode, "snapshot", false, "Print one frame instead of starting the TUI")
	flag.BoolVar(&summaryMode, "summary", false, "Print a table of drawn objects")
	flag.StringVar(&jsonPath, "json", "", "Export projected objects as JSON to file (use - for stdout)")
	flag.StringVar(&animateTo, "animate-to", "", "Animate the observer to LAT,LON before output")
	flag.StringVar(&canvasSize, "size", "80x40", "Headless canvas size, COLSxROWS")
	flag.IntVar(&maxStars, "max-stars", 20, "Stars listed by --summary")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent())
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Explicit flags win over the config file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			cfg.Observer.Latitude = *lat
		case "lon":
			cfg.Observer.Longitude = *lon
		case "date":
			cfg.Observer.Date = *date
		case "fov":
			cfg.Observer.Fov = *fov
		case "ephem":
			cfg.Ephemeris.Mode = *ephemMode
		case "vsop87":
			cfg.Ephemeris.VSOP87Dir = *vsopDir
		case "catalog":
			cfg.Catalog.Source = *catalogSrc
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-file":
			cfg.Log.File = *logFile
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		}
	})

	headless := snapshotMode || summaryMode || jsonPath != "" || *dumpCatalog != "" || *writeStyle != "" ||
		!term.IsTerminal(int(os.Stdout.Fd()))

	// Set up logging
	logger := logging.New(logging.ParseLevel(cfg.Log.Level))
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	} else if !headless {
		// Keep the alt screen clean
		logger.SetOutput(io.Discard)
	}

	// Handle signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := catalog.Load(ctx, cfg.Catalog.Source, catalog.WithTimeout(cfg.Catalog.Timeout))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if *magLimit != 0 {
		data = data.FilterMagnitude(*magLimit)
	}
	logger.Debug("catalog: %d stars, %d constellations", data.Stars.Total, len(data.Lines))

	if *dumpCatalog != "" {
		return writeTo(*dumpCatalog, data.WriteJSON)
	}

	mode, err := ephem.ParseMode(cfg.Ephemeris.Mode)
	if err != nil {
		return err
	}
	eph, err := ephem.New(ephem.Options{
		Mode:      mode,
		VSOP87Dir: cfg.Ephemeris.VSOP87Dir,
		Logger:    logger.With("component", "ephem"),
		Horizons: []ephem.HorizonsOption{
			ephem.WithBaseURL(cfg.Ephemeris.HorizonsURL),
			ephem.WithTimeout(cfg.Ephemeris.Timeout),
			ephem.WithCacheTTL(cfg.Ephemeris.CacheTTL),
			ephem.WithRateLimit(cfg.Ephemeris.RateLimit),
		},
	})
	if err != nil {
		return fmt.Errorf("ephemeris: %w", err)
	}
	logger.Info("ephemeris source: %s", eph.Name())

	obsDate, err := cfg.ObserverDate(time.Now())
	if err != nil {
		return err
	}
	params := state.Params{
		Latitude:  cfg.Observer.Latitude,
		Longitude: cfg.Observer.Longitude,
		Date:      obsDate,
		Fov:       cfg.Observer.Fov,
	}

	cols, rows, err := parseSize(canvasSize)
	if err != nil {
		return err
	}
	canvas := render.New(cols, rows)
	sky, err := skymap.New(canvas, data, eph,
		skymap.WithParams(params),
		skymap.WithStyle(cfg.Style),
		skymap.WithLogger(logger.With("component", "skymap")),
	)
	if err != nil {
		return err
	}
	for _, kv := range sets {
		k, v, _ := strings.Cut(kv, "=")
		if err := sky.Config().Set(k, v); err != nil {
			return err
		}
	}

	if *writeStyle != "" {
		return config.WriteYAML(*writeStyle, sky.Config().Style())
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server: %v", err)
			}
		}()
	}

	if headless {
		return runHeadless(ctx, sky, canvas, cfg.Animation, logger)
	}

	// Create TUI model
	model := ui.New(sky, canvas, ui.Options{
		AnimDuration: cfg.Animation.Duration,
		FrameRate:    cfg.Animation.FrameRate,
		Languages:    data.Languages(),
		Ephemeris:    eph.Name(),
		Logger:       logger.With("component", "ui"),
	})

	// Create Bubble Tea program
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// runHeadless handles all headless modes without starting TUI.
func runHeadless(ctx context.Context, sky *skymap.SkyMap, canvas *render.Canvas, ac config.AnimationConfig, logger *logging.Logger) error {
	if animateTo != "" {
		lat, lon, err := parseLatLon(animateTo)
		if err != nil {
			return err
		}
		if err := animate(ctx, sky, lat, lon, ac, logger); err != nil {
			return err
		}
	}

	if err := sky.Err(); err != nil {
		return err
	}

	// Export JSON if requested
	if jsonPath != "" {
		export := sky.ExportSnapshot()
		if err := writeTo(jsonPath, export.WriteJSON); err != nil {
			return err
		}
	}

	// Print summary table if requested
	if summaryMode {
		sky.WriteSummaryTable(os.Stdout, maxStars)
	}

	if snapshotMode || (jsonPath == "" && !summaryMode) {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Println(canvas.String())
		} else {
			fmt.Println(canvas.Plain())
		}
	}
	return nil
}

// animate runs a location tween to completion on a ticker.
func animate(ctx context.Context, sky *skymap.SkyMap, lat, lon float64, ac config.AnimationConfig, logger *logging.Logger) error {
	err := sky.SetLocationWithAnimation(lat, lon, ac.Duration, func(lat, lon float64) {
		logger.Debug("frame lat=%.4f lon=%.4f", lat, lon)
	})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(ac.FrameRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			sky.StopAnimation()
			return ctx.Err()
		case now := <-ticker.C:
			if !sky.Tick(now) {
				return nil
			}
		}
	}
}

// writeTo sends output to path, or stdout for "-".
func writeTo(path string, write func(io.Writer) error) error {
	if path == "-" {
		if err := write(os.Stdout); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func parseSize(s string) (cols, rows int, err error) {
	c, r, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		cols, err = strconv.Atoi(c)
		if err == nil {
			rows, err = strconv.Atoi(r)
		}
	}
	if !ok || err != nil || cols <= 0 || rows <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q, want COLSxROWS", s)
	}
	return cols, rows, nil
}

func parseLatLon(s string) (lat, lon float64, err error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid location %q, want LAT,LON", s)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(a), 64); err != nil {
		return 0, 0, fmt.Errorf("latitude: %w", err)
	}
	if lon, err = strconv.ParseFloat(strings.TrimSpace(b), 64); err != nil {
		return 0, 0, fmt.Errorf("longitude: %w", err)
	}
	return lat, lon, nil
}
