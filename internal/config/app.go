package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SKYMAP_OBSERVER_LATITUDE.
const EnvPrefix = "SKYMAP"

// App is the complete application configuration.
type App struct {
	Observer  ObserverConfig  `yaml:"observer" mapstructure:"observer"`
	Ephemeris EphemerisConfig `yaml:"ephemeris" mapstructure:"ephemeris"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Animation AnimationConfig `yaml:"animation" mapstructure:"animation"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Style     Style           `yaml:"style" mapstructure:"style"`
}

type ObserverConfig struct {
	Latitude  float64 `yaml:"latitude" mapstructure:"latitude"`
	Longitude float64 `yaml:"longitude" mapstructure:"longitude"`
	Fov       float64 `yaml:"fov" mapstructure:"fov"`
	// Date is RFC 3339; empty means the current time.
	Date string `yaml:"date" mapstructure:"date"`
}

type EphemerisConfig struct {
	// Mode is one of meeus, horizons, auto.
	Mode        string        `yaml:"mode" mapstructure:"mode"`
	VSOP87Dir   string        `yaml:"vsop87_dir" mapstructure:"vsop87_dir"`
	HorizonsURL string        `yaml:"horizons_url" mapstructure:"horizons_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	// RateLimit is the maximum Horizons requests per second.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

type CatalogConfig struct {
	// Source is a file path or http(s) URL of a catalog bundle; empty selects
	// the built-in set.
	Source  string        `yaml:"source" mapstructure:"source"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type AnimationConfig struct {
	Duration  time.Duration `yaml:"duration" mapstructure:"duration"`
	FrameRate time.Duration `yaml:"frame_rate" mapstructure:"frame_rate"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DefaultApp returns the configuration used when nothing is overridden.
func DefaultApp() App {
	return App{
		Observer: ObserverConfig{Fov: 180},
		Ephemeris: EphemerisConfig{
			Mode:        "meeus",
			HorizonsURL: "https://ssd.jpl.nasa.gov/api/horizons.api",
			Timeout:     30 * time.Second,
			CacheTTL:    30 * time.Minute,
			RateLimit:   1,
		},
		Catalog: CatalogConfig{Timeout: 15 * time.Second},
		Animation: AnimationConfig{
			Duration:  600 * time.Millisecond,
			FrameRate: 30 * time.Millisecond,
		},
		Log:   LogConfig{Level: "info"},
		Style: Default(),
	}
}

// ObserverDate parses Observer.Date, falling back to now.
func (a App) ObserverDate(now time.Time) (time.Time, error) {
	if a.Observer.Date == "" {
		return now.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, a.Observer.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("observer.date: %w", err)
	}
	return t.UTC(), nil
}

// Load reads configuration from path (or skymap.yaml in the working and user
// config directories when path is empty), then applies SKYMAP_* environment
// overrides. A missing default file is not an error.
func Load(path string) (App, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key must be known to viper for env overrides to reach Unmarshal.
	if err := setDefaults(v, DefaultApp()); err != nil {
		return App{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("skymap")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "ls-skymap"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return App{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := DefaultApp()
	if err := v.Unmarshal(&cfg); err != nil {
		return App{}, fmt.Errorf("decode config: %w", err)
	}
	if err := DefaultAndValidate(&cfg.Style); err != nil {
		return App{}, fmt.Errorf("style: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, app App) error {
	b, err := yaml.Marshal(app)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return err
	}
	walkLeaves(m, "", func(path string, val any) {
		v.SetDefault(path, val)
	})
	return nil
}

// ReadStyle reads a YAML style file over the defaults.
func ReadStyle(path string) (Style, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Style{}, err
	}

	s := Default()
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Style{}, err
	}
	if err := DefaultAndValidate(&s); err != nil {
		return Style{}, err
	}
	return s, nil
}

// WriteYAML writes v to path atomically.
func WriteYAML(path string, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	// Use a temp file in the same directory so os.Rename is atomic.
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
