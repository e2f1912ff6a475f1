package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_Validates(t *testing.T) {
	s := Default()
	if err := DefaultAndValidate(&s); err != nil {
		t.Fatalf("default style invalid: %v", err)
	}
	if s != Default() {
		t.Error("DefaultAndValidate should not alter the defaults")
	}
}

func TestDefaultAndValidate_FillsZeroValues(t *testing.T) {
	var s Style
	if err := DefaultAndValidate(&s); err != nil {
		t.Fatalf("DefaultAndValidate: %v", err)
	}
	if s.BgColor != "#000000" || s.Language != "en" {
		t.Errorf("bg/lang = %q/%q", s.BgColor, s.Language)
	}
	if s.Grid.Color != "#555" || s.Sun.Color != "#ffe484" {
		t.Errorf("colors not defaulted: grid %q sun %q", s.Grid.Color, s.Sun.Color)
	}
	if s.Stars.Scale != 1 || s.Constellations.Lines.Width != 2 {
		t.Errorf("sizes not defaulted: %+v", s)
	}
	if s.Planets.Labels.FontSize != defaultFontSize {
		t.Errorf("font size = %v", s.Planets.Labels.FontSize)
	}
	// Optional colours stay empty
	if s.Stars.Color != "" || s.Planets.Color != "" {
		t.Error("optional colors should remain empty")
	}
}

func TestDefaultAndValidate_BadColor(t *testing.T) {
	s := Default()
	s.Grid.Color = "grey"
	err := DefaultAndValidate(&s)
	if err == nil {
		t.Fatal("expected error for bad color")
	}
	if want := `grid.color: invalid color "grey"`; err.Error() != want {
		t.Errorf("err = %q, want %q", err, want)
	}
}

func TestReactive_NoNotifyOnConstruction(t *testing.T) {
	calls := 0
	r, err := NewReactive(Default(), func() { calls++ })
	if err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("construction notified %d times", calls)
	}
	if r.Style().Language != "en" {
		t.Error("style not wrapped")
	}
}

func TestReactive_UpdateNotifiesOnce(t *testing.T) {
	calls := 0
	r, _ := NewReactive(Default(), func() { calls++ })

	err := r.Update(func(s *Style) {
		s.Grid.Enabled = false
		s.Stars.Scale = 2
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if r.Style().Grid.Enabled || r.Style().Stars.Scale != 2 {
		t.Errorf("update not applied: %+v", r.Style())
	}
}

func TestReactive_InvalidUpdateRejected(t *testing.T) {
	calls := 0
	r, _ := NewReactive(Default(), func() { calls++ })

	err := r.Update(func(s *Style) { s.BgColor = "#zzz" })
	if !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("err = %v, want ErrInvalidSetting", err)
	}
	if calls != 0 {
		t.Error("rejected update notified")
	}
	if r.Style().BgColor != "#000000" {
		t.Error("rejected update was committed")
	}
}

func TestReactive_StyleIsCopy(t *testing.T) {
	r, _ := NewReactive(Default(), nil)
	s := r.Style()
	s.Glow = true
	if r.Style().Glow {
		t.Error("mutating the returned copy changed the wrapped style")
	}
}

func TestReactive_Set(t *testing.T) {
	tests := []struct {
		path  string
		value string
		check func(Style) bool
	}{
		{"constellations.lines.color", "#ff0000", func(s Style) bool { return s.Constellations.Lines.Color == "#ff0000" }},
		{"grid.enabled", "false", func(s Style) bool { return !s.Grid.Enabled }},
		{"stars.scale", "1.5", func(s Style) bool { return s.Stars.Scale == 1.5 }},
		{"moon.label.font_size", "20", func(s Style) bool { return s.Moon.Label.FontSize == 20 }},
		{"language", "ru", func(s Style) bool { return s.Language == "ru" }},
		{"glow", "true", func(s Style) bool { return s.Glow }},
		{"stars.color", "", func(s Style) bool { return s.Stars.Color == "" }},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			calls := 0
			r, _ := NewReactive(Default(), func() { calls++ })
			if err := r.Set(tt.path, tt.value); err != nil {
				t.Fatalf("Set(%q, %q): %v", tt.path, tt.value, err)
			}
			if !tt.check(r.Style()) {
				t.Errorf("Set(%q, %q) not applied: %+v", tt.path, tt.value, r.Style())
			}
			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
		})
	}
}

func TestReactive_SetUnknown(t *testing.T) {
	r, _ := NewReactive(Default(), nil)
	for _, p := range []string{"nope", "grid", "grid.colour", "constellations.lines.labels"} {
		if err := r.Set(p, "1"); !errors.Is(err, ErrUnknownSetting) {
			t.Errorf("Set(%q) err = %v, want ErrUnknownSetting", p, err)
		}
	}
}

func TestReactive_SetWrongType(t *testing.T) {
	r, _ := NewReactive(Default(), nil)
	if err := r.Set("grid.enabled", "maybe"); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("err = %v, want ErrInvalidSetting", err)
	}
	if !r.Style().Grid.Enabled {
		t.Error("failed Set changed the style")
	}
}

func TestLeaves(t *testing.T) {
	leaves := Leaves()
	want := map[string]bool{
		"bg_color":                          false,
		"constellations.lines.labels.color": false,
		"constellations.boundaries.enabled": false,
		"sun.label.font_size":               false,
		"planets.labels.enabled":            false,
	}
	for _, l := range leaves {
		if _, ok := want[l]; ok {
			want[l] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("leaf %q missing", k)
		}
	}
}

func TestWriteAndReadStyle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	s := Default()
	s.Glow = true
	s.Grid.Color = "#123456"
	if err := WriteYAML(path, s); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	got, err := ReadStyle(path)
	if err != nil {
		t.Fatalf("ReadStyle: %v", err)
	}
	if got != s {
		t.Errorf("ReadStyle = %+v, want %+v", got, s)
	}
}

func TestReadStyle_PartialMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	doc := "bg_color: \"#0a0d13\"\nconstellations:\n  lines:\n    labels:\n      enabled: false\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadStyle(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.BgColor != "#0a0d13" || got.Constellations.Lines.Labels.Enabled {
		t.Errorf("overrides not applied: %+v", got)
	}
	if got.Constellations.Lines.Color != "#eaeaea" || !got.Grid.Enabled {
		t.Errorf("defaults lost: %+v", got)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skymap.yaml")
	doc := `observer:
  latitude: 51.48
  longitude: -0.0015
  date: "2024-01-15T00:00:00Z"
ephemeris:
  mode: auto
  timeout: 5s
style:
  grid:
    color: "#333"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SKYMAP_OBSERVER_FOV", "90")
	t.Setenv("SKYMAP_STYLE_GLOW", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Observer.Latitude != 51.48 || cfg.Observer.Fov != 90 {
		t.Errorf("observer = %+v", cfg.Observer)
	}
	if cfg.Ephemeris.Mode != "auto" || cfg.Ephemeris.Timeout != 5*time.Second {
		t.Errorf("ephemeris = %+v", cfg.Ephemeris)
	}
	if cfg.Ephemeris.CacheTTL != 30*time.Minute {
		t.Errorf("cache ttl default lost: %v", cfg.Ephemeris.CacheTTL)
	}
	if cfg.Style.Grid.Color != "#333" || !cfg.Style.Glow {
		t.Errorf("style = %+v", cfg.Style)
	}
	if cfg.Style.Sun.Color != "#ffe484" {
		t.Errorf("style default lost: %q", cfg.Style.Sun.Color)
	}

	date, err := cfg.ObserverDate(time.Now())
	if err != nil || !date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ObserverDate = %v, %v", date, err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestObserverDate_Now(t *testing.T) {
	now := time.Date(2030, 5, 5, 5, 5, 5, 0, time.UTC)
	got, err := DefaultApp().ObserverDate(now)
	if err != nil || !got.Equal(now) {
		t.Errorf("ObserverDate = %v, %v", got, err)
	}
}
