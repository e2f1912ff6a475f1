package ui

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-skymap/internal/catalog"
	"github.com/litescript/ls-skymap/internal/ephem"
	"github.com/litescript/ls-skymap/internal/render"
	"github.com/litescript/ls-skymap/internal/skymap"
	"github.com/litescript/ls-skymap/internal/state"
)

var epoch = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (Model, *skymap.SkyMap, *render.Canvas) {
	t.Helper()
	data, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	eph, err := ephem.NewMeeusProvider("")
	if err != nil {
		t.Fatal(err)
	}
	canvas := render.New(40, 20)
	sky, err := skymap.New(canvas, data, eph,
		skymap.WithParams(state.Params{Latitude: 40, Longitude: -80, Date: epoch, Fov: 180}),
		skymap.WithClock(func() time.Time { return epoch }),
	)
	if err != nil {
		t.Fatal(err)
	}
	m := New(sky, canvas, Options{
		AnimDuration: time.Second,
		Languages:    []string{"en", "fr"},
		Ephemeris:    eph.Name(),
		Now:          func() time.Time { return epoch.Add(48 * time.Hour) },
	})
	return m, sky, canvas
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

// finish runs the active animation to its end.
func finish(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := update(t, m, AnimTickMsg(epoch.Add(10*time.Second)))
	if cmd != nil {
		t.Error("animation still ticking after its end")
	}
	return m
}

func TestView_BeforeSize(t *testing.T) {
	m, _, _ := newTestModel(t)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() = %q", got)
	}
}

func TestWindowSize_ResizesCanvas(t *testing.T) {
	m, sky, canvas := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 44})

	if canvas.Cols() != 76 || canvas.Rows() != 38 {
		t.Errorf("canvas = %dx%d, want 76x38", canvas.Cols(), canvas.Rows())
	}
	if _, r, _ := sky.Geometry(); r != 38 {
		t.Errorf("map radius = %v, want 38", r)
	}

	view := m.View()
	for _, want := range []string{"ls-skymap", "lat +40.00°", "lon -80.00°", "2024-01-15 00:00 UTC", "Meeus", "W ", " E"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestWindowSize_TooSmall(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 10, Height: 5})
	if !strings.Contains(m.View(), "requires larger terminal") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestDiskSize(t *testing.T) {
	tests := []struct {
		w, h       int
		cols, rows int
	}{
		{100, 40, 76, 38},
		{44, 40, 40, 20},
		{45, 40, 40, 20},
		{3, 3, 0, 0},
	}
	for _, tt := range tests {
		cols, rows := diskSize(tt.w, tt.h)
		if cols != tt.cols || rows != tt.rows {
			t.Errorf("diskSize(%d, %d) = %d, %d, want %d, %d", tt.w, tt.h, cols, rows, tt.cols, tt.rows)
		}
	}
}

func TestKeys_MoveAnimates(t *testing.T) {
	tests := []struct {
		key      string
		lat, lon float64
	}{
		{"up", 45, -80},
		{"down", 35, -80},
		{"left", 40, -85},
		{"right", 40, -75},
		{"k", 45, -80},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, sky, _ := newTestModel(t)
			m, cmd := update(t, m, key(tt.key))
			if cmd == nil || !sky.Animating() {
				t.Fatal("move did not start an animation")
			}
			finish(t, m)
			p := sky.Params()
			if math.Abs(p.Latitude-tt.lat) > 1e-9 || math.Abs(p.Longitude-tt.lon) > 1e-9 {
				t.Errorf("params = %+v, want lat %v lon %v", p, tt.lat, tt.lon)
			}
		})
	}
}

func TestKeys_SecondMoveReusesFrameLoop(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, cmd := update(t, m, key("up"))
	if cmd == nil {
		t.Fatal("first move returned no cmd")
	}
	if _, cmd = update(t, m, key("up")); cmd != nil {
		t.Error("second move started another frame loop")
	}
}

func TestKeys_ZoomAndDate(t *testing.T) {
	tests := []struct {
		key  string
		fov  float64
		date time.Time
	}{
		{"+", 144, epoch},
		{"-", 225, epoch},
		{"]", 180, epoch.Add(time.Hour)},
		{"[", 180, epoch.Add(-time.Hour)},
		{"}", 180, epoch.Add(24 * time.Hour)},
		{"{", 180, epoch.Add(-24 * time.Hour)},
		{"n", 180, epoch.Add(48 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, sky, _ := newTestModel(t)
			m, _ = update(t, m, key(tt.key))
			finish(t, m)
			p := sky.Params()
			if math.Abs(p.Fov-tt.fov) > 1e-9 || !p.Date.Equal(tt.date) {
				t.Errorf("params = %+v, want fov %v date %v", p, tt.fov, tt.date)
			}
		})
	}
}

func TestKeys_Toggles(t *testing.T) {
	m, sky, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 44})

	m, _ = update(t, m, key("g"))
	if sky.Config().Style().Grid.Enabled {
		t.Error("g did not turn the grid off")
	}
	if !strings.Contains(m.View(), "Grid: off") {
		t.Error("status not shown")
	}
	m, _ = update(t, m, key("g"))
	if !sky.Config().Style().Grid.Enabled {
		t.Error("second g did not turn the grid back on")
	}

	m, _ = update(t, m, key("b"))
	if !sky.Config().Style().Constellations.Boundaries.Enabled {
		t.Error("b did not enable boundaries")
	}

	m, _ = update(t, m, key("t"))
	st := sky.Config().Style()
	if st.Constellations.Lines.Labels.Enabled || st.Planets.Labels.Enabled || st.Sun.Label.Enabled || st.Moon.Label.Enabled {
		t.Errorf("t left labels on: %+v", st)
	}

	update(t, m, key("L"))
	if got := sky.Config().Style().Language; got != "fr" {
		t.Errorf("language = %q, want fr", got)
	}
	if sky.Err() != nil {
		t.Errorf("render error after language change: %v", sky.Err())
	}
}

func TestKeys_Quit(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("q returned no cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestKeys_EscStopsAnimation(t *testing.T) {
	m, sky, _ := newTestModel(t)
	m, _ = update(t, m, key("up"))
	update(t, m, key("esc"))
	if sky.Animating() {
		t.Error("esc left the animation running")
	}
	if sky.Params().Latitude != 40 {
		t.Errorf("latitude = %v after cancel", sky.Params().Latitude)
	}
}

func TestFollow(t *testing.T) {
	m, sky, _ := newTestModel(t)
	m, _ = update(t, m, key("f"))

	at := epoch.Add(90 * time.Minute)
	m, cmd := update(t, m, TickMsg(at))
	if cmd == nil {
		t.Error("tick did not reschedule")
	}
	if !sky.Params().Date.Equal(at) {
		t.Errorf("date = %v, want %v", sky.Params().Date, at)
	}

	// Stepping the date turns follow off.
	m, _ = update(t, m, key("]"))
	m = finish(t, m)
	update(t, m, TickMsg(at.Add(time.Hour)))
	if want := at.Add(time.Hour); !sky.Params().Date.Equal(want) {
		t.Errorf("date = %v, want %v", sky.Params().Date, want)
	}
}

func TestErrorMsg(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 44})
	m, _ = update(t, m, ErrorMsg{Error: errors.New("boom")})
	if !strings.Contains(m.View(), "ERROR: boom") {
		t.Error("error not shown")
	}
}

func TestHelpers(t *testing.T) {
	if clampLatitude(95) != 90 || clampLatitude(-95) != -90 || clampLatitude(12) != 12 {
		t.Error("clampLatitude")
	}
	if clampFov(1) != minFov || clampFov(400) != maxFov {
		t.Error("clampFov")
	}
	tests := []struct{ in, want float64 }{
		{185, -175},
		{-185, 175},
		{180, 180},
		{-180, -180},
		{540, 180},
	}
	for _, tt := range tests {
		if got := wrapLongitude(tt.in); got != tt.want {
			t.Errorf("wrapLongitude(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
