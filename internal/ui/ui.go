// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-skymap/internal/config"
	"github.com/litescript/ls-skymap/internal/logging"
	"github.com/litescript/ls-skymap/internal/render"
	"github.com/litescript/ls-skymap/internal/skymap"
	"github.com/litescript/ls-skymap/internal/version"
)

const (
	headerRows = 1
	footerRows = 3

	stepDeg    = 5.0
	zoomFactor = 1.25
	minFov     = 5.0
	maxFov     = 270.0

	defaultAnimDuration = 600 * time.Millisecond
	defaultFrameRate    = 30 * time.Millisecond
	followInterval      = time.Second
)

// Msg types for Bubble Tea
type (
	// TickMsg drives the follow-real-time clock and the footer spinner.
	TickMsg time.Time

	// AnimTickMsg advances a running animation by one frame.
	AnimTickMsg time.Time

	// ErrorMsg reports an error from outside the update loop.
	ErrorMsg struct {
		Error error
	}
)

// Options configures the UI.
type Options struct {
	AnimDuration time.Duration
	FrameRate    time.Duration
	// Languages lists the label languages the L key cycles through.
	Languages []string
	// Ephemeris names the position source in the footer.
	Ephemeris string
	Logger    *logging.Logger
	Now       func() time.Time
}

// Model is the root Bubble Tea model.
type Model struct {
	sky  *skymap.SkyMap
	view SkyViewModel

	logger       *logging.Logger
	animDuration time.Duration
	frameRate    time.Duration
	languages    []string
	ephemeris    string
	now          func() time.Time

	// UI state
	width     int
	height    int
	ready     bool
	follow    bool
	statusMsg string
	err       error
	animTick  int
}

// New creates a root model for a map that draws onto canvas.
func New(sky *skymap.SkyMap, canvas *render.Canvas, opts Options) Model {
	m := Model{
		sky:          sky,
		view:         NewSkyViewModel(sky, canvas),
		logger:       opts.Logger,
		animDuration: opts.AnimDuration,
		frameRate:    opts.FrameRate,
		languages:    opts.Languages,
		ephemeris:    opts.Ephemeris,
		now:          opts.Now,
	}
	if m.logger == nil {
		m.logger = logging.Discard()
	}
	if m.animDuration <= 0 {
		m.animDuration = defaultAnimDuration
	}
	if m.frameRate <= 0 {
		m.frameRate = defaultFrameRate
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		var err error
		m.view, err = m.view.SetSize(msg.Width, msg.Height-headerRows-footerRows)
		m.setErr(err)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		m.animTick++
		if m.follow && !m.sky.Animating() {
			m.setErr(m.sky.SetDate(time.Time(msg)))
		}

	case AnimTickMsg:
		if m.sky.Tick(time.Time(msg)) {
			cmds = append(cmds, m.animTickCmd())
		}

	case ErrorMsg:
		m.setErr(msg.Error)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) setErr(err error) {
	if err != nil {
		m.logger.Warn("ui: %v", err)
	}
	m.err = err
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	p := m.sky.Params()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		return m.moveTo(clampLatitude(p.Latitude+stepDeg), p.Longitude)
	case "down", "j":
		return m.moveTo(clampLatitude(p.Latitude-stepDeg), p.Longitude)
	case "left", "h":
		return m.moveTo(p.Latitude, wrapLongitude(p.Longitude-stepDeg))
	case "right", "l":
		return m.moveTo(p.Latitude, wrapLongitude(p.Longitude+stepDeg))

	case "+", "=":
		return m.zoomTo(clampFov(p.Fov / zoomFactor))
	case "-", "_":
		return m.zoomTo(clampFov(p.Fov * zoomFactor))

	case "[":
		return m.shiftDate(-time.Hour)
	case "]":
		return m.shiftDate(time.Hour)
	case "{":
		return m.shiftDate(-24 * time.Hour)
	case "}":
		return m.shiftDate(24 * time.Hour)
	case "n":
		m.follow = false
		return m.dateTo(m.now())
	case "f":
		m.follow = !m.follow
		m.statusMsg = "Follow real time: " + onOff(m.follow)

	case "esc":
		m.sky.StopAnimation()

	case "g":
		m.toggle("Grid", func(s *config.Style) *bool { return &s.Grid.Enabled })
	case "c":
		m.toggle("Constellations", func(s *config.Style) *bool { return &s.Constellations.Lines.Enabled })
	case "b":
		m.toggle("Boundaries", func(s *config.Style) *bool { return &s.Constellations.Boundaries.Enabled })
	case "s":
		m.toggle("Stars", func(s *config.Style) *bool { return &s.Stars.Enabled })
	case "p":
		m.toggle("Planets", func(s *config.Style) *bool { return &s.Planets.Enabled })
	case "u":
		m.toggle("Sun", func(s *config.Style) *bool { return &s.Sun.Enabled })
	case "m":
		m.toggle("Moon", func(s *config.Style) *bool { return &s.Moon.Enabled })
	case "o":
		m.toggle("Glow", func(s *config.Style) *bool { return &s.Glow })
	case "t":
		m.toggleLabels()
	case "L":
		m.cycleLanguage()
	}
	return m, nil
}

// startAnimation begins the frame loop unless one is already running.
func (m Model) startAnimation(wasRunning bool, err error) (Model, tea.Cmd) {
	if err != nil {
		m.setErr(err)
		return m, nil
	}
	if wasRunning {
		return m, nil
	}
	return m, m.animTickCmd()
}

func (m Model) moveTo(lat, lon float64) (Model, tea.Cmd) {
	running := m.sky.Animating()
	return m.startAnimation(running, m.sky.SetLocationWithAnimation(lat, lon, m.animDuration, nil))
}

func (m Model) zoomTo(fov float64) (Model, tea.Cmd) {
	running := m.sky.Animating()
	return m.startAnimation(running, m.sky.SetFovWithAnimation(fov, m.animDuration, nil))
}

func (m Model) shiftDate(d time.Duration) (Model, tea.Cmd) {
	m.follow = false
	return m.dateTo(m.sky.Params().Date.Add(d))
}

func (m Model) dateTo(t time.Time) (Model, tea.Cmd) {
	running := m.sky.Animating()
	return m.startAnimation(running, m.sky.SetDateWithAnimation(t, m.animDuration, nil))
}

func (m *Model) toggle(name string, field func(*config.Style) *bool) {
	var on bool
	err := m.sky.Config().Update(func(s *config.Style) {
		f := field(s)
		*f = !*f
		on = *f
	})
	if err != nil {
		m.setErr(err)
		return
	}
	m.statusMsg = name + ": " + onOff(on)
}

func (m *Model) toggleLabels() {
	on := !m.sky.Config().Style().Constellations.Lines.Labels.Enabled
	err := m.sky.Config().Update(func(s *config.Style) {
		s.Constellations.Lines.Labels.Enabled = on
		s.Planets.Labels.Enabled = on
		s.Sun.Label.Enabled = on
		s.Moon.Label.Enabled = on
	})
	if err != nil {
		m.setErr(err)
		return
	}
	m.statusMsg = "Labels: " + onOff(on)
}

func (m *Model) cycleLanguage() {
	if len(m.languages) == 0 {
		return
	}
	cur := m.sky.Config().Style().Language
	next := m.languages[0]
	for i, l := range m.languages {
		if l == cur {
			next = m.languages[(i+1)%len(m.languages)]
			break
		}
	}
	if err := m.sky.Config().Set("language", next); err != nil {
		m.setErr(err)
		return
	}
	m.statusMsg = "Language: " + next
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.renderHeader() + "\n" + m.view.View() + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	return "  " + renderGradient("✦ ls-skymap") + muted.Render(" v"+version.Version)
}

// renderGradient colours text with a blue to pink sweep.
func renderGradient(text string) string {
	from, _ := colorful.Hex("#3B82F6")
	to, _ := colorful.Hex("#EC4899")
	runes := []rune(text)

	var b strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		c := from.BlendHcl(to, t).Clamped()
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
	}
	return b.String()
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	p := m.sky.Params()
	obs := m.sky.Observer()
	status := fmt.Sprintf("lat %+.2f° lon %+.2f° fov %.0f° | %s | LST %.2fh | stars %d",
		p.Latitude, p.Longitude, p.Fov,
		p.Date.Format("2006-01-02 15:04 UTC"), obs.LST().Hours(), m.sky.Drawn()["stars"])
	if m.ephemeris != "" {
		status += " | " + m.ephemeris
	}

	marker := " "
	if m.sky.Animating() {
		spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		marker = spinnerFrames[m.animTick%len(spinnerFrames)]
	} else if m.follow {
		marker = "●"
	}
	line1 := "  " + accentStyle.Render(marker) + " " + dimStyle.Render(status)

	help := dimStyle.Render("  ←↑↓→: move | +/-: zoom | [ ]: hour | { }: day | n: now | f: follow | g c b s p u m: layers | t: labels | L: language | o: glow | q: quit")

	var line3 string
	switch err := m.renderErr(); {
	case err != nil:
		line3 = errorStyle.Render("  ERROR: " + err.Error())
	case m.statusMsg != "":
		line3 = dimStyle.Render("  " + m.statusMsg)
	default:
		if changes := obs.RecentChanges(1); len(changes) > 0 {
			c := changes[0]
			line3 = dimStyle.Render(fmt.Sprintf("  last change: %s at %s", c.Kind, c.At.Format("15:04:05")))
		}
	}

	return line1 + "\n" + help + "\n" + line3
}

func (m Model) renderErr() error {
	if err := m.sky.Err(); err != nil {
		return err
	}
	return m.err
}

func tickCmd() tea.Cmd {
	return tea.Tick(followInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) animTickCmd() tea.Cmd {
	return tea.Tick(m.frameRate, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

func clampLatitude(lat float64) float64 {
	return max(-90, min(90, lat))
}

func clampFov(fov float64) float64 {
	return max(minFov, min(maxFov, fov))
}

// wrapLongitude wraps to -180..+180.
func wrapLongitude(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
