package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skymap/internal/render"
	"github.com/litescript/ls-skymap/internal/skymap"
)

const (
	// Room for the cardinal letters around the disk.
	compassCols = 4
	compassRows = 2

	colorCompass = "60" // muted purple
)

// SkyViewModel shows the map disk with compass points around it.
type SkyViewModel struct {
	width  int
	height int

	canvas *render.Canvas
	sky    *skymap.SkyMap
}

// NewSkyViewModel wraps a map that draws onto canvas.
func NewSkyViewModel(sky *skymap.SkyMap, canvas *render.Canvas) SkyViewModel {
	return SkyViewModel{sky: sky, canvas: canvas}
}

// diskSize returns the canvas grid that fits a round map into w x h cells.
func diskSize(w, h int) (cols, rows int) {
	d := min(w-compassCols, (h-compassRows)*2)
	if d < 2 {
		return 0, 0
	}
	d -= d % 2
	return d, d / 2
}

// SetSize resizes the canvas and re-renders the map.
func (m SkyViewModel) SetSize(width, height int) (SkyViewModel, error) {
	m.width = width
	m.height = height
	cols, rows := diskSize(width, height)
	if cols == m.canvas.Cols() && rows == m.canvas.Rows() {
		return m, nil
	}
	m.canvas.Resize(cols, rows)
	return m, m.sky.Resize(m.canvas.Size())
}

// View renders the map.
func (m SkyViewModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Sky map requires larger terminal"
	}
	rows := strings.Split(m.canvas.String(), "\n")
	mid := len(rows) / 2
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(colorCompass))

	var b strings.Builder
	b.WriteString(lipgloss.PlaceHorizontal(m.canvas.Cols()+compassCols, lipgloss.Center, dim.Render("N")))
	b.WriteString("\n")
	for i, row := range rows {
		left, right := "  ", "  "
		if i == mid {
			left, right = dim.Render("W "), dim.Render(" E")
		}
		b.WriteString(left + row + right + "\n")
	}
	b.WriteString(lipgloss.PlaceHorizontal(m.canvas.Cols()+compassCols, lipgloss.Center, dim.Render("S")))

	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, b.String())
}
