package tui

import (
	"strings"

	"github.com/TOJI-ZINGY/citysense/internal/preview"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := titleStyle.Render(" citysense ") + " " + subtitleStyle.Render("prompt-to-map sketchpad")

	footerHeight := 1
	if m.helpVisible {
		footerHeight = 2
	}
	bodyRows := m.height - 1 - footerHeight
	if bodyRows < 4 {
		bodyRows = 4
	}

	var body string
	switch m.mode {
	case modePaste:
		body = panelStyle.Render(strings.Join([]string{
			panelTitleStyle.Render("Paste layout JSON"),
			"",
			m.ta.View(),
			"",
			helpStyle.Render("enter render, esc cancel"),
		}, "\n"))
	case modePrompt:
		body = panelStyle.Render(strings.Join([]string{
			panelTitleStyle.Render("Generate layout"),
			"",
			m.ti.View(),
			"",
			helpStyle.Render("enter generate, esc cancel"),
		}, "\n"))
	default:
		body = m.mapView(bodyRows)
	}

	lines := []string{header, body, m.statusLine()}
	if m.helpVisible {
		lines = append(lines, helpStyle.Render("p paste  g generate  ctrl+r re-render  s save svg  h help  q quit"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) mapView(rows int) string {
	if m.pic == nil {
		lines := []string{
			"",
			"  No scene yet.",
			"",
			"  p  paste layout JSON",
		}
		if m.opts.Generator != nil {
			lines = append(lines, "  g  generate one from a prompt")
		}
		return strings.Join(lines, "\n")
	}
	// Render leaves one body row for the legend line.
	cols := max(20, m.width)
	return preview.Render(m.pic, cols, rows-1)
}

func (m Model) statusLine() string {
	status := m.status
	if m.generating {
		status = "generating layout..."
	}
	if m.statusErr {
		return errorStyle.Render(status)
	}
	return statusStyle.Render(status)
}
