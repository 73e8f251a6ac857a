package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/TOJI-ZINGY/citysense/internal/layoutgen"
	"github.com/TOJI-ZINGY/citysense/internal/svgout"
)

// generatedMsg carries the model reply back into the update loop.
type generatedMsg struct {
	text string
	err  error
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputWidth := min(72, max(30, m.width-8))
		m.ta.SetWidth(inputWidth)
		m.ti.Width = inputWidth
		return m, nil

	case generatedMsg:
		m.generating = false
		if msg.err != nil {
			return m.withError("generate: " + msg.err.Error()), nil
		}
		return m.applyLayout(msg.text), nil

	case tea.KeyMsg:
		switch m.mode {
		case modePaste:
			return m.updatePaste(msg)
		case modePrompt:
			return m.updatePrompt(msg)
		}
		return m.updateView(msg)
	}
	return m, nil
}

func (m Model) updatePaste(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeView
		m.ta.Blur()
		m.status = "view mode"
		m.statusErr = false
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.ta.Value())
		if text == "" {
			return m.withError("paste: nothing to render"), nil
		}
		m.mode = modeView
		m.ta.Blur()
		return m.applyLayout(text), nil
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeView
		m.ti.Blur()
		m.status = "view mode"
		m.statusErr = false
		return m, nil
	case "enter":
		prompt := strings.TrimSpace(m.ti.Value())
		if prompt == "" {
			return m.withError("prompt: nothing to generate"), nil
		}
		m.mode = modeView
		m.ti.Blur()
		m.generating = true
		m.status = "generating layout..."
		m.statusErr = false
		return m, generateCmd(m.opts.Generator, prompt, m.opts.GenTimeout)
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) updateView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "p":
		m.mode = modePaste
		m.ta.SetValue("")
		m.ta.Focus()
		m.status = "paste layout JSON, enter to render"
		m.statusErr = false
	case "g":
		if m.opts.Generator == nil {
			return m.withError("no API key configured; set GEMINI_API_KEY"), nil
		}
		if m.generating {
			return m.withError("generation already running"), nil
		}
		m.mode = modePrompt
		m.ti.SetValue("")
		m.ti.Focus()
		m.status = "describe the city to generate"
		m.statusErr = false
	case "ctrl+r":
		if m.layoutText == "" {
			return m.withError("nothing to re-render yet"), nil
		}
		return m.applyLayout(m.layoutText), nil
	case "s":
		return m.saveSVG(), nil
	case "h":
		m.helpVisible = !m.helpVisible
	}
	return m, nil
}

func (m Model) saveSVG() Model {
	if m.pic == nil {
		return m.withError("nothing to save yet")
	}
	name := fmt.Sprintf("city-%s.svg", uuid.NewString()[:8])
	if err := svgout.EncodeFile(name, m.pic, m.opts.SVGOptions); err != nil {
		return m.withError("save: " + err.Error())
	}
	m.savedPath = name
	m.status = "saved " + name
	m.statusErr = false
	return m
}

func generateCmd(gen layoutgen.Generator, prompt string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		text, err := gen.Generate(ctx, prompt)
		return generatedMsg{text: text, err: err}
	}
}
