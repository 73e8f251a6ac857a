// Package tui implements the interactive citysense terminal interface:
// paste or generate a layout, preview it as a braille map, save the SVG.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/TOJI-ZINGY/citysense/internal/layoutgen"
	"github.com/TOJI-ZINGY/citysense/internal/render"
	"github.com/TOJI-ZINGY/citysense/internal/repair"
	"github.com/TOJI-ZINGY/citysense/internal/svgout"
)

type mode int

const (
	modeView mode = iota
	modePaste
	modePrompt
)

// Options configure the interactive session.
type Options struct {
	Generator   layoutgen.Generator // nil disables prompt generation
	SVGOptions  svgout.Options
	GenTimeout  time.Duration
	InitialText string // layout text to render at launch
}

// Model holds the interactive session state.
type Model struct {
	width  int
	height int

	mode        mode
	helpVisible bool
	generating  bool

	layoutText string          // last layout text that rendered successfully
	pic        *render.Picture // nil until something renders
	layers     int

	status    string
	statusErr bool
	savedPath string

	ta textarea.Model
	ti textinput.Model

	opts Options
}

// New builds the initial model.
func New(opts Options) Model {
	if opts.GenTimeout <= 0 {
		opts.GenTimeout = 60 * time.Second
	}

	ta := textarea.New()
	ta.Placeholder = "Paste layout JSON here. Enter renders; Esc cancels."
	ta.CharLimit = 0
	ta.SetWidth(60)
	ta.SetHeight(8)

	ti := textinput.New()
	ti.Placeholder = `Describe a city, e.g. "a riverside town with two parks"`
	ti.CharLimit = 0
	ti.Width = 60

	m := Model{
		helpVisible: true,
		status:      "citysense ready",
		ta:          ta,
		ti:          ti,
		opts:        opts,
	}
	if opts.InitialText != "" {
		m = m.applyLayout(opts.InitialText)
	}
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// Run starts the interactive program in the alternate screen.
func Run(opts Options) error {
	_, err := tea.NewProgram(New(opts), tea.WithAltScreen()).Run()
	return err
}

// applyLayout recovers, composes, and installs a scene. On failure the
// previous scene stays on screen and the error lands in the status bar.
func (m Model) applyLayout(text string) Model {
	desc, err := repair.Recover(text)
	if err != nil {
		return m.withError("recover: " + err.Error())
	}
	pic, err := render.Compose(desc)
	if err != nil {
		return m.withError("compose: " + err.Error())
	}
	m.pic = pic
	m.layers = len(desc.Layers)
	m.layoutText = text
	m.status = fmt.Sprintf("rendered %d layers (%gx%g)", m.layers, pic.Width, pic.Height)
	m.statusErr = false
	return m
}

func (m Model) withError(status string) Model {
	m.status = status
	m.statusErr = true
	return m
}
