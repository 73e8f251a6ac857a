package tui

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validLayout = `{
  "width": 400, "height": 300,
  "layers": [
    {"type": "road", "label": "Main St", "path": [[20, 40], [380, 40]], "width": 10},
    {"type": "park", "label": "Green", "x": 40, "y": 120, "w": 120, "h": 80}
  ]
}`

const generatedLayout = "```json\n" +
	`{"width": 500, "height": 320,
	  "layers": [{"type": "building", "label": "Depot", "x": 10, "y": 10, "w": 60, "h": 40},]}` +
	"\n```"

type staticGenerator struct {
	reply string
	err   error
}

func (s staticGenerator) Generate(_ context.Context, _ string) (string, error) {
	return s.reply, s.err
}

func sizedModel(t *testing.T, opts Options) Model {
	t.Helper()
	m := New(opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 32})
	return next.(Model)
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func TestNewWithInitialText(t *testing.T) {
	m := sizedModel(t, Options{InitialText: validLayout})

	require.NotNil(t, m.pic)
	assert.Equal(t, 2, m.layers)
	assert.False(t, m.statusErr)
	assert.Contains(t, m.status, "rendered 2 layers")
}

func TestPasteFlowRendersScene(t *testing.T) {
	m := sizedModel(t, Options{})

	m, _ = press(t, m, "p")
	require.Equal(t, modePaste, m.mode)

	m.ta.SetValue(validLayout)
	m, _ = press(t, m, "enter")

	assert.Equal(t, modeView, m.mode)
	require.NotNil(t, m.pic)
	assert.Equal(t, validLayout, m.layoutText)
	assert.Equal(t, float64(400), m.pic.Width)
}

func TestPasteEmptyIsError(t *testing.T) {
	m := sizedModel(t, Options{})

	m, _ = press(t, m, "p", "enter")

	assert.True(t, m.statusErr)
	assert.Nil(t, m.pic)
}

func TestPasteFailurePreservesScene(t *testing.T) {
	m := sizedModel(t, Options{InitialText: validLayout})
	old := m.pic
	require.NotNil(t, old)

	m, _ = press(t, m, "p")
	m.ta.SetValue("%% not a layout %%")
	m, _ = press(t, m, "enter")

	assert.True(t, m.statusErr)
	assert.Same(t, old, m.pic)
	assert.Equal(t, validLayout, m.layoutText)
}

func TestEscCancelsPaste(t *testing.T) {
	m := sizedModel(t, Options{})

	m, _ = press(t, m, "p", "esc")

	assert.Equal(t, modeView, m.mode)
	assert.False(t, m.statusErr)
}

func TestGenerateFlow(t *testing.T) {
	gen := staticGenerator{reply: generatedLayout}
	m := sizedModel(t, Options{Generator: gen})

	m, _ = press(t, m, "g")
	require.Equal(t, modePrompt, m.mode)

	m.ti.SetValue("a depot town")
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	assert.True(t, m.generating)

	msg := cmd()
	require.IsType(t, generatedMsg{}, msg)

	next, _ := m.Update(msg)
	m = next.(Model)

	assert.False(t, m.generating)
	require.NotNil(t, m.pic)
	assert.Equal(t, float64(500), m.pic.Width)
	assert.Len(t, m.pic.Legend, 1)
}

func TestGenerateErrorKeepsScene(t *testing.T) {
	gen := staticGenerator{err: errors.New("quota exhausted")}
	m := sizedModel(t, Options{Generator: gen, InitialText: validLayout})
	old := m.pic

	m, _ = press(t, m, "g")
	m.ti.SetValue("anything")
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "quota exhausted")
	assert.Same(t, old, m.pic)
}

func TestGenerateWithoutGenerator(t *testing.T) {
	m := sizedModel(t, Options{})

	m, _ = press(t, m, "g")

	assert.Equal(t, modeView, m.mode)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "GEMINI_API_KEY")
}

func TestReRender(t *testing.T) {
	m := sizedModel(t, Options{})

	m, _ = press(t, m, "ctrl+r")
	assert.True(t, m.statusErr)

	m = sizedModel(t, Options{InitialText: validLayout})
	m, _ = press(t, m, "ctrl+r")
	assert.False(t, m.statusErr)
	assert.Contains(t, m.status, "rendered 2 layers")
}

func TestSaveSVG(t *testing.T) {
	t.Chdir(t.TempDir())
	m := sizedModel(t, Options{InitialText: validLayout})

	m, _ = press(t, m, "s")

	require.False(t, m.statusErr, "status: %s", m.status)
	assert.Regexp(t, regexp.MustCompile(`^city-[0-9a-f]{8}\.svg$`), m.savedPath)

	data, err := os.ReadFile(m.savedPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "</svg>")
}

func TestSaveWithoutScene(t *testing.T) {
	m := sizedModel(t, Options{})

	m, _ = press(t, m, "s")

	assert.True(t, m.statusErr)
	assert.Empty(t, m.savedPath)
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		m := sizedModel(t, Options{})
		_, cmd := press(t, m, key)
		require.NotNil(t, cmd, "key %q", key)
		assert.IsType(t, tea.QuitMsg{}, cmd(), "key %q", key)
	}
}

func TestHelpToggle(t *testing.T) {
	m := sizedModel(t, Options{})
	require.True(t, m.helpVisible)

	m, _ = press(t, m, "h")
	assert.False(t, m.helpVisible)

	m, _ = press(t, m, "h")
	assert.True(t, m.helpVisible)
}

func TestViewBeforeSizing(t *testing.T) {
	m := New(Options{})
	assert.Empty(t, m.View())
}

func TestViewModes(t *testing.T) {
	m := sizedModel(t, Options{InitialText: validLayout})

	out := m.View()
	assert.Contains(t, out, "citysense")
	assert.Contains(t, out, "Main St")
	assert.Contains(t, out, "q quit")

	m, _ = press(t, m, "p")
	assert.Contains(t, m.View(), "Paste layout JSON")

	m, _ = press(t, m, "esc")
	m.opts.Generator = staticGenerator{reply: generatedLayout}
	m, _ = press(t, m, "g")
	assert.Contains(t, m.View(), "Generate layout")
}

func TestViewEmptyState(t *testing.T) {
	m := sizedModel(t, Options{})
	out := m.View()

	assert.Contains(t, out, "No scene yet")
	assert.NotContains(t, out, "generate one from a prompt")

	m.opts.Generator = staticGenerator{}
	assert.Contains(t, m.View(), "generate one from a prompt")
}
