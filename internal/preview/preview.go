// Package preview rasterizes composed pictures into colored braille text
// for terminal display.
package preview

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TOJI-ZINGY/citysense/internal/render"
	"github.com/TOJI-ZINGY/citysense/internal/scene"
)

// Default raster size in terminal cells.
const (
	DefaultCols = 80
	DefaultRows = 24
)

// Render rasterizes pic onto a cols-by-rows braille grid and appends a
// legend line when the picture carries legend entries. Primitives with
// non-finite geometry are skipped, matching the renderer's rule that
// degenerate scenes degrade instead of failing. Output is deterministic
// for a given picture and size.
func Render(pic *render.Picture, cols, rows int) string {
	if cols <= 0 {
		cols = DefaultCols
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	w, h := pic.Width, pic.Height
	if !(w > 0) {
		w = scene.DefaultWidth
	}
	if !(h > 0) {
		h = scene.DefaultHeight
	}

	g := newGrid(cols, rows)
	sx := float64(cols*2-1) / w
	sy := float64(rows*4-1) / h
	for i := range pic.Items {
		item := &pic.Items[i]
		switch item.Kind {
		case render.KindRect:
			drawRect(g, item, sx, sy)
		case render.KindRoad:
			drawRoad(g, item, sx, sy)
		}
	}

	styles := make(map[string]lipgloss.Style)
	styleFor := func(color string) lipgloss.Style {
		s, ok := styles[color]
		if !ok {
			s = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			styles[color] = s
		}
		return s
	}

	lines := make([]string, 0, rows+1)
	for y := 0; y < rows; y++ {
		lines = append(lines, rowString(g, y, styleFor))
	}
	if legend := legendLine(pic.Legend, styleFor); legend != "" {
		lines = append(lines, legend)
	}
	return strings.Join(lines, "\n")
}

func drawRect(g *grid, item *render.Primitive, sx, sy float64) {
	if !finite(item.X, item.Y, item.W, item.H) {
		return
	}
	color := item.Fill
	if color == "" {
		color = item.Stroke
	}
	g.fill(
		microClamp(item.X*sx, g.lim), microClamp(item.Y*sy, g.lim),
		microClamp((item.X+item.W)*sx, g.lim), microClamp((item.Y+item.H)*sy, g.lim),
		color,
	)
}

func drawRoad(g *grid, item *render.Primitive, sx, sy float64) {
	var prev *[2]int
	for _, p := range item.Points {
		if !finite(p.X, p.Y) {
			prev = nil
			continue
		}
		cur := [2]int{microClamp(p.X*sx, g.lim), microClamp(p.Y*sy, g.lim)}
		if prev != nil {
			g.line(prev[0], prev[1], cur[0], cur[1], item.Stroke)
		} else if len(item.Points) == 1 {
			g.set(cur[0], cur[1], item.Stroke)
		}
		prev = &cur
	}
}

// rowString renders one cell row, batching runs of equally-colored cells
// into a single styled write.
func rowString(g *grid, y int, styleFor func(string) lipgloss.Style) string {
	var sb strings.Builder
	x := 0
	for x < g.cols {
		if g.mask[y][x] == 0 {
			start := x
			for x < g.cols && g.mask[y][x] == 0 {
				x++
			}
			sb.WriteString(strings.Repeat(" ", x-start))
			continue
		}
		color := g.color[y][x]
		var run strings.Builder
		for x < g.cols && g.mask[y][x] != 0 && g.color[y][x] == color {
			run.WriteRune(g.cellRune(x, y))
			x++
		}
		sb.WriteString(styleFor(color).Render(run.String()))
	}
	return sb.String()
}

func legendLine(entries []render.LegendEntry, styleFor func(string) lipgloss.Style) string {
	if len(entries) == 0 {
		return ""
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, styleFor(e.Color).Render("■")+" "+e.Label)
	}
	return strings.Join(parts, "  ")
}

// microClamp converts a scaled coordinate to micro-pixels, bounding far
// off-canvas values so line walks stay cheap and float-to-int conversion
// stays in range.
func microClamp(v float64, lim int) int {
	f := float64(lim)
	if v > f {
		return lim
	}
	if v < -f {
		return -lim
	}
	return int(v)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
