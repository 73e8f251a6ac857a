// Package svgout serializes a composed picture to an SVG document.
//
// Geometry is written with float64 precision, so degenerate scenes (NaN
// coordinates from partial layouts) encode as literal NaN attribute values
// instead of failing. Color strings are sanitized upstream by the render
// package before they reach this encoder.
package svgout

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	svg "github.com/ajstarks/svgo/float"

	"github.com/TOJI-ZINGY/citysense/internal/render"
)

// shadowID names the shared drop-shadow filter in <defs>.
const shadowID = "cs-shadow"

// Legend panel geometry, in SVG user units.
const (
	legendMargin = 16.0 // gap between panel and canvas edge
	legendPad    = 10.0
	legendSwatch = 12.0
	legendRowH   = 20.0
	legendCharW  = 7.2 // rough advance width at font-size 12
)

const (
	labelFont      = "Verdana,Arial,sans-serif"
	labelFontSize  = 13
	legendFontSize = 12
)

// Options control optional document features.
type Options struct {
	NoLegend bool // omit the legend panel
	NoShadow bool // omit the drop-shadow filter and references to it
}

// Encode writes pic to w as a complete SVG document.
func Encode(w io.Writer, pic *render.Picture, opts Options) error {
	bw := bufio.NewWriter(w)
	canvas := svg.New(bw)
	canvas.Start(pic.Width, pic.Height)
	if !opts.NoShadow {
		writeShadowDef(canvas)
	}
	canvas.Rect(0, 0, pic.Width, pic.Height, attr("fill", pic.Background))

	for i := range pic.Items {
		item := &pic.Items[i]
		switch item.Kind {
		case render.KindRoad:
			writeRoad(canvas, item, opts)
		case render.KindRect:
			writeRect(canvas, item, opts)
		}
		writeLabel(canvas, item.Label)
	}

	if !opts.NoLegend && len(pic.Legend) > 0 {
		writeLegend(canvas, pic)
	}
	canvas.End()
	return bw.Flush()
}

// EncodeFile renders pic to the file at path. The document is written to a
// temp file beside the target and renamed into place, so a failure part way
// through leaves any previous output untouched.
func EncodeFile(path string, pic *render.Picture, opts Options) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := Encode(f, pic, opts); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func writeShadowDef(canvas *svg.SVG) {
	canvas.Def()
	// svgo predates feDropShadow, so the filter body is written raw.
	fmt.Fprintf(canvas.Writer,
		`<filter id="%s" x="-20%%" y="-20%%" width="140%%" height="140%%">`+
			`<feDropShadow dx="0" dy="1" stdDeviation="1.5" flood-opacity="0.25" />`+
			"</filter>\n", shadowID)
	canvas.DefEnd()
}

func writeRoad(canvas *svg.SVG, item *render.Primitive, opts Options) {
	// svgo's Polyline indexes the final point unconditionally.
	if len(item.Points) == 0 {
		return
	}
	xs := make([]float64, len(item.Points))
	ys := make([]float64, len(item.Points))
	for i, p := range item.Points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	outline := []string{
		attr("fill", "none"),
		attr("stroke", item.OutlineColor),
		attrf("stroke-width", "%v", item.OutlineWidth),
		attr("stroke-linecap", "round"),
		attr("stroke-linejoin", "round"),
	}
	if !opts.NoShadow {
		outline = append(outline, attrf("filter", "url(#%s)", shadowID))
	}
	canvas.Polyline(xs, ys, outline...)
	canvas.Polyline(xs, ys,
		attr("fill", "none"),
		attr("stroke", item.Stroke),
		attrf("stroke-width", "%v", item.StrokeWidth),
		attr("stroke-linecap", "round"),
		attr("stroke-linejoin", "round"),
	)
}

func writeRect(canvas *svg.SVG, item *render.Primitive, opts Options) {
	attrs := []string{
		attr("fill", item.Fill),
		attr("stroke", item.Stroke),
	}
	if !opts.NoShadow {
		attrs = append(attrs, attrf("filter", "url(#%s)", shadowID))
	}
	canvas.Roundrect(item.X, item.Y, item.W, item.H, item.RX, item.RY, attrs...)
}

func writeLabel(canvas *svg.SVG, label *render.Label) {
	if label == nil {
		return
	}
	attrs := []string{
		attr("fill", label.Color),
		attr("font-family", labelFont),
		attrf("font-size", "%d", labelFontSize),
		attr("text-anchor", "middle"),
	}
	if label.Middle {
		attrs = append(attrs, attr("dominant-baseline", "middle"))
	}
	canvas.Text(label.X, label.Y, label.Text, attrs...)
}

func writeLegend(canvas *svg.SVG, pic *render.Picture) {
	longest := 0
	for _, e := range pic.Legend {
		if n := utf8.RuneCountInString(e.Label); n > longest {
			longest = n
		}
	}
	panelW := legendPad*2 + legendSwatch + 6 + float64(longest)*legendCharW
	panelH := legendPad*2 + float64(len(pic.Legend))*legendRowH - (legendRowH - legendSwatch)
	px := pic.Width - panelW - legendMargin
	py := legendMargin

	canvas.Roundrect(px, py, panelW, panelH, 4, 4,
		attr("fill", "#ffffff"),
		attr("fill-opacity", "0.85"),
		attr("stroke", "#cccccc"),
	)
	for i, e := range pic.Legend {
		rowY := py + legendPad + float64(i)*legendRowH
		canvas.Rect(px+legendPad, rowY, legendSwatch, legendSwatch,
			attr("fill", e.Color),
			attr("stroke", "#999999"),
		)
		canvas.Text(px+legendPad+legendSwatch+6, rowY+legendSwatch-2, e.Label,
			attr("fill", "#333"),
			attr("font-family", labelFont),
			attrf("font-size", "%d", legendFontSize),
		)
	}
}

// attr formats a name="value" pair. svgo passes strings containing "="
// through as raw attributes rather than wrapping them in a style attribute.
func attr(name, value string) string {
	return fmt.Sprintf("%s=%q", name, value)
}

func attrf(name, format string, args ...any) string {
	return attr(name, fmt.Sprintf(format, args...))
}
