// Package render composes a scene description into a flat picture: canvas,
// drawing primitives in z-order, and the derived legend.
//
// Composition is where type defaults are resolved. It validates only one
// thing: that the description carries a layer list at all. Degenerate
// geometry (NaN from lenient decoding) flows through untouched and shows up
// as NaN attributes in the output.
package render

import (
	"regexp"

	"github.com/TOJI-ZINGY/citysense/internal/scene"
)

// Drawing rule constants per layer type.
const (
	BackgroundColor = "#f4f1ea"

	RoadStroke  = "#444"
	RoadOutline = "#e8e8e8"

	BuildingFill   = "#d9d9d9"
	BuildingStroke = "#888"

	ParkFill       = "#b7e4c7"
	ParkStroke     = "#6bbf76"
	ParkLabelColor = "#2d6a4f"

	LabelColor = "#333"

	DefaultRoadWidth = 8.0
	// Road outlines run this much wider than the stroke they sit under.
	RoadOutlinePad   = 6.0
	BuildingRounding = 6.0
	ParkRounding     = 4.0

	// Road labels sit this far above the midpoint waypoint.
	labelLift = 8.0
)

// Fallback legend labels for unlabeled layers.
const (
	RoadLegendLabel     = "Road"
	BuildingLegendLabel = "Building"
	ParkLegendLabel     = "Park"
)

// ValidationError reports a scene that cannot be composed at all. Geometry
// problems never raise it; only a missing layer list does.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid scene: " + e.Reason }

// Kind discriminates the primitive shapes a picture contains.
type Kind int

const (
	KindRoad Kind = iota
	KindRect
)

// Primitive is one drawable element with its presentation fully resolved.
// Roads use Points, StrokeWidth, and the outline pair; rects use the
// rectangle fields and Fill.
type Primitive struct {
	Kind Kind

	Stroke string
	Fill   string

	Points       []scene.Point
	StrokeWidth  float64
	OutlineColor string
	OutlineWidth float64

	X, Y, W, H float64
	RX, RY     float64

	Label *Label
}

// Label is positioned display text. Middle asks for vertical centering on
// the anchor point (used for rect labels; road labels hang above the path).
type Label struct {
	Text   string
	X, Y   float64
	Color  string
	Middle bool
}

// LegendEntry maps a display label to its representative color.
type LegendEntry struct {
	Label string
	Color string
}

// Picture is a fully resolved scene, ready for an encoder.
type Picture struct {
	Width      float64
	Height     float64
	Background string
	Items      []Primitive
	Legend     []LegendEntry
}

// Compose resolves a description into a picture. Layers are visited in
// input order; each supported type contributes exactly one primitive, and
// unknown types contribute nothing. Canvas dimensions that are absent or
// unusable fall back to the scene defaults.
func Compose(desc *scene.Description) (*Picture, error) {
	if desc == nil || desc.Layers == nil {
		return nil, &ValidationError{Reason: `description has no "layers" array`}
	}
	w, h := desc.Width, desc.Height
	if !(w > 0) {
		w = scene.DefaultWidth
	}
	if !(h > 0) {
		h = scene.DefaultHeight
	}

	pic := &Picture{
		Width:      w,
		Height:     h,
		Background: BackgroundColor,
		Items:      make([]Primitive, 0, len(desc.Layers)),
	}
	legend := newLegend()

	for _, layer := range desc.Layers {
		switch layer.Type {
		case scene.TypeRoad:
			pic.Items = append(pic.Items, composeRoad(layer))
			legend.add(orDefault(layer.Label, RoadLegendLabel), safeColor(layer.Stroke, RoadStroke))
		case scene.TypeBuilding:
			pic.Items = append(pic.Items, composeRect(layer, buildingDefaults))
			legend.add(orDefault(layer.Label, BuildingLegendLabel), safeColor(layer.Fill, BuildingFill))
		case scene.TypePark:
			pic.Items = append(pic.Items, composeRect(layer, parkDefaults))
			legend.add(orDefault(layer.Label, ParkLegendLabel), safeColor(layer.Fill, ParkFill))
		default:
			// Unknown types are skipped, never rejected.
		}
	}

	pic.Legend = legend.entries()
	return pic, nil
}

func composeRoad(l scene.Layer) Primitive {
	w := l.Width
	if !(w > 0) {
		w = DefaultRoadWidth
	}
	p := Primitive{
		Kind:         KindRoad,
		Points:       l.Path,
		Stroke:       safeColor(l.Stroke, RoadStroke),
		StrokeWidth:  w,
		OutlineColor: safeColor(l.Outline, RoadOutline),
		OutlineWidth: w + RoadOutlinePad,
	}
	if l.Label != "" && len(l.Path) > 0 {
		mid := l.Path[len(l.Path)/2]
		p.Label = &Label{
			Text:  l.Label,
			X:     mid.X,
			Y:     mid.Y - labelLift,
			Color: safeColor(l.LabelColor, LabelColor),
		}
	}
	return p
}

// rectDefaults carries the per-type drawing rules shared by buildings and
// parks.
type rectDefaults struct {
	fill       string
	stroke     string
	labelColor string
	rounding   float64
}

var (
	buildingDefaults = rectDefaults{BuildingFill, BuildingStroke, LabelColor, BuildingRounding}
	parkDefaults     = rectDefaults{ParkFill, ParkStroke, ParkLabelColor, ParkRounding}
)

func composeRect(l scene.Layer, d rectDefaults) Primitive {
	rx, ry := l.RX, l.RY
	if !(rx > 0) {
		rx = d.rounding
	}
	if !(ry > 0) {
		ry = d.rounding
	}
	p := Primitive{
		Kind:   KindRect,
		X:      l.X,
		Y:      l.Y,
		W:      l.W,
		H:      l.H,
		RX:     rx,
		RY:     ry,
		Fill:   safeColor(l.Fill, d.fill),
		Stroke: safeColor(l.Stroke, d.stroke),
	}
	if l.Label != "" {
		p.Label = &Label{
			Text:   l.Label,
			X:      l.X + l.W/2,
			Y:      l.Y + l.H/2,
			Color:  safeColor(l.LabelColor, d.labelColor),
			Middle: true,
		}
	}
	return p
}

// legendBuilder implements the last-wins color rule: entries are keyed by
// label, a repeated label overwrites its color, and display order is the
// order labels were first seen.
type legendBuilder struct {
	order []string
	color map[string]string
}

func newLegend() *legendBuilder {
	return &legendBuilder{color: make(map[string]string)}
}

func (lb *legendBuilder) add(label, color string) {
	if _, seen := lb.color[label]; !seen {
		lb.order = append(lb.order, label)
	}
	lb.color[label] = color
}

func (lb *legendBuilder) entries() []LegendEntry {
	if len(lb.order) == 0 {
		return nil
	}
	out := make([]LegendEntry, len(lb.order))
	for i, label := range lb.order {
		out[i] = LegendEntry{Label: label, Color: lb.color[label]}
	}
	return out
}

// colorRe admits CSS color syntax: hex values, named colors, and the
// functional forms. Everything a color value needs and nothing an SVG
// attribute injection does.
var colorRe = regexp.MustCompile(`^[#a-zA-Z0-9(),.%\s-]+$`)

// safeColor resolves a declared color against its type default. Empty and
// out-of-charset values both fall back; colors are interpolated into SVG
// attributes downstream and are sanitized once, here.
func safeColor(value, fallback string) string {
	if value == "" || !colorRe.MatchString(value) {
		return fallback
	}
	return value
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
