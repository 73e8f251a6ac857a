// Package scene defines the city layout data model shared by the recovery
// and rendering stages.
//
// Decoding is deliberately lenient. Layout text originates from a language
// model, so fields may be absent, mistyped, or carried as numeric strings.
// Geometry that cannot be read decodes to NaN instead of failing; the
// renderer emits degenerate attributes for such layers rather than raising
// an error.
package scene

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Layer type tags recognized by the renderer. Any other value is carried
// through decoding and skipped at render time.
const (
	TypeRoad     = "road"
	TypeBuilding = "building"
	TypePark     = "park"
)

// Default canvas extent, used when a layout omits its dimensions.
const (
	DefaultWidth  = 1000
	DefaultHeight = 600
)

// Point is one waypoint of a road path.
type Point struct {
	X float64
	Y float64
}

// Layer is one visual element of a scene, a tagged union over Type: roads
// carry Path and Width, buildings and parks carry the rectangle fields.
// Presentation fields are optional on every variant.
type Layer struct {
	Type string

	Label      string
	Stroke     string
	Fill       string
	LabelColor string
	Outline    string

	// Road geometry. Width 0 means unset; the renderer substitutes the
	// type default.
	Path  []Point
	Width float64

	// Rectangle geometry. NaN means the field was absent or unreadable.
	// RX/RY 0 means unset, defaulted per type at render time.
	X, Y, W, H float64
	RX, RY     float64
}

// Description is the root of a city layout: canvas extent plus an ordered
// layer list. Layer order is z-order, first element drawn first.
type Description struct {
	Width  float64
	Height float64

	// Layers is nil when the decoded document carried no "layers" array at
	// all; an explicit empty array decodes to a non-nil empty slice. The
	// renderer rejects only the nil case.
	Layers []Layer
}

// UnmarshalJSON decodes a layout leniently. A non-object root (array,
// string, number, null) is not a decode error: it produces a zero
// Description, which the renderer then rejects for the missing layer list.
func (d *Description) UnmarshalJSON(data []byte) error {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return err
	}
	obj, ok := root.(map[string]any)
	if !ok {
		*d = Description{}
		return nil
	}
	d.Width, _ = toFloat(obj["width"])
	d.Height, _ = toFloat(obj["height"])
	d.Layers = nil
	if raw, ok := obj["layers"].([]any); ok {
		d.Layers = make([]Layer, 0, len(raw))
		for _, entry := range raw {
			m, ok := entry.(map[string]any)
			if !ok {
				// Non-object entries keep their slot so layer indexes match
				// the input; the empty type makes the renderer skip them.
				d.Layers = append(d.Layers, Layer{})
				continue
			}
			d.Layers = append(d.Layers, decodeLayer(m))
		}
	}
	return nil
}

func decodeLayer(m map[string]any) Layer {
	l := Layer{
		Type:       fieldString(m, "type"),
		Label:      fieldString(m, "label"),
		Stroke:     fieldString(m, "stroke"),
		Fill:       fieldString(m, "fill"),
		LabelColor: fieldString(m, "labelColor"),
		Outline:    fieldString(m, "outline"),

		Width: fieldFloat(m, "width", 0),
		RX:    fieldFloat(m, "rx", 0),
		RY:    fieldFloat(m, "ry", 0),

		X: fieldFloat(m, "x", math.NaN()),
		Y: fieldFloat(m, "y", math.NaN()),
		W: fieldFloat(m, "w", math.NaN()),
		H: fieldFloat(m, "h", math.NaN()),
	}
	if raw, ok := m["path"].([]any); ok {
		l.Path = make([]Point, 0, len(raw))
		for _, wp := range raw {
			l.Path = append(l.Path, decodePoint(wp))
		}
	}
	return l
}

func decodePoint(v any) Point {
	pair, ok := v.([]any)
	if !ok || len(pair) < 2 {
		return Point{X: math.NaN(), Y: math.NaN()}
	}
	p := Point{}
	var okX, okY bool
	if p.X, okX = toFloat(pair[0]); !okX {
		p.X = math.NaN()
	}
	if p.Y, okY = toFloat(pair[1]); !okY {
		p.Y = math.NaN()
	}
	return p
}

// toFloat reads a numeric value the way model output actually carries
// numbers: JSON numbers, numeric strings, or json.Number from hand-built
// maps. Returns (0, false) for anything else.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func fieldFloat(m map[string]any, key string, fallback float64) float64 {
	if f, ok := toFloat(m[key]); ok {
		return f
	}
	return fallback
}

func fieldString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
