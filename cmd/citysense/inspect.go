package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/TOJI-ZINGY/citysense/internal/render"
	"github.com/TOJI-ZINGY/citysense/internal/repair"
	"github.com/TOJI-ZINGY/citysense/internal/scene"
)

// inspectCmd explains what repair and render would do with a layout
var inspectCmd = &cobra.Command{
	Use:   "inspect [layout.json]",
	Short: "Explain how a layout repairs and renders",
	Long: `Prints a report covering the repair steps that fired, the parsed
canvas and layers, and the legend the renderer derives. Reads stdin when
the argument is "-" or absent.

Example:
  citysense inspect broken.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	text, err := readLayoutArg(args)
	if err != nil {
		return err
	}

	report := buildReport(text)

	// Styled output is best effort; plain markdown is still a report.
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		fmt.Print(report)
		return nil
	}
	styled, err := renderer.Render(report)
	if err != nil {
		fmt.Print(report)
		return nil
	}
	fmt.Print(styled)
	return nil
}

// buildReport assembles the markdown inspection report for layout text.
func buildReport(text string) string {
	var b strings.Builder
	b.WriteString("# Layout report\n\n")

	_, fired := repair.CleanTrace(text)
	b.WriteString("## Repairs\n\n")
	if len(fired) == 0 {
		b.WriteString("No repairs needed.\n\n")
	} else {
		for _, name := range fired {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
		b.WriteString("\n")
	}

	desc, err := repair.Recover(text)
	if err != nil {
		b.WriteString("## Parse\n\n")
		var malformed *repair.MalformedInputError
		if errors.As(err, &malformed) {
			fmt.Fprintf(&b, "**Failed:** %s\n\n", malformed.Diagnostic)
			fmt.Fprintf(&b, "Hint: %s\n", malformed.Hint)
		} else {
			fmt.Fprintf(&b, "**Failed:** %v\n", err)
		}
		return b.String()
	}

	pic, err := render.Compose(desc)
	if err != nil {
		fmt.Fprintf(&b, "## Compose\n\n**Failed:** %v\n", err)
		return b.String()
	}

	fmt.Fprintf(&b, "## Canvas\n\n%g x %g, background `%s`\n\n",
		pic.Width, pic.Height, pic.Background)

	b.WriteString("## Layers\n\n")
	if len(desc.Layers) == 0 {
		b.WriteString("None.\n\n")
	} else {
		b.WriteString("| # | type | label | geometry |\n")
		b.WriteString("|---|------|-------|----------|\n")
		for i, l := range desc.Layers {
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
				i+1, tableCell(l.Type), tableCell(l.Label), layerGeometry(l))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Legend\n\n")
	if len(pic.Legend) == 0 {
		b.WriteString("Empty.\n")
	} else {
		for _, e := range pic.Legend {
			fmt.Fprintf(&b, "- %s `%s`\n", e.Label, e.Color)
		}
	}
	return b.String()
}

func layerGeometry(l scene.Layer) string {
	switch l.Type {
	case scene.TypeRoad:
		return fmt.Sprintf("%d waypoints", len(l.Path))
	case scene.TypeBuilding, scene.TypePark:
		return fmt.Sprintf("(%.6g, %.6g) %.6g x %.6g", l.X, l.Y, l.W, l.H)
	}
	return "skipped"
}

// tableCell makes a string safe for a markdown table row. A "|" inside a
// layer label would otherwise split the cell.
func tableCell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
