package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TOJI-ZINGY/citysense/internal/preview"
	"github.com/TOJI-ZINGY/citysense/internal/render"
	"github.com/TOJI-ZINGY/citysense/internal/repair"
)

var (
	previewCols int
	previewRows int
)

// previewCmd rasterizes a layout to the terminal
var previewCmd = &cobra.Command{
	Use:   "preview [layout.json]",
	Short: "Preview a layout in the terminal",
	Long: `Repairs a layout and prints a braille raster of the scene with a
legend line. Reads stdin when the argument is "-" or absent.

Example:
  citysense generate "a harbor town" | citysense preview --cols 100`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().IntVar(&previewCols, "cols", preview.DefaultCols, "Raster width in terminal cells")
	previewCmd.Flags().IntVar(&previewRows, "rows", preview.DefaultRows, "Raster height in terminal cells")
}

func runPreview(cmd *cobra.Command, args []string) error {
	text, err := readLayoutArg(args)
	if err != nil {
		return err
	}
	desc, err := repair.Recover(text)
	if err != nil {
		return err
	}
	pic, err := render.Compose(desc)
	if err != nil {
		return err
	}
	fmt.Println(preview.Render(pic, previewCols, previewRows))
	return nil
}

// readLayoutArg reads layout text from the named file, or from stdin when
// the argument is "-" or absent.
func readLayoutArg(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
