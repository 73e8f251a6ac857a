package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TOJI-ZINGY/citysense/internal/render"
	"github.com/TOJI-ZINGY/citysense/internal/repair"
	"github.com/TOJI-ZINGY/citysense/internal/svgout"
)

var (
	renderOut      string
	renderJobs     int
	renderNoLegend bool
	renderNoShadow bool
)

// renderCmd batch-renders layout files to SVG
var renderCmd = &cobra.Command{
	Use:   "render [layout.json...]",
	Short: "Render layout files to SVG",
	Long: `Repairs and renders one or more layout files to SVG documents.

Inputs are processed independently and concurrently; a failing file is
reported and skipped, and the command exits non-zero if any file failed.

Examples:
  citysense render city.json
  citysense render city.json -o map.svg
  citysense render --out maps/ --jobs 8 dumps/*.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output file (single input) or directory")
	renderCmd.Flags().IntVar(&renderJobs, "jobs", 4, "Concurrent renders")
	renderCmd.Flags().BoolVar(&renderNoLegend, "no-legend", false, "Omit the legend panel")
	renderCmd.Flags().BoolVar(&renderNoShadow, "no-shadow", false, "Omit drop shadows")
}

func runRender(cmd *cobra.Command, args []string) error {
	opts := svgOptions()
	opts.NoLegend = opts.NoLegend || renderNoLegend
	opts.NoShadow = opts.NoShadow || renderNoShadow

	multi := len(args) > 1
	if renderOut != "" && multi {
		if err := os.MkdirAll(renderOut, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	jobs := renderJobs
	if jobs < 1 {
		jobs = 1
	}
	g := new(errgroup.Group)
	g.SetLimit(jobs)

	// Indexed by input so no mutex is needed.
	failures := make([]error, len(args))
	for i, input := range args {
		g.Go(func() error {
			failures[i] = renderFile(input, svgPathFor(input, renderOut, multi), opts)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, err := range failures {
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", args[i], err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d layouts failed", failed, len(args))
	}
	return nil
}

// renderFile runs the recover, compose, encode pipeline for one layout.
func renderFile(input, output string, opts svgout.Options) error {
	start := time.Now()
	log := logger.With(
		zap.String("render_id", uuid.NewString()[:8]),
		zap.String("input", input))

	data, err := os.ReadFile(input)
	if err != nil {
		log.Error("read failed", zap.Error(err))
		return err
	}
	desc, err := repair.Recover(string(data))
	if err != nil {
		log.Error("recover failed", zap.Error(err))
		return err
	}
	pic, err := render.Compose(desc)
	if err != nil {
		log.Error("compose failed", zap.Error(err))
		return err
	}
	if err := svgout.EncodeFile(output, pic, opts); err != nil {
		log.Error("encode failed", zap.Error(err))
		return err
	}

	log.Info("rendered",
		zap.String("output", output),
		zap.Int("layers", len(desc.Layers)),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Printf("rendered %s -> %s\n", input, output)
	return nil
}

// svgPathFor decides where the SVG for an input goes. An empty out puts it
// next to the input with a .svg extension; an out that is an existing
// directory, or any out with multiple inputs, holds one SVG per input;
// otherwise out names the file itself.
func svgPathFor(input, out string, multi bool) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".svg"
	if out == "" {
		return filepath.Join(filepath.Dir(input), base)
	}
	if multi || isDir(out) {
		return filepath.Join(out, base)
	}
	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
