package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TOJI-ZINGY/citysense/internal/watch"
)

var (
	watchOut      string
	watchDebounce time.Duration
)

// watchCmd re-renders a layout file on every change
var watchCmd = &cobra.Command{
	Use:   "watch [layout.json]",
	Short: "Re-render a layout whenever it changes",
	Long: `Watches a layout file and re-renders its SVG on every change,
debouncing editor save bursts. A failing render keeps the previous SVG.
Runs until interrupted.

Example:
  citysense watch city.json --out city.svg`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "Output SVG (default: input with .svg extension)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Debounce window (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := watchOut
	if output == "" {
		output = svgPathFor(input, "", false)
	}
	debounce := watchDebounce
	if debounce <= 0 {
		debounce = cfg.Debounce()
	}

	w, err := watch.New(watch.Config{
		LayoutPath: input,
		OutputPath: output,
		Debounce:   debounce,
		SVGOptions: svgOptions(),
	}, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Printf("watching %s -> %s (ctrl+c to stop)\n", input, output)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	stats := w.Stats()
	fmt.Printf("\n%d events, %d renders, %d failures\n",
		stats.Events, stats.Renders, stats.Failures)
	return nil
}
