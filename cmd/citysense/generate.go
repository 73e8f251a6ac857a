package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TOJI-ZINGY/citysense/internal/layoutgen"
	"github.com/TOJI-ZINGY/citysense/internal/render"
	"github.com/TOJI-ZINGY/citysense/internal/repair"
	"github.com/TOJI-ZINGY/citysense/internal/svgout"
)

var (
	generateSVG string
	generateRaw bool
)

// generateCmd asks the model for a layout
var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate a layout from a prompt via Gemini",
	Long: `Asks the configured Gemini model for a city layout matching the
prompt, repairs the reply, and prints the layout JSON. With --svg the
layout is rendered straight to an SVG file instead.

Requires an API key: GEMINI_API_KEY, CITYSENSE_API_KEY, or llm.api_key in
the config file.

Example:
  citysense generate "a riverside town with two parks" --svg town.svg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateSVG, "svg", "", "Render the layout to this SVG file")
	generateCmd.Flags().BoolVar(&generateRaw, "raw", false, "Print the raw model reply instead of repaired JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	gen, err := layoutgen.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model, logger)
	if err != nil {
		return err
	}

	prompt := strings.Join(args, " ")
	logger.Info("generating layout",
		zap.String("model", cfg.LLM.Model),
		zap.Int("prompt_len", len(prompt)))

	reply, err := gen.Generate(ctx, prompt)
	if err != nil {
		return err
	}

	if generateRaw {
		fmt.Println(reply)
		return nil
	}

	desc, err := repair.Recover(reply)
	if err != nil {
		return err
	}

	if generateSVG == "" {
		fmt.Println(repair.Clean(reply))
		return nil
	}

	pic, err := render.Compose(desc)
	if err != nil {
		return err
	}
	if err := svgout.EncodeFile(generateSVG, pic, svgOptions()); err != nil {
		return err
	}
	fmt.Printf("rendered %d layers to %s\n", len(desc.Layers), generateSVG)
	return nil
}
