package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TOJI-ZINGY/citysense/internal/config"
	"github.com/TOJI-ZINGY/citysense/internal/layoutgen"
	"github.com/TOJI-ZINGY/citysense/internal/logging"
	"github.com/TOJI-ZINGY/citysense/internal/svgout"
	"github.com/TOJI-ZINGY/citysense/internal/tui"
)

// version is overridden with -ldflags at release time.
var version = "dev"

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "citysense",
	Short: "citysense - loose city-layout JSON to rendered scenes",
	Long: `citysense repairs loose city-layout JSON (the kind language models
emit), composes it into a scene of roads, buildings, and parks, and writes
SVG documents or terminal previews.

Run without arguments to start the interactive interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(resolveConfigPath())
		if err != nil {
			return err
		}

		// Skip logger init for interactive mode (it has its own UI)
		if cmd.Use == "citysense" && cmd.CalledAs() == "citysense" {
			logger = zap.NewNop()
			return nil
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Development)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the citysense version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("citysense %s\n", version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: "+config.DefaultPath()+")")

	// Add commands to root
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// svgOptions returns the configured SVG encoding defaults. Commands with
// their own toggles OR their flags on top.
func svgOptions() svgout.Options {
	return svgout.Options{
		NoLegend: cfg.SVG.NoLegend,
		NoShadow: cfg.SVG.NoShadow,
	}
}

// runInteractive launches the TUI. Generation is wired up only when an API
// key is configured; the interface degrades to paste-and-render without one.
func runInteractive() error {
	opts := tui.Options{
		SVGOptions: svgOptions(),
		GenTimeout: cfg.Timeout(),
	}
	if cfg.LLM.APIKey != "" {
		gen, err := layoutgen.NewGemini(context.Background(), cfg.LLM.APIKey, cfg.LLM.Model, logger)
		if err != nil {
			return err
		}
		opts.Generator = gen
	}
	return tui.Run(opts)
}
