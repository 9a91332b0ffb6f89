// Package cmd implements the kong command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kong-analysis/internal/service"
	"github.com/kong-analysis/pkg/config"
	"github.com/kong-analysis/pkg/telemetry"
	"github.com/kong-analysis/pkg/utils"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Flags shared by every subcommand
	useShrink          bool
	saveReducedNet     bool
	reducedNetPath     string
	showTime           bool
	showReductionRatio bool
	showEquations      bool
	drawGraph          bool

	cfg      *config.Config
	logger   utils.Logger
	shutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kong",
	Short: "Koncurrent places grinder",
	Long: `kong computes concurrency matrices, dead places vectors and marking
reachability decisions for Petri nets, by structural reduction and a
change of dimension over the Token Flow Graph.

Input formats: .pnml / .nupn (concurrent and dead places)
               .pnml / .net  (marking reachability)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		logLevel := utils.ParseLogLevel(cfg.Log.Level)
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stderr)

		shutdown, err = telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("Failed to initialize telemetry: %v", err)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdown != nil {
			return shutdown(cmd.Context())
		}
		return nil
	},
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Increase output verbosity")
	rootCmd.PersistentFlags().BoolVar(&useShrink, "shrink", false, "Use the Shrink reduction tool")
	rootCmd.PersistentFlags().BoolVar(&saveReducedNet, "save-reduced-net", false, "Save the reduced net")
	rootCmd.PersistentFlags().StringVar(&reducedNetPath, "reduced-net", "", "Specify a pre-reduced Petri net (.net format)")
	rootCmd.PersistentFlags().BoolVarP(&showTime, "time", "t", false, "Show the computation time")
	rootCmd.PersistentFlags().BoolVar(&showReductionRatio, "show-reduction-ratio", false, "Show the reduction ratio")
	rootCmd.PersistentFlags().BoolVar(&showEquations, "show-equations", false, "Show the reduction equations")
	rootCmd.PersistentFlags().BoolVar(&drawGraph, "draw-graph", false, "Write the Token Flow Graph in DOT format")

	rootCmd.MarkFlagsMutuallyExclusive("save-reduced-net", "reduced-net")

	binName := BinName()
	rootCmd.Example = `  # Concurrency matrix of a net
  ` + binName + ` conc model.pnml

  # Dead places with place names, no run-length encoding
  ` + binName + ` dead model.pnml --place-names --no-rle

  # Marking reachability
  ` + binName + ` reach model.net -m marking.txt`
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// baseOptions collects the flags shared by every subcommand.
func baseOptions() *service.Options {
	return &service.Options{
		UseShrink:          useShrink,
		SaveReducedNet:     saveReducedNet,
		ReducedNetPath:     reducedNetPath,
		ShowTime:           showTime,
		ShowReductionRatio: showReductionRatio,
		ShowEquations:      showEquations,
		DrawGraph:          drawGraph,
	}
}

// newService wires a Service for one invocation.
func newService(cmd *cobra.Command) (*service.Service, error) {
	svc := service.New(cfg, logger)
	if err := svc.Initialize(cmd.Context()); err != nil {
		return nil, err
	}
	return svc, nil
}
