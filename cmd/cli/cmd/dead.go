package cmd

import (
	"github.com/spf13/cobra"
)

var (
	deadNoUnits           bool
	deadNoRLE             bool
	deadPlaceNames        bool
	deadShowNUPNs         bool
	deadBDDTimeout        int
	deadBDDIterations     int
	deadReducedVector     string
	deadShowReducedVector bool
)

// deadCmd computes the dead places vector of a net.
var deadCmd = &cobra.Command{
	Use:   "dead FILE",
	Short: "Dead places computation",
	Long:  `Compute the dead places vector of a Petri net (.pnml or .nupn format).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cmd)
		if err != nil {
			return err
		}

		opts := baseOptions()
		opts.NoUnits = deadNoUnits
		opts.NoRLE = deadNoRLE
		opts.PlaceNames = deadPlaceNames
		opts.ShowNUPNs = deadShowNUPNs
		opts.BDDTimeout = deadBDDTimeout
		opts.BDDIterations = deadBDDIterations
		opts.ReducedResult = deadReducedVector
		opts.ShowReducedResult = deadShowReducedVector

		return svc.Dead(cmd.Context(), args[0], opts)
	},
}

func init() {
	deadCmd.Flags().BoolVar(&deadNoUnits, "no-units", false, "Disable units propagation")
	deadCmd.Flags().BoolVar(&deadNoRLE, "no-rle", false, "Disable run-length encoding (RLE)")
	deadCmd.Flags().BoolVar(&deadPlaceNames, "place-names", false, "Show place names")
	deadCmd.Flags().BoolVar(&deadShowNUPNs, "show-nupns", false, "Show the NUPNs")
	deadCmd.Flags().IntVar(&deadBDDTimeout, "bdd-timeout", 0, "Time limit for marking graph exploration (caesar.bdd)")
	deadCmd.Flags().IntVar(&deadBDDIterations, "bdd-iterations", 0, "Limit on the number of iterations for marking graph exploration (caesar.bdd)")
	deadCmd.Flags().StringVar(&deadReducedVector, "reduced-vector", "", "Specify a pre-computed reduced dead places vector file")
	deadCmd.Flags().BoolVar(&deadShowReducedVector, "show-reduced-vector", false, "Show the reduced vector")

	rootCmd.AddCommand(deadCmd)
}
