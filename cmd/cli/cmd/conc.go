package cmd

import (
	"github.com/spf13/cobra"
)

var (
	concNoUnits           bool
	concNoRLE             bool
	concPlaceNames        bool
	concShowNUPNs         bool
	concBDDTimeout        int
	concBDDIterations     int
	concReducedMatrix     string
	concShowReducedMatrix bool
)

// concCmd computes the concurrency matrix of a net.
var concCmd = &cobra.Command{
	Use:   "conc FILE",
	Short: "Concurrent places computation",
	Long:  `Compute the concurrency matrix of a Petri net (.pnml or .nupn format).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cmd)
		if err != nil {
			return err
		}

		opts := baseOptions()
		opts.NoUnits = concNoUnits
		opts.NoRLE = concNoRLE
		opts.PlaceNames = concPlaceNames
		opts.ShowNUPNs = concShowNUPNs
		opts.BDDTimeout = concBDDTimeout
		opts.BDDIterations = concBDDIterations
		opts.ReducedResult = concReducedMatrix
		opts.ShowReducedResult = concShowReducedMatrix

		return svc.Conc(cmd.Context(), args[0], opts)
	},
}

func init() {
	concCmd.Flags().BoolVar(&concNoUnits, "no-units", false, "Disable units propagation")
	concCmd.Flags().BoolVar(&concNoRLE, "no-rle", false, "Disable run-length encoding (RLE)")
	concCmd.Flags().BoolVar(&concPlaceNames, "place-names", false, "Show place names")
	concCmd.Flags().BoolVar(&concShowNUPNs, "show-nupns", false, "Show the NUPNs")
	concCmd.Flags().IntVar(&concBDDTimeout, "bdd-timeout", 0, "Time limit for marking graph exploration (caesar.bdd)")
	concCmd.Flags().IntVar(&concBDDIterations, "bdd-iterations", 0, "Limit on the number of iterations for marking graph exploration (caesar.bdd)")
	concCmd.Flags().StringVar(&concReducedMatrix, "reduced-matrix", "", "Specify a pre-computed reduced concurrency matrix file")
	concCmd.Flags().BoolVar(&concShowReducedMatrix, "show-reduced-matrix", false, "Show the reduced matrix")

	rootCmd.AddCommand(concCmd)
}
