package cmd

import (
	"github.com/spf13/cobra"
)

var (
	reachMarking              string
	reachShowProjectedMarking bool
)

// reachCmd decides marking reachability.
var reachCmd = &cobra.Command{
	Use:   "reach FILE",
	Short: "Marking reachability decision",
	Long: `Decide whether a target marking is reachable in a Petri net
(.pnml or .net format). The marking file is a whitespace-separated list
of PLACE or PLACE*COUNT tokens.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cmd)
		if err != nil {
			return err
		}

		opts := baseOptions()
		opts.MarkingPath = reachMarking
		opts.ShowProjectedMarking = reachShowProjectedMarking

		return svc.Reach(cmd.Context(), args[0], opts)
	},
}

func init() {
	reachCmd.Flags().StringVarP(&reachMarking, "marking", "m", "", "Marking file")
	reachCmd.Flags().BoolVar(&reachShowProjectedMarking, "show-projected-marking", false, "Show the projected marking")
	_ = reachCmd.MarkFlagRequired("marking")

	rootCmd.AddCommand(reachCmd)
}
