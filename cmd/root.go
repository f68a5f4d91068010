package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tspselect",
		Short: "Train and evaluate per-instance TSP algorithm selectors",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "tspselect.yaml", "config file path")
	root.AddCommand(newLabelsCmd())
	root.AddCommand(newFoldsCmd())
	root.AddCommand(newTrainCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newPredictCmd())
	root.AddCommand(newValidateCmd())
	return root
}
