package cmd

import (
	"fmt"
	"sort"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List algorithms and labeled instances per dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			labels, err := loadLabels(cfg)
			if err != nil {
				return err
			}
			fmt.Println("Algorithms:")
			for _, a := range labels.Algorithms {
				marker := ""
				if a == cfg.Baseline {
					marker = " (baseline)"
				}
				fmt.Printf("  - %s%s\n", a, marker)
			}
			fmt.Println("\nDatasets:")
			counts := datasetCounts(labels.Summaries)
			names := make([]string, 0, len(counts))
			for name := range counts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  - %s: %d instances\n", name, counts[name])
			}
			return nil
		},
	}
}
