package cmd

import (
	"errors"
	"fmt"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/runs"
	"github.com/spf13/cobra"
)

var flagLabelsOut string

func newLabelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Aggregate the run log into per-instance runtime labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cfg.Data.RunLog == "" {
				return &config.ConfigError{Field: "data.run_log", Err: errors.New("required by labels")}
			}
			labels, err := loadLabels(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("%d instances, %d algorithms\n", len(labels.Summaries), len(labels.Algorithms))
			fmt.Println("Fastest algorithm counts:")
			printBestCounts(labels.Summaries)

			out := flagLabelsOut
			if out == "" {
				out = cfg.Data.LabelFile
			}
			if out == "" {
				return nil
			}
			if err := runs.WriteLabels(out, labels); err != nil {
				return err
			}
			fmt.Printf("Labels written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagLabelsOut, "out", "", "write labels JSON here (default: data.label_file)")
	return cmd
}
