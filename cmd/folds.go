package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/result"
	"github.com/signalnine/tspselect/internal/runs"
	"github.com/signalnine/tspselect/internal/split"
	"github.com/spf13/cobra"
)

var flagFoldsOut string

func newFoldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folds",
		Short: "Show the cross-validation partition of labeled instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			labels, err := loadLabels(cfg)
			if err != nil {
				return err
			}
			folds, err := split.KFold(runs.Keys(labels.Summaries), cfg.Training.Folds, cfg.Training.Seed)
			if err != nil {
				return &config.ConfigError{Field: "training.folds", Err: err}
			}
			for _, f := range folds {
				fmt.Printf("fold %d: %d train, %d val\n", f.Index, len(f.Train), len(f.Val))
			}
			if flagFoldsOut == "" {
				return nil
			}
			return result.WriteJSON(filepath.Dir(flagFoldsOut), filepath.Base(flagFoldsOut), folds)
		},
	}
	cmd.Flags().StringVar(&flagFoldsOut, "out", "", "write fold membership as JSON")
	return cmd
}
