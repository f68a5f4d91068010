package cmd

import (
	"fmt"
	"log"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/geometry"
	"github.com/signalnine/tspselect/internal/hostinfo"
	"github.com/signalnine/tspselect/internal/runner"
	"github.com/signalnine/tspselect/internal/runs"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config, run log and instance geometry",
		Long:  "Load the config, aggregate the run log, and try to read the geometry of every labeled instance, reporting each one that fails.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			labels, err := loadLabels(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("Config ok: %d instances, %d algorithms, loss %s\n",
				len(labels.Summaries), len(labels.Algorithms), cfg.Family)

			missing := checkGeometry(cfg, labels.Summaries, hostinfo.Workers(cfg.Training.Workers))
			for _, err := range missing {
				log.Printf("  %v", err)
			}
			if len(missing) > 0 {
				return fmt.Errorf("%d of %d instances have unreadable geometry", len(missing), len(labels.Summaries))
			}
			fmt.Println("All instance geometry readable")
			return nil
		},
	}
}

// checkGeometry loads every instance and returns the failures in log order.
func checkGeometry(cfg *config.Config, summaries []runs.Summary, workers int) []error {
	jobs := make([]runner.Job, len(summaries))
	for i := range summaries {
		id := summaries[i].ID
		jobs[i] = func() error {
			_, err := geometry.Load(cfg.Data.Instances, id, cfg.Data.Format)
			return err
		}
	}
	var failed []error
	for _, err := range runner.RunPool(workers, jobs) {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return failed
}
