package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagFormat string
	flagPlot   string
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [run-dir]",
		Short: "Generate summary from stored results",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveRunDir(args)
			if err != nil {
				return err
			}
			if err := report.Generate(resolved, flagFormat, os.Stdout); err != nil {
				return err
			}
			if flagPlot == "" {
				return nil
			}
			if err := report.Plot(resolved, flagPlot); err != nil {
				return err
			}
			fmt.Printf("Learning curves written to %s\n", flagPlot)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json)")
	cmd.Flags().StringVar(&flagPlot, "plot", "", "also write learning-curve PNGs into this directory")
	return cmd
}

// resolveRunDir returns args[0], or the latest run under the configured
// results dir, with symlinks resolved.
func resolveRunDir(args []string) (string, error) {
	var runDir string
	if len(args) > 0 {
		runDir = args[0]
	} else {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return "", err
		}
		runDir = filepath.Join(cfg.Results.Dir, "latest")
	}
	resolved, err := filepath.EvalSymlinks(runDir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	return resolved, nil
}
