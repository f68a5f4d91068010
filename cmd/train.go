package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/hostinfo"
	"github.com/signalnine/tspselect/internal/model"
	"github.com/signalnine/tspselect/internal/report"
	"github.com/signalnine/tspselect/internal/result"
	"github.com/signalnine/tspselect/internal/train"
	"github.com/signalnine/tspselect/internal/transform"
	"github.com/spf13/cobra"
)

var (
	flagFolds   int
	flagEpochs  int
	flagLoss    string
	flagHoldout float64
	flagWorkers int
	flagQuiet   bool
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Cross-validate a selector on the labeled instances",
		RunE:  runTrain,
	}
	cmd.Flags().IntVar(&flagFolds, "folds", 0, "override fold count")
	cmd.Flags().IntVar(&flagEpochs, "epochs", 0, "override epoch count")
	cmd.Flags().StringVar(&flagLoss, "loss", "", "override label family (nll, sce, bce, mse)")
	cmd.Flags().Float64Var(&flagHoldout, "holdout", 0, "use a single split holding out this fraction instead of k folds")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "override loader workers (0 = config, then CPU count)")
	cmd.Flags().BoolVar(&flagQuiet, "quiet", false, "suppress per-epoch progress")
	return cmd
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg); err != nil {
		return err
	}

	labels, err := loadLabels(cfg)
	if err != nil {
		return err
	}
	tr, err := transform.New(cfg.Transform)
	if err != nil {
		return &config.ConfigError{Field: "transform", Err: err}
	}

	runDir, err := result.CreateRunDir(cfg.Results.Dir)
	if err != nil {
		return err
	}
	fmt.Printf("Run directory: %s\n", runDir)
	if err := writeConfig(runDir, cfg); err != nil {
		return err
	}
	host := hostinfo.Collect()
	fmt.Printf("Host: %s\n", host)
	if err := host.Write(runDir); err != nil {
		return err
	}

	var verbose io.Writer = os.Stdout
	if flagQuiet {
		verbose = nil
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, _, err := train.CrossValidate(ctx, train.Plan{
		Config:     cfg,
		Algorithms: labels.Algorithms,
		Summaries:  labels.Summaries,
		Transform:  tr,
		Factory:    model.LinearFactory(cfg.Training.Seed),
		RunDir:     runDir,
		Holdout:    flagHoldout,
		Workers:    hostinfo.Workers(cfg.Training.Workers),
		Verbose:    verbose,
	})
	if err != nil {
		return err
	}

	fmt.Println("\n--- Results ---")
	if err := report.Generate(runDir, "table", os.Stdout); err != nil {
		return err
	}
	fmt.Printf("\nmean best accuracy %.1f%%, mean best ratio %.3f, mean best improve rate %.1f%%\n",
		summary.MeanAccuracy*100, summary.MeanRatio, summary.MeanImproveRate*100)
	return nil
}

// applyOverrides copies command-line flags into cfg and re-validates.
func applyOverrides(cfg *config.Config) error {
	if flagFolds > 0 {
		cfg.Training.Folds = flagFolds
	}
	if flagEpochs > 0 {
		cfg.Training.Epochs = flagEpochs
	}
	if flagLoss != "" {
		cfg.Labels.Loss = flagLoss
	}
	if flagWorkers > 0 {
		cfg.Training.Workers = flagWorkers
	}
	return cfg.Validate()
}

const runConfigFile = "config.yaml"

func writeConfig(runDir string, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(filepath.Join(runDir, runConfigFile), data, 0o644)
}
