package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/eval"
	"github.com/signalnine/tspselect/internal/geometry"
	"github.com/signalnine/tspselect/internal/label"
	"github.com/signalnine/tspselect/internal/model"
	"github.com/signalnine/tspselect/internal/result"
	"github.com/signalnine/tspselect/internal/train"
	"github.com/signalnine/tspselect/internal/transform"
	"github.com/spf13/cobra"
)

var (
	flagRun  string
	flagFold int
)

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict <instance-id|geometry-file>...",
		Short: "Select an algorithm for instances with a trained fold model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			runDir := flagRun
			if runDir == "" {
				runDir = filepath.Join(cfg.Results.Dir, "latest")
			}
			runDir, err = filepath.EvalSymlinks(runDir)
			if err != nil {
				return fmt.Errorf("resolving run dir: %w", err)
			}
			foldDir := result.FoldDir(runDir, flagFold)
			meta, err := result.ReadFoldMeta(filepath.Join(foldDir, "meta.json"))
			if err != nil {
				return err
			}
			fam, err := label.ParseFamily(meta.Loss)
			if err != nil {
				return err
			}
			m, err := model.LoadLinear(filepath.Join(foldDir, train.ModelFile))
			if err != nil {
				return err
			}
			if _, classes := m.Dims(); classes != len(meta.Algorithms) {
				return fmt.Errorf("fold %d model scores %d algorithms, meta lists %d", flagFold, classes, len(meta.Algorithms))
			}
			trained, err := runConfig(runDir, cfg)
			if err != nil {
				return err
			}
			tr, err := transform.New(trained.Transform)
			if err != nil {
				return &config.ConfigError{Field: "transform", Err: err}
			}

			for _, arg := range args {
				rec, err := loadRecord(cfg, arg)
				if err != nil {
					return err
				}
				pick, scores, err := selectFor(m, tr, rec, eval.DirectionFor(fam))
				if err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				fmt.Printf("%s\t%s\t%s\n", rec.ID, meta.Algorithms[pick], formatScores(meta.Algorithms, scores))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagRun, "run", "", "run directory (default: <results.dir>/latest)")
	cmd.Flags().IntVar(&flagFold, "fold", 0, "fold whose model to use")
	return cmd
}

// loadRecord treats arg as a geometry file when it exists on disk and as an
// instance id under data.instances otherwise.
func loadRecord(cfg *config.Config, arg string) (*geometry.Record, error) {
	if _, err := os.Stat(arg); err == nil {
		format := cfg.Data.Format
		switch filepath.Ext(arg) {
		case ".tsp":
			format = geometry.FormatTSPLIB
		case ".json":
			format = geometry.FormatJSON
		}
		rec, err := geometry.ReadFile(arg, format)
		if err != nil {
			return nil, &geometry.LoadError{ID: arg, Path: arg, Err: err}
		}
		if rec.ID == "" {
			rec.ID = strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		}
		return rec, nil
	}
	return geometry.Load(cfg.Data.Instances, arg, cfg.Data.Format)
}

// runConfig returns the config snapshot a run was trained with, so inputs
// are transformed the way the model saw them. Runs without a snapshot fall
// back to cfg.
func runConfig(runDir string, cfg *config.Config) (*config.Config, error) {
	path := filepath.Join(runDir, runConfigFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: %s has no %s, using current transform settings", runDir, runConfigFile)
		return cfg, nil
	}
	return config.Load(path)
}

type dimensioned interface {
	Dims() (features, classes int)
}

func selectFor(s model.Scorer, tr transform.Transform, rec *geometry.Record, dir eval.Direction) (int, []float64, error) {
	x, err := tr.Apply(rec)
	if err != nil {
		return 0, nil, err
	}
	if d, ok := s.(dimensioned); ok {
		if features, _ := d.Dims(); features != x.Len() {
			return 0, nil, fmt.Errorf("model expects %d input features, transform produced %d", features, x.Len())
		}
	}
	scores := s.Forward(model.Rows([][]float64{x.Data})).RawRowView(0)
	return eval.Select(scores, dir), scores, nil
}

func formatScores(algorithms []string, scores []float64) string {
	parts := make([]string, len(scores))
	for i, v := range scores {
		parts[i] = fmt.Sprintf("%s=%.3f", algorithms[i], v)
	}
	return strings.Join(parts, " ")
}
