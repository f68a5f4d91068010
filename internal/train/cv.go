package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/dataset"
	"github.com/signalnine/tspselect/internal/eval"
	"github.com/signalnine/tspselect/internal/model"
	"github.com/signalnine/tspselect/internal/result"
	"github.com/signalnine/tspselect/internal/runs"
	"github.com/signalnine/tspselect/internal/split"
	"github.com/signalnine/tspselect/internal/transform"
)

// ModelFile is the per-fold parameter file name.
const ModelFile = "model.json"

var errNoInstances = errors.New("no labeled instances")

// Plan bundles everything a cross-validation run needs.
type Plan struct {
	Config     *config.Config
	Algorithms []string
	Summaries  []runs.Summary
	Transform  transform.Transform
	Factory    model.Factory
	// RunDir receives folds/fold-N/{meta,model}.json and summary.json.
	// Nothing is written when it is empty.
	RunDir string
	// Holdout, when in (0, 1), replaces k-fold splitting with one
	// train/validation split holding out that fraction.
	Holdout float64
	Workers int
	Verbose io.Writer
}

type saver interface {
	Save(path string) error
}

// CrossValidate trains one fresh model per fold, sequentially, and averages
// the best validation results once all folds are done. A failing fold
// aborts the run.
func CrossValidate(ctx context.Context, p Plan) (*result.CVSummary, []*result.FoldMeta, error) {
	cfg := p.Config
	if len(p.Summaries) == 0 {
		return nil, nil, &config.ConfigError{Field: "data.run_log", Err: errNoInstances}
	}
	folds, err := makeFolds(runs.Keys(p.Summaries), cfg, p.Holdout)
	if err != nil {
		return nil, nil, &config.ConfigError{Field: "training.folds", Err: err}
	}

	index := runs.Index(p.Summaries)
	dsOpts := dataset.Options{
		Root:       cfg.Data.Instances,
		Format:     cfg.Data.Format,
		Algorithms: p.Algorithms,
		Family:     cfg.Family,
		Params:     cfg.Labels.Params,
		Transform:  p.Transform,
		Workers:    p.Workers,
	}

	metas := make([]*result.FoldMeta, 0, len(folds))
	for _, f := range folds {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if p.Verbose != nil {
			fmt.Fprintf(p.Verbose, "fold %d/%d: %d train, %d val\n", f.Index+1, len(folds), len(f.Train), len(f.Val))
		}
		meta, err := runFold(ctx, p, f, index, dsOpts)
		if err != nil {
			return nil, nil, fmt.Errorf("fold %d: %w", f.Index, err)
		}
		metas = append(metas, meta)
	}

	summary := Summarize(metas)
	if p.RunDir != "" {
		if err := result.WriteSummary(p.RunDir, summary); err != nil {
			return nil, nil, err
		}
	}
	return summary, metas, nil
}

func makeFolds(keys []string, cfg *config.Config, holdout float64) ([]split.Fold, error) {
	if holdout > 0 {
		f, err := split.Holdout(keys, holdout, cfg.Training.Seed)
		if err != nil {
			return nil, err
		}
		return []split.Fold{f}, nil
	}
	return split.KFold(keys, cfg.Training.Folds, cfg.Training.Seed)
}

func runFold(ctx context.Context, p Plan, f split.Fold, index map[string]*runs.Summary, dsOpts dataset.Options) (*result.FoldMeta, error) {
	trainDS, err := dataset.New(f.Train, index, dsOpts)
	if err != nil {
		return nil, fmt.Errorf("train set: %w", err)
	}
	valDS, err := dataset.New(f.Val, index, dsOpts)
	if err != nil {
		return nil, fmt.Errorf("validation set: %w", err)
	}
	baseline, err := baselineIndex(p.Config.Baseline, p.Algorithms, trainDS)
	if err != nil {
		return nil, err
	}

	m := p.Factory(features(trainDS.InputShape()), len(p.Algorithms))
	opts := OptionsFrom(p.Config)
	opts.Workers = p.Workers
	opts.Baseline = baseline
	opts.Seed += int64(f.Index)
	opts.Verbose = p.Verbose

	meta, err := Run(ctx, trainDS, valDS, m, opts)
	if err != nil {
		return nil, err
	}
	meta.Fold = f.Index
	if p.RunDir == "" {
		return meta, nil
	}

	dir := result.FoldDir(p.RunDir, f.Index)
	if err := result.WriteFoldMeta(dir, meta); err != nil {
		return nil, err
	}
	if s, ok := m.(saver); ok {
		if err := s.Save(filepath.Join(dir, ModelFile)); err != nil {
			return nil, fmt.Errorf("saving model: %w", err)
		}
	} else {
		log.Printf("warning: fold %d model has no Save method, parameters not written", f.Index)
	}
	return meta, nil
}

// baselineIndex resolves the configured single-best algorithm, or picks the
// one with the lowest cumulative runtime over the training set.
func baselineIndex(name string, algorithms []string, trainDS *dataset.Dataset) (int, error) {
	if name != "" {
		i := slices.Index(algorithms, name)
		if i < 0 {
			return 0, &config.ConfigError{Field: "baseline", Err: fmt.Errorf("%q is not among the algorithms", name)}
		}
		return i, nil
	}
	vectors := make([][]float64, trainDS.Len())
	for i := range vectors {
		vectors[i] = trainDS.Runtimes(i)
	}
	return eval.SingleBest(vectors), nil
}

// Summarize averages best-epoch metrics over folds and totals runtimes.
func Summarize(metas []*result.FoldMeta) *result.CVSummary {
	s := &result.CVSummary{Folds: len(metas)}
	if len(metas) == 0 {
		return s
	}
	s.Loss = metas[0].Loss
	acc := make([]float64, len(metas))
	ratio := make([]float64, len(metas))
	improve := make([]float64, len(metas))
	for i, m := range metas {
		acc[i] = m.Best.Accuracy
		ratio[i] = m.Best.Ratio
		improve[i] = m.Best.ImproveRate
		s.Predicted += m.Best.Predicted
		s.VirtualBest += m.Final.VirtualBest
		s.SingleBest += m.Final.SingleBest
	}
	s.MeanAccuracy = stat.Mean(acc, nil)
	s.MeanRatio = stat.Mean(ratio, nil)
	s.MeanImproveRate = stat.Mean(improve, nil)
	return s
}

func features(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
