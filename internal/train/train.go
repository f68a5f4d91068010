// Package train runs the runtime-weighted training loop and the
// cross-validation driver around it.
package train

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/dataset"
	"github.com/signalnine/tspselect/internal/eval"
	"github.com/signalnine/tspselect/internal/label"
	"github.com/signalnine/tspselect/internal/model"
	"github.com/signalnine/tspselect/internal/result"
)

type Options struct {
	Epochs        int
	BatchSize     int
	LearningRate  float64
	WeightDecay   float64
	DecayFactor   float64
	DecayPatience int
	Workers       int
	Seed          int64
	// Baseline is the index of the single-best reference algorithm.
	Baseline int
	// Verbose receives one progress line per epoch when non-nil.
	Verbose io.Writer
}

// OptionsFrom copies the training section of cfg.
func OptionsFrom(cfg *config.Config) Options {
	t := cfg.Training
	return Options{
		Epochs:        t.Epochs,
		BatchSize:     t.BatchSize,
		LearningRate:  t.LearningRate,
		WeightDecay:   t.WeightDecay,
		DecayFactor:   t.DecayFactor,
		DecayPatience: t.DecayPatience,
		Workers:       t.Workers,
		Seed:          t.Seed,
	}
}

// Run trains m on trainDS for opts.Epochs epochs, validating on valDS after
// each one. The returned meta carries per-epoch metrics and the best values
// seen across all epochs.
func Run(ctx context.Context, trainDS, valDS *dataset.Dataset, m model.Model, opts Options) (*result.FoldMeta, error) {
	if trainDS.Len() == 0 || valDS.Len() == 0 {
		return nil, &config.ConfigError{
			Field: "training.folds",
			Err:   fmt.Errorf("empty split: %d train, %d val instances", trainDS.Len(), valDS.Len()),
		}
	}
	if opts.Epochs < 1 {
		return nil, &config.ConfigError{Field: "training.epochs", Err: fmt.Errorf("must be positive, got %d", opts.Epochs)}
	}
	if opts.Baseline < 0 || opts.Baseline >= len(trainDS.Algorithms()) {
		return nil, fmt.Errorf("baseline index %d out of range", opts.Baseline)
	}

	start := time.Now()
	fam := trainDS.Family()
	crit := model.CriterionFor(fam)
	dir := eval.DirectionFor(fam)
	rng := rand.New(rand.NewSource(opts.Seed))
	lr := opts.LearningRate

	meta := &result.FoldMeta{
		Loss:       fam.String(),
		Algorithms: trainDS.Algorithms(),
		Baseline:   trainDS.Algorithms()[opts.Baseline],
		Train:      trainDS.Len(),
		Val:        valDS.Len(),
		Best:       result.Best{Predicted: math.Inf(1), Ratio: math.Inf(1)},
	}
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loss, trainAcc, err := trainEpoch(trainDS, m, crit, dir, lr, rng, opts)
		if err != nil {
			return nil, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		val, err := Evaluate(valDS, m, opts.Baseline, opts.BatchSize, opts.Workers)
		if err != nil {
			return nil, fmt.Errorf("epoch %d: validating: %w", epoch, err)
		}
		meta.Epochs = append(meta.Epochs, result.Epoch{
			Epoch:        epoch,
			LearningRate: lr,
			TrainLoss:    loss,
			TrainAcc:     trainAcc,
			Val:          val,
		})
		track(&meta.Best, epoch, val)
		meta.Final = val

		if opts.Verbose != nil {
			fmt.Fprintf(opts.Verbose, "epoch:%d lr: %.2e loss: %.4f train acc: %.3f val acc: %.3f ratio: %.3f improve: %.3f\n",
				epoch, lr, loss, trainAcc, val.Accuracy, val.Ratio, val.ImproveRate)
		}
		if opts.DecayPatience > 0 && epoch%opts.DecayPatience == 0 {
			lr *= opts.DecayFactor
		}
	}
	meta.DurationS = int(time.Since(start).Seconds())
	return meta, nil
}

func track(b *result.Best, epoch int, val eval.Metrics) {
	if val.Accuracy > b.Accuracy || b.AccuracyEpoch == 0 {
		b.Accuracy, b.AccuracyEpoch = val.Accuracy, epoch
	}
	if val.Predicted < b.Predicted {
		b.Predicted, b.Ratio, b.PredictedEpoch = val.Predicted, val.Ratio, epoch
	}
	if val.ImproveRate > b.ImproveRate || b.ImproveRateEpoch == 0 {
		b.ImproveRate, b.ImproveRateEpoch = val.ImproveRate, epoch
	}
}

// trainEpoch makes one shuffled pass over ds with one optimizer step per
// batch and returns the mean weighted loss and the training accuracy.
func trainEpoch(ds *dataset.Dataset, m model.Model, crit model.Criterion, dir eval.Direction, lr float64, rng *rand.Rand, opts Options) (float64, float64, error) {
	tally := eval.NewTally(dir, opts.Baseline)
	var total float64
	for _, idx := range dataset.Batches(ds.Len(), opts.BatchSize, rng) {
		items, err := dataset.Load(ds, idx, opts.Workers)
		if err != nil {
			return 0, 0, err
		}
		x, labels, weights := batch(items)
		scores := m.Forward(x)
		loss, grad := crit.Loss(scores, labels, weights)
		m.Backward(grad)
		m.Update(lr, opts.WeightDecay)

		total += loss * float64(len(items))
		for i, it := range items {
			tally.Add(scores.RawRowView(i), it.Runtimes)
		}
	}
	return total / float64(ds.Len()), tally.Metrics().Accuracy, nil
}

// Evaluate scores every item of ds without updating the model.
func Evaluate(ds *dataset.Dataset, s model.Scorer, baseline, batchSize, workers int) (eval.Metrics, error) {
	tally := eval.NewTally(eval.DirectionFor(ds.Family()), baseline)
	for _, idx := range dataset.Batches(ds.Len(), batchSize, nil) {
		items, err := dataset.Load(ds, idx, workers)
		if err != nil {
			return eval.Metrics{}, err
		}
		x, _, _ := batch(items)
		scores := s.Forward(x)
		for i, it := range items {
			tally.Add(scores.RawRowView(i), it.Runtimes)
		}
	}
	return tally.Metrics(), nil
}

func batch(items []dataset.Item) (*mat.Dense, []label.Label, []float64) {
	inputs := make([][]float64, len(items))
	labels := make([]label.Label, len(items))
	weights := make([]float64, len(items))
	for i, it := range items {
		inputs[i] = it.Input.Data
		labels[i] = it.Label
		weights[i] = it.Weight
	}
	return model.Rows(inputs), labels, weights
}
