package eval_test

import (
	"testing"

	"github.com/signalnine/tspselect/internal/eval"
	"github.com/signalnine/tspselect/internal/label"
	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	scores := []float64{0.1, 0.7, 0.7, 0.2}
	assert.Equal(t, 1, eval.Select(scores, eval.Maximize))
	assert.Equal(t, 0, eval.Select(scores, eval.Minimize))
	assert.Equal(t, -1, eval.ArgMax([]int{}))
}

func TestDirectionFor(t *testing.T) {
	assert.Equal(t, eval.Minimize, eval.DirectionFor(label.Regression))
	assert.Equal(t, eval.Maximize, eval.DirectionFor(label.Categorical))
	assert.Equal(t, eval.Maximize, eval.DirectionFor(label.SoftCrossEntropy))
	assert.Equal(t, eval.Maximize, eval.DirectionFor(label.RankDecay))
}

func TestTallyMetrics(t *testing.T) {
	tally := eval.NewTally(eval.Maximize, 1)

	// Picks algorithm 0, which is fastest.
	assert.Equal(t, 0, tally.Add([]float64{0.9, 0.1, 0}, []float64{10, 20, 30}))
	// Picks algorithm 2 (100s) where 1 (50s) was best and also the baseline.
	assert.Equal(t, 2, tally.Add([]float64{0, 0.2, 0.8}, []float64{9000, 50, 100}))

	m := tally.Metrics()
	assert.Equal(t, 2, m.Instances)
	assert.Equal(t, 1, m.Correct)
	assert.Equal(t, 0.5, m.Accuracy)
	assert.Equal(t, 110.0, m.Predicted)
	assert.Equal(t, 60.0, m.VirtualBest)
	assert.Equal(t, 70.0, m.SingleBest)
	assert.Equal(t, 0.5, m.ImproveRate)
	assert.InDelta(t, 110.0/60.0, m.Ratio, 1e-12)
	assert.GreaterOrEqual(t, m.Predicted, m.VirtualBest)
}

func TestTallyRegressionPicksLowest(t *testing.T) {
	tally := eval.NewTally(eval.Minimize, 0)
	tally.Add([]float64{0.8, 0.05, 0.3}, []float64{40, 12, 30})
	m := tally.Metrics()
	assert.Equal(t, 1, m.Correct)
	assert.Equal(t, 12.0, m.Predicted)
	assert.Equal(t, 1.0, m.ImproveRate)
	assert.Equal(t, 1.0, m.Ratio)
}

func TestTallyEmpty(t *testing.T) {
	assert.Equal(t, eval.Metrics{}, eval.NewTally(eval.Maximize, 0).Metrics())
}

func TestSingleBest(t *testing.T) {
	vectors := [][]float64{{10, 5, 100}, {10, 50, 1}, {10, 9000, 1}}
	assert.Equal(t, 0, eval.SingleBest(vectors))
	assert.Equal(t, 0, eval.SingleBest(nil))
}
