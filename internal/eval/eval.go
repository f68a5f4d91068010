// Package eval scores algorithm selections by the solver runtime they
// would have cost.
package eval

import (
	"golang.org/x/exp/constraints"

	"github.com/signalnine/tspselect/internal/label"
)

// Direction tells which end of a score vector marks the chosen algorithm.
type Direction int

const (
	Maximize Direction = iota
	Minimize
)

// DirectionFor returns Minimize for families whose scores predict runtime.
func DirectionFor(f label.Family) Direction {
	switch f {
	case label.Regression:
		return Minimize
	case label.Categorical, label.SoftCrossEntropy, label.RankDecay:
		return Maximize
	}
	return Maximize
}

// Select returns the index of the chosen algorithm; ties go to the lowest index.
func Select(scores []float64, dir Direction) int {
	if dir == Minimize {
		return ArgMin(scores)
	}
	return ArgMax(scores)
}

func ArgMin[T constraints.Ordered](xs []T) int {
	best := -1
	for i, x := range xs {
		if best < 0 || x < xs[best] {
			best = i
		}
	}
	return best
}

func ArgMax[T constraints.Ordered](xs []T) int {
	best := -1
	for i, x := range xs {
		if best < 0 || x > xs[best] {
			best = i
		}
	}
	return best
}

// Metrics summarizes a set of selections. Runtimes are cumulative seconds.
type Metrics struct {
	Instances   int     `json:"instances"`
	Correct     int     `json:"correct"`
	Accuracy    float64 `json:"accuracy"`
	Predicted   float64 `json:"predicted_runtime"`
	VirtualBest float64 `json:"virtual_best_runtime"`
	SingleBest  float64 `json:"single_best_runtime"`
	ImproveRate float64 `json:"improve_rate"`
	// Ratio is Predicted over VirtualBest; 1 is a perfect selector.
	Ratio float64 `json:"ratio"`
}

// Tally accumulates selections against ground-truth runtimes. Baseline is
// the index of the single-best reference algorithm.
type Tally struct {
	Direction Direction
	Baseline  int

	n, correct, improved int
	predicted, vbs, sbs  float64
}

func NewTally(dir Direction, baseline int) *Tally {
	return &Tally{Direction: dir, Baseline: baseline}
}

// Add records one instance and returns the selected algorithm index.
func (t *Tally) Add(scores, runtimes []float64) int {
	pick := Select(scores, t.Direction)
	best := ArgMin(runtimes)
	t.n++
	if pick == best || runtimes[pick] == runtimes[best] {
		t.correct++
	}
	t.predicted += runtimes[pick]
	t.vbs += runtimes[best]
	t.sbs += runtimes[t.Baseline]
	if runtimes[pick] <= runtimes[t.Baseline] {
		t.improved++
	}
	return pick
}

func (t *Tally) Metrics() Metrics {
	m := Metrics{
		Instances:   t.n,
		Correct:     t.correct,
		Predicted:   t.predicted,
		VirtualBest: t.vbs,
		SingleBest:  t.sbs,
	}
	if t.n > 0 {
		m.Accuracy = float64(t.correct) / float64(t.n)
		m.ImproveRate = float64(t.improved) / float64(t.n)
	}
	if t.vbs > 0 {
		m.Ratio = t.predicted / t.vbs
	}
	return m
}

// SingleBest returns the algorithm index with the lowest cumulative runtime
// over the given runtime vectors.
func SingleBest(vectors [][]float64) int {
	if len(vectors) == 0 {
		return 0
	}
	totals := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i, rt := range v {
			totals[i] += rt
		}
	}
	return ArgMin(totals)
}
