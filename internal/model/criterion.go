package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/signalnine/tspselect/internal/label"
)

// Criterion computes the weighted mean loss of a batch and its gradient
// with respect to the scores.
type Criterion interface {
	Loss(scores *mat.Dense, labels []label.Label, weights []float64) (float64, *mat.Dense)
}

type criterionFunc func(row, target []float64, class int, grad []float64) float64

// Loss applies a per-row loss and scales each row by w_i / sum(w).
func (f criterionFunc) Loss(scores *mat.Dense, labels []label.Label, weights []float64) (float64, *mat.Dense) {
	n, c := scores.Dims()
	if len(labels) != n || len(weights) != n {
		panic(fmt.Sprintf("criterion: %d score rows, %d labels, %d weights", n, len(labels), len(weights)))
	}
	var wsum float64
	for _, w := range weights {
		wsum += w
	}
	grad := mat.NewDense(n, c, nil)
	var total float64
	for i := 0; i < n; i++ {
		share := 1 / float64(n)
		if wsum > 0 {
			share = weights[i] / wsum
		}
		g := grad.RawRowView(i)
		total += share * f(scores.RawRowView(i), labels[i].Target, labels[i].Class, g)
		for j := range g {
			g[j] *= share
		}
	}
	return total, grad
}

// CriterionFor returns the loss matching a label family.
func CriterionFor(f label.Family) Criterion {
	switch f {
	case label.Categorical:
		return criterionFunc(nll)
	case label.SoftCrossEntropy:
		return criterionFunc(softCrossEntropy)
	case label.RankDecay:
		return criterionFunc(binaryCrossEntropy)
	case label.Regression:
		return criterionFunc(meanSquared)
	}
	panic(fmt.Sprintf("criterion: unknown family %v", f))
}

func nll(row, _ []float64, class int, grad []float64) float64 {
	logp := logSoftmax(row)
	for j, lp := range logp {
		grad[j] = math.Exp(lp)
	}
	grad[class]--
	return -logp[class]
}

func softCrossEntropy(row, target []float64, _ int, grad []float64) float64 {
	logp := logSoftmax(row)
	var mass, loss float64
	for j, t := range target {
		mass += t
		loss -= t * logp[j]
	}
	for j, lp := range logp {
		grad[j] = math.Exp(lp)*mass - target[j]
	}
	return loss
}

func binaryCrossEntropy(row, target []float64, _ int, grad []float64) float64 {
	c := float64(len(row))
	var loss float64
	for j, s := range row {
		t := target[j]
		loss += t*softplus(-s) + (1-t)*softplus(s)
		grad[j] = (sigmoid(s) - t) / c
	}
	return loss / c
}

func meanSquared(row, target []float64, _ int, grad []float64) float64 {
	c := float64(len(row))
	var loss float64
	for j, s := range row {
		d := s - target[j]
		loss += d * d
		grad[j] = 2 * d / c
	}
	return loss / c
}

func logSoftmax(row []float64) []float64 {
	m := math.Inf(-1)
	for _, v := range row {
		m = math.Max(m, v)
	}
	var z float64
	for _, v := range row {
		z += math.Exp(v - m)
	}
	lz := m + math.Log(z)
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = v - lz
	}
	return out
}

// Softmax turns scores into probabilities.
func Softmax(row []float64) []float64 {
	out := logSoftmax(row)
	for i, lp := range out {
		out[i] = math.Exp(lp)
	}
	return out
}

func softplus(x float64) float64 {
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
