// Package label turns an instance's per-algorithm runtime vector into a
// supervision target and a sample weight.
package label

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Family selects the loss the labels are built for.
type Family int

const (
	Categorical Family = iota + 1
	SoftCrossEntropy
	RankDecay
	Regression
)

var (
	ErrUnknownFamily = errors.New("unknown loss family")
	ErrEmptyRuntimes = errors.New("empty runtime vector")
)

// minRuntime keeps runtime^-exp finite for zero runtimes.
const minRuntime = 1e-9

// topK is the number of fastest algorithms that receive soft-label mass.
const topK = 3

// ParseFamily accepts the loss names used in configuration files.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nll":
		return Categorical, nil
	case "sce":
		return SoftCrossEntropy, nil
	case "bce":
		return RankDecay, nil
	case "mse":
		return Regression, nil
	}
	return 0, fmt.Errorf("%w: %q (want nll, sce, bce or mse)", ErrUnknownFamily, s)
}

func (f Family) String() string {
	switch f {
	case Categorical:
		return "nll"
	case SoftCrossEntropy:
		return "sce"
	case RankDecay:
		return "bce"
	case Regression:
		return "mse"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

func (f Family) Valid() bool {
	return f >= Categorical && f <= Regression
}

// Params holds the encoding constants.
type Params struct {
	SCEExp    float64 `yaml:"sce_exp"`
	BCEDecay  float64 `yaml:"bce_decay"`
	WeightExp float64 `yaml:"weight_exp"`
}

func DefaultParams() Params {
	return Params{SCEExp: 2.0, BCEDecay: 0.9, WeightExp: 0.9}
}

// Label is a supervision target. Class is meaningful for Categorical only;
// Target always has one entry per algorithm.
type Label struct {
	Family Family
	Class  int
	Target []float64
}

// Encode builds the label for runtimes, indexed by the stable algorithm order.
func Encode(f Family, runtimes []float64, p Params) (Label, error) {
	if len(runtimes) == 0 {
		return Label{}, ErrEmptyRuntimes
	}
	switch f {
	case Categorical:
		return OneHot(floats.MinIdx(runtimes), len(runtimes)), nil
	case SoftCrossEntropy:
		return Label{Family: f, Class: -1, Target: softTarget(runtimes, p.SCEExp)}, nil
	case RankDecay:
		return Label{Family: f, Class: -1, Target: rankDecayTarget(runtimes, p.BCEDecay)}, nil
	case Regression:
		return Label{Family: f, Class: -1, Target: normalize(runtimes)}, nil
	}
	return Label{}, fmt.Errorf("%w: %v", ErrUnknownFamily, f)
}

// OneHot is the Categorical label selecting class out of n algorithms.
// Callers that know the fastest algorithm by name use it to keep the label
// consistent with that choice when runtimes tie.
func OneHot(class, n int) Label {
	target := make([]float64, n)
	target[class] = 1
	return Label{Family: Categorical, Class: class, Target: target}
}

// Weight is the mean of runtime^WeightExp over all algorithms, so slow
// instances weigh more in the loss. Penalized entries of timed-out
// algorithms are included as is, which lets a single timeout dominate the
// weight of its instance.
func Weight(runtimes []float64, p Params) float64 {
	if len(runtimes) == 0 {
		return 0
	}
	var sum float64
	for _, rt := range runtimes {
		sum += math.Pow(math.Max(rt, 0), p.WeightExp)
	}
	return sum / float64(len(runtimes))
}

func softTarget(runtimes []float64, exp float64) []float64 {
	sorted := append([]float64(nil), runtimes...)
	sort.Float64s(sorted)
	baseline := sorted[min(topK, len(sorted))-1]

	target := make([]float64, len(runtimes))
	masked := 0
	for i, rt := range runtimes {
		if rt > baseline {
			continue
		}
		masked++
		target[i] = math.Pow(math.Max(rt, minRuntime), -exp)
	}
	sum := floats.Sum(target)
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		// Uniform over the masked algorithms.
		for i, rt := range runtimes {
			target[i] = 0
			if rt <= baseline {
				target[i] = 1 / float64(masked)
			}
		}
		return target
	}
	floats.Scale(1/sum, target)
	return target
}

func rankDecayTarget(runtimes []float64, decay float64) []float64 {
	target := make([]float64, len(runtimes))
	for i, r := range Ranks(runtimes) {
		if r < topK {
			target[i] = math.Pow(decay, float64(r))
		}
	}
	return target
}

func normalize(runtimes []float64) []float64 {
	lo, hi := floats.Min(runtimes), floats.Max(runtimes)
	target := make([]float64, len(runtimes))
	if hi == lo {
		return target
	}
	for i, rt := range runtimes {
		target[i] = (rt - lo) / (hi - lo)
	}
	return target
}

// Ranks returns the ascending rank of each runtime; equal runtimes are
// ranked by index.
func Ranks(runtimes []float64) []int {
	order := make([]int, len(runtimes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return runtimes[order[a]] < runtimes[order[b]] })
	ranks := make([]int, len(runtimes))
	for r, i := range order {
		ranks[i] = r
	}
	return ranks
}
