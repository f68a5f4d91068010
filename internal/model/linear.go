package model

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear is an affine scorer, scores = x Wᵀ + b, trained by plain SGD with
// L2 weight decay.
type Linear struct {
	w *mat.Dense // classes x features
	b []float64

	x     *mat.Dense
	gradW *mat.Dense
	gradB []float64
}

// NewLinear initializes weights uniformly in ±1/sqrt(features).
func NewLinear(features, classes int, r *rand.Rand) *Linear {
	bound := 1 / math.Sqrt(float64(features))
	data := make([]float64, classes*features)
	for i := range data {
		data[i] = (2*r.Float64() - 1) * bound
	}
	return &Linear{
		w:     mat.NewDense(classes, features, data),
		b:     make([]float64, classes),
		gradW: mat.NewDense(classes, features, nil),
		gradB: make([]float64, classes),
	}
}

// LinearFactory returns a Factory seeded from seed.
func LinearFactory(seed int64) Factory {
	r := rand.New(rand.NewSource(seed))
	return func(features, classes int) Model {
		return NewLinear(features, classes, r)
	}
}

func (l *Linear) Dims() (features, classes int) {
	classes, features = l.w.Dims()
	return features, classes
}

func (l *Linear) Forward(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	classes, _ := l.w.Dims()
	out := mat.NewDense(n, classes, nil)
	out.Mul(x, l.w.T())
	for i := 0; i < n; i++ {
		floats.Add(out.RawRowView(i), l.b)
	}
	l.x = x
	return out
}

func (l *Linear) Backward(grad *mat.Dense) {
	if l.x == nil {
		panic("linear: Backward before Forward")
	}
	l.gradW.Mul(grad.T(), l.x)
	n, _ := grad.Dims()
	for j := range l.gradB {
		l.gradB[j] = 0
	}
	for i := 0; i < n; i++ {
		floats.Add(l.gradB, grad.RawRowView(i))
	}
}

func (l *Linear) Update(lr, weightDecay float64) {
	if weightDecay != 0 {
		l.gradW.Apply(func(i, j int, g float64) float64 { return g + weightDecay*l.w.At(i, j) }, l.gradW)
	}
	l.gradW.Scale(lr, l.gradW)
	l.w.Sub(l.w, l.gradW)
	floats.AddScaled(l.b, -lr, l.gradB)
}

type linearState struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// Save writes the parameters as JSON.
func (l *Linear) Save(path string) error {
	classes, _ := l.w.Dims()
	st := linearState{Weights: make([][]float64, classes), Bias: l.b}
	for i := range st.Weights {
		st.Weights[i] = mat.Row(nil, i, l.w)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling model: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	var st linearState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	if len(st.Weights) == 0 || len(st.Weights[0]) == 0 || len(st.Bias) != len(st.Weights) {
		return nil, fmt.Errorf("parsing model: inconsistent shapes")
	}
	classes, features := len(st.Weights), len(st.Weights[0])
	w := mat.NewDense(classes, features, nil)
	for i, row := range st.Weights {
		if len(row) != features {
			return nil, fmt.Errorf("parsing model: row %d has %d weights, want %d", i, len(row), features)
		}
		w.SetRow(i, row)
	}
	return &Linear{
		w:     w,
		b:     st.Bias,
		gradW: mat.NewDense(classes, features, nil),
		gradB: make([]float64, classes),
	}, nil
}
