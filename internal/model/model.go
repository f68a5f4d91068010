// Package model defines the scoring-model capability the training loop
// drives, the per-family weighted criteria, and a linear reference model.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer maps a batch of flattened inputs (one row per instance) to a batch
// of score vectors (one column per algorithm).
type Scorer interface {
	Forward(x *mat.Dense) *mat.Dense
}

// Model is a trainable Scorer. Backward receives the loss gradient with
// respect to the scores of the most recent Forward call; Update applies
// the accumulated parameter gradient.
type Model interface {
	Scorer
	Backward(grad *mat.Dense)
	Update(lr, weightDecay float64)
}

// Factory builds a fresh model for inputs of the given width.
type Factory func(features, classes int) Model

// Rows stacks equally sized vectors into a matrix.
func Rows(vectors [][]float64) *mat.Dense {
	if len(vectors) == 0 {
		return nil
	}
	cols := len(vectors[0])
	data := make([]float64, 0, len(vectors)*cols)
	for _, v := range vectors {
		data = append(data, v...)
	}
	return mat.NewDense(len(vectors), cols, data)
}
