package label_test

import (
	"errors"
	"math"
	"testing"

	"github.com/signalnine/tspselect/internal/label"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var families = []label.Family{label.Categorical, label.SoftCrossEntropy, label.RankDecay, label.Regression}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func TestParseFamily(t *testing.T) {
	for _, f := range families {
		got, err := label.ParseFamily(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
		assert.True(t, got.Valid())
	}
	_, err := label.ParseFamily("hinge")
	assert.True(t, errors.Is(err, label.ErrUnknownFamily))
	assert.False(t, label.Family(0).Valid())
}

func TestEncodeSoftCrossEntropy(t *testing.T) {
	rt := []float64{10, 20, 30, 900, 900}
	got, err := label.Encode(label.SoftCrossEntropy, rt, label.DefaultParams())
	require.NoError(t, err)

	raw := []float64{1.0 / 100, 1.0 / 400, 1.0 / 900}
	total := sum(raw)
	want := []float64{raw[0] / total, raw[1] / total, raw[2] / total, 0, 0}
	assert.InDeltaSlice(t, want, got.Target, 1e-12)
	assert.InDelta(t, 1.0, sum(got.Target), 1e-12)
}

func TestEncodeSoftCrossEntropyDegenerate(t *testing.T) {
	p := label.DefaultParams()
	p.SCEExp = 400
	got, err := label.Encode(label.SoftCrossEntropy, []float64{0, 0, 0, 5}, p)
	require.NoError(t, err)
	for _, v := range got.Target {
		assert.False(t, math.IsNaN(v))
	}
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3, 0}, got.Target, 1e-12)
}

func TestEncodeSoftCrossEntropyFewAlgorithms(t *testing.T) {
	got, err := label.Encode(label.SoftCrossEntropy, []float64{10, 20}, label.DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sum(got.Target), 1e-12)
	assert.Greater(t, got.Target[0], got.Target[1])
}

func TestEncodeRankDecay(t *testing.T) {
	got, err := label.Encode(label.RankDecay, []float64{30, 10, 900, 20, 50}, label.DefaultParams())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.81, 1, 0, 0.9, 0}, got.Target, 1e-12)
}

func TestEncodeRegression(t *testing.T) {
	got, err := label.Encode(label.Regression, []float64{10, 20, 110}, label.DefaultParams())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.1, 1}, got.Target, 1e-12)

	flat, err := label.Encode(label.Regression, []float64{9000, 9000}, label.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, flat.Target)
}

func TestEncodeCategorical(t *testing.T) {
	got, err := label.Encode(label.Categorical, []float64{40, 12, 12, 9000}, label.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Class)
	assert.Equal(t, []float64{0, 1, 0, 0}, got.Target)
}

func TestOneHot(t *testing.T) {
	got := label.OneHot(2, 3)
	assert.Equal(t, label.Categorical, got.Family)
	assert.Equal(t, 2, got.Class)
	assert.Equal(t, []float64{0, 0, 1}, got.Target)
}

func TestEncodeShapeAndRange(t *testing.T) {
	vectors := [][]float64{
		{10, 20, 30, 900, 900},
		{9000, 9000, 9000},
		{1},
		{0.5, 0, 3, 3, 7, 9000},
	}
	for _, rt := range vectors {
		for _, f := range families {
			got, err := label.Encode(f, rt, label.DefaultParams())
			require.NoError(t, err)
			require.Len(t, got.Target, len(rt))
			switch f {
			case label.Categorical:
				assert.GreaterOrEqual(t, got.Class, 0)
				assert.Less(t, got.Class, len(rt))
			case label.SoftCrossEntropy, label.RankDecay:
				for _, v := range got.Target {
					assert.GreaterOrEqual(t, v, 0.0)
				}
				if f == label.SoftCrossEntropy {
					assert.LessOrEqual(t, sum(got.Target), 1+1e-9)
				}
			case label.Regression:
				for _, v := range got.Target {
					assert.GreaterOrEqual(t, v, 0.0)
					assert.LessOrEqual(t, v, 1.0)
				}
			}

			again, err := label.Encode(f, rt, label.DefaultParams())
			require.NoError(t, err)
			assert.Equal(t, got, again)
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	_, err := label.Encode(label.Family(42), []float64{1}, label.DefaultParams())
	assert.ErrorIs(t, err, label.ErrUnknownFamily)
	_, err = label.Encode(label.Categorical, nil, label.DefaultParams())
	assert.ErrorIs(t, err, label.ErrEmptyRuntimes)
}

func TestWeight(t *testing.T) {
	p := label.DefaultParams()
	want := (math.Pow(10, 0.9) + math.Pow(1000, 0.9)) / 2
	assert.InDelta(t, want, label.Weight([]float64{10, 1000}, p), 1e-9)
	assert.Greater(t, label.Weight([]float64{500, 600}, p), label.Weight([]float64{5, 6}, p))
	assert.Equal(t, 0.0, label.Weight(nil, p))
}

func TestWeightIncludesPenalty(t *testing.T) {
	p := label.DefaultParams()
	penalized := label.Weight([]float64{10, 20, 9000}, p)
	want := (math.Pow(10, 0.9) + math.Pow(20, 0.9) + math.Pow(9000, 0.9)) / 3
	assert.InDelta(t, want, penalized, 1e-9)
	assert.Greater(t, penalized, 10*label.Weight([]float64{10, 20, 30}, p))
}

func TestRanksStable(t *testing.T) {
	assert.Equal(t, []int{2, 0, 1, 3}, label.Ranks([]float64{5, 1, 1, 9}))
}
