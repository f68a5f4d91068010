package result_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/signalnine/tspselect/internal/eval"
	"github.com/signalnine/tspselect/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadFoldMeta(t *testing.T) {
	dir := t.TempDir()
	meta := &result.FoldMeta{
		Fold:       2,
		Loss:       "sce",
		Algorithms: []string{"eax", "lkh"},
		Baseline:   "lkh",
		Train:      80,
		Val:        20,
		Epochs: []result.Epoch{
			{Epoch: 1, LearningRate: 0.01, TrainLoss: 0.7, Val: eval.Metrics{Instances: 20, Accuracy: 0.5}},
		},
		Best:  result.Best{Accuracy: 0.5, AccuracyEpoch: 1, Predicted: 1200},
		Final: eval.Metrics{Instances: 20, Predicted: 1200, VirtualBest: 1000},
	}
	require.NoError(t, result.WriteFoldMeta(dir, meta))

	got, err := result.ReadFoldMeta(filepath.Join(dir, "meta.json"))
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestWriteAndReadSummary(t *testing.T) {
	dir := t.TempDir()
	s := &result.CVSummary{Folds: 5, Loss: "nll", MeanRatio: 1.2}
	require.NoError(t, result.WriteSummary(dir, s))

	got, err := result.ReadSummary(dir)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestCreateRunDir(t *testing.T) {
	base := t.TempDir()
	runDir, err := result.CreateRunDir(base)
	require.NoError(t, err)
	assert.DirExists(t, runDir)

	target, err := os.Readlink(filepath.Join(base, "latest"))
	require.NoError(t, err)
	assert.Equal(t, runDir, target)
}

func TestFoldDir(t *testing.T) {
	base := t.TempDir()
	assert.Equal(t, filepath.Join(base, "folds", "fold-3"), result.FoldDir(base, 3))
}
