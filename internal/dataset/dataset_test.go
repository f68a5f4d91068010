package dataset_test

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"testing"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/dataset"
	"github.com/signalnine/tspselect/internal/geometry"
	"github.com/signalnine/tspselect/internal/label"
	"github.com/signalnine/tspselect/internal/runs"
	"github.com/signalnine/tspselect/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var algos = []string{"eax", "lkh", "maos"}

func fixture(t *testing.T, n int) (string, []string, map[string]*runs.Summary) {
	t.Helper()
	root := t.TempDir()
	var log []runs.RawRun
	var keys []string
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("rue_%d", i)
		keys = append(keys, id)
		rec := &geometry.Record{ID: id, Coords: [][2]float64{{0, 0}, {float64(i + 1), 0}, {0, 1}, {0.5, 0.5}}}
		require.NoError(t, geometry.WriteJSON(geometry.PathFor(root, id, geometry.FormatJSON), rec))
		for j, a := range algos {
			log = append(log, runs.RawRun{InstanceID: id, Algorithm: a, Status: "ok", Runtime: float64(10*(j+1) + i)})
		}
	}
	return root, keys, runs.Index(runs.Aggregate(log, runs.Options{NumRuns: len(algos)}))
}

func options(root string, fam label.Family) dataset.Options {
	tr, _ := transform.New(transform.Config{Kind: transform.KindImage, Grid: 4, Rotations: 1, Scale: 1})
	return dataset.Options{
		Root:       root,
		Format:     geometry.FormatJSON,
		Algorithms: algos,
		Family:     fam,
		Params:     label.DefaultParams(),
		Transform:  tr,
		Workers:    2,
	}
}

func TestDatasetGet(t *testing.T) {
	root, keys, summaries := fixture(t, 3)
	ds, err := dataset.New(keys, summaries, options(root, label.Categorical))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, []int{1, 4, 4}, ds.InputShape())

	item, err := ds.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "rue_2", item.ID)
	assert.Equal(t, []float64{12, 22, 32}, item.Runtimes)
	assert.Equal(t, 0, item.Label.Class)
	assert.Equal(t, label.Weight(item.Runtimes, label.DefaultParams()), item.Weight)
	assert.Len(t, item.Input.Data, 16)

	_, err = ds.Get(3)
	assert.Error(t, err)
}

func TestDatasetLabelsFollowFamily(t *testing.T) {
	root, keys, summaries := fixture(t, 2)
	ds, err := dataset.New(keys, summaries, options(root, label.Regression))
	require.NoError(t, err)
	item, err := ds.Get(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, item.Label.Target, 1e-12)
}

func TestCategoricalTieFollowsBestAlgorithm(t *testing.T) {
	root := t.TempDir()
	rec := &geometry.Record{Coords: [][2]float64{{0, 0}, {1, 0}, {0, 1}}}
	for _, id := range []string{"rue_tie", "rue_timeout"} {
		require.NoError(t, geometry.WriteJSON(geometry.PathFor(root, id, geometry.FormatJSON), rec))
	}
	// lkh appears first in both blocks; on rue_tie the medians are equal.
	log := []runs.RawRun{
		{InstanceID: "rue_tie", Algorithm: "lkh", Status: "ok", Runtime: 10},
		{InstanceID: "rue_tie", Algorithm: "eax", Status: "ok", Runtime: 10},
		{InstanceID: "rue_timeout", Algorithm: "lkh", Status: "ok", Runtime: 900},
		{InstanceID: "rue_timeout", Algorithm: "eax", Status: "ok", Runtime: 900},
	}
	summaries := runs.Index(runs.Aggregate(log, runs.Options{NumRuns: 2}))
	require.Equal(t, "lkh", summaries["rue_tie"].Best)
	require.Equal(t, runs.NoneFinished, summaries["rue_timeout"].Best)

	opts := options(root, label.Categorical)
	opts.Algorithms = []string{"eax", "lkh"}
	ds, err := dataset.New([]string{"rue_tie", "rue_timeout"}, summaries, opts)
	require.NoError(t, err)

	item, err := ds.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "lkh", opts.Algorithms[item.Label.Class])
	assert.Equal(t, []float64{0, 1}, item.Label.Target)

	item, err = ds.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Label.Class, "nothing finished falls back to class 0")
}

func TestDatasetMissingGeometry(t *testing.T) {
	root, keys, summaries := fixture(t, 3)
	require.NoError(t, os.Remove(geometry.PathFor(root, keys[1], geometry.FormatJSON)))

	_, err := dataset.New(keys, summaries, options(root, label.Categorical))
	var le *geometry.LoadError
	require.True(t, errors.As(err, &le), "got %v", err)
	assert.Equal(t, keys[1], le.ID)
}

func TestDatasetRejectsUnknownFamily(t *testing.T) {
	root, keys, summaries := fixture(t, 1)
	_, err := dataset.New(keys, summaries, options(root, label.Family(99)))
	assert.True(t, config.IsConfigError(err))
	assert.ErrorIs(t, err, label.ErrUnknownFamily)
}

func TestDatasetUnknownKey(t *testing.T) {
	root, _, summaries := fixture(t, 1)
	_, err := dataset.New([]string{"rue_77"}, summaries, options(root, label.Categorical))
	assert.Error(t, err)
}

func TestBatches(t *testing.T) {
	batches := dataset.Batches(10, 4, rand.New(rand.NewSource(1)))
	require.Len(t, batches, 3)
	assert.Len(t, batches[2], 2)
	var all []int
	for _, b := range batches {
		all = append(all, b...)
	}
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)

	assert.Equal(t, [][]int{{0, 1}, {2}}, dataset.Batches(3, 2, nil))
}

func TestLoadPreservesOrder(t *testing.T) {
	root, keys, summaries := fixture(t, 5)
	ds, err := dataset.New(keys, summaries, options(root, label.Categorical))
	require.NoError(t, err)
	items, err := dataset.Load(ds, []int{4, 0, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, "rue_4", items[0].ID)
	assert.Equal(t, "rue_0", items[1].ID)
	assert.Equal(t, "rue_2", items[2].ID)
}
