// Package dataset pairs instance representations with runtime-derived
// labels for one subset of instances.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/signalnine/tspselect/internal/config"
	"github.com/signalnine/tspselect/internal/geometry"
	"github.com/signalnine/tspselect/internal/label"
	"github.com/signalnine/tspselect/internal/runner"
	"github.com/signalnine/tspselect/internal/runs"
	"github.com/signalnine/tspselect/internal/transform"
)

type Options struct {
	Root       string
	Format     geometry.Format
	Algorithms []string
	Family     label.Family
	Params     label.Params
	Transform  transform.Transform
	Workers    int
}

// Item is one training or validation sample.
type Item struct {
	ID       string
	Input    transform.Tensor
	Label    label.Label
	Weight   float64
	Runtimes []float64
}

// Dataset is a fixed, read-only sequence of instances. Geometry is loaded
// when the dataset is built; transforms and labels are computed on access.
type Dataset struct {
	opts      Options
	keys      []string
	summaries map[string]*runs.Summary
	records   []*geometry.Record
}

// New loads the geometry of every key. Any unreadable instance fails the
// whole dataset.
func New(keys []string, summaries map[string]*runs.Summary, opts Options) (*Dataset, error) {
	if !opts.Family.Valid() {
		return nil, &config.ConfigError{Field: "labels.loss", Err: fmt.Errorf("%w: %v", label.ErrUnknownFamily, opts.Family)}
	}
	if len(opts.Algorithms) == 0 {
		return nil, &config.ConfigError{Field: "algorithms", Err: errors.New("no algorithms to label")}
	}
	if opts.Transform == nil {
		return nil, &config.ConfigError{Field: "transform", Err: errors.New("no transform configured")}
	}
	for _, k := range keys {
		if _, ok := summaries[k]; !ok {
			return nil, fmt.Errorf("instance %s has no runtime summary", k)
		}
	}

	ds := &Dataset{
		opts:      opts,
		keys:      append([]string(nil), keys...),
		summaries: summaries,
		records:   make([]*geometry.Record, len(keys)),
	}
	err := runner.ForEach(opts.Workers, len(keys), func(i int) error {
		rec, err := geometry.Load(opts.Root, ds.keys[i], opts.Format)
		if err != nil {
			return err
		}
		ds.records[i] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func (ds *Dataset) Len() int { return len(ds.keys) }

func (ds *Dataset) Keys() []string { return ds.keys }

func (ds *Dataset) Algorithms() []string { return ds.opts.Algorithms }

func (ds *Dataset) Family() label.Family { return ds.opts.Family }

// InputShape is the shape of every Item.Input.
func (ds *Dataset) InputShape() []int { return ds.opts.Transform.Shape() }

// Runtimes returns the penalized runtime vector of item i without running
// the transform.
func (ds *Dataset) Runtimes(i int) []float64 {
	return ds.summaries[ds.keys[i]].Vector(ds.opts.Algorithms)
}

func (ds *Dataset) Get(i int) (Item, error) {
	if i < 0 || i >= len(ds.keys) {
		return Item{}, fmt.Errorf("index %d out of range [0, %d)", i, len(ds.keys))
	}
	id := ds.keys[i]
	rt := ds.Runtimes(i)
	lbl, err := label.Encode(ds.opts.Family, rt, ds.opts.Params)
	if err != nil {
		return Item{}, fmt.Errorf("labeling %s: %w", id, err)
	}
	if ds.opts.Family == label.Categorical {
		if c := bestIndex(ds.summaries[id], ds.opts.Algorithms, rt); c >= 0 {
			lbl = label.OneHot(c, len(rt))
		}
	}
	input, err := ds.opts.Transform.Apply(ds.records[i])
	if err != nil {
		return Item{}, fmt.Errorf("transforming %s: %w", id, err)
	}
	return Item{
		ID:       id,
		Input:    input,
		Label:    lbl,
		Weight:   label.Weight(rt, ds.opts.Params),
		Runtimes: rt,
	}, nil
}

// bestIndex picks the fastest of algorithms, breaking runtime ties by the
// order in which the instance's run block first listed each algorithm so
// the class agrees with Summary.Best. It returns -1 when nothing finished.
func bestIndex(s *runs.Summary, algorithms []string, rt []float64) int {
	if s.Best == runs.NoneFinished {
		return -1
	}
	best, bestPos := -1, 0
	for i, a := range algorithms {
		if best >= 0 && rt[i] > rt[best] {
			continue
		}
		pos := slices.Index(s.Order, a)
		if pos < 0 {
			pos = len(s.Order) + i
		}
		if best < 0 || rt[i] < rt[best] || pos < bestPos {
			best, bestPos = i, pos
		}
	}
	return best
}

// Batches splits [0, n) into batches of at most size indices, in an order
// permuted by r, or sequential when r is nil.
func Batches(n, size int, r *rand.Rand) [][]int {
	if size < 1 {
		size = 1
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if r != nil {
		r.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	var out [][]int
	for start := 0; start < n; start += size {
		out = append(out, order[start:min(start+size, n)])
	}
	return out
}

// Load fetches the items at idx in parallel, preserving order.
func Load(ds *Dataset, idx []int, workers int) ([]Item, error) {
	items := make([]Item, len(idx))
	err := runner.ForEach(workers, len(idx), func(i int) error {
		item, err := ds.Get(idx[i])
		if err != nil {
			return err
		}
		items[i] = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
