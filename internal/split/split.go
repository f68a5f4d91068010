// Package split partitions instance keys for cross-validation.
package split

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var ErrBadFoldCount = errors.New("invalid fold count")

// Fold pairs a validation subset with its complement.
type Fold struct {
	Index int
	Train []string
	Val   []string
}

// KFold shuffles keys with a seeded source and cuts them into k contiguous
// validation ranges. The n%k leftover keys go one each to the first folds,
// so fold sizes differ by at most one.
func KFold(keys []string, k int, seed int64) ([]Fold, error) {
	n := len(keys)
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: %d folds over %d instances", ErrBadFoldCount, k, n)
	}
	shuffled := shuffle(keys, seed)

	base, extra := n/k, n%k
	folds := make([]Fold, k)
	start := 0
	for i := range folds {
		size := base
		if i < extra {
			size++
		}
		end := start + size
		val := append([]string(nil), shuffled[start:end]...)
		train := make([]string, 0, n-size)
		train = append(train, shuffled[:start]...)
		train = append(train, shuffled[end:]...)
		folds[i] = Fold{Index: i, Train: train, Val: val}
		start = end
	}
	return folds, nil
}

// Holdout returns a single train/validation split with the given fraction
// of keys held out for validation.
func Holdout(keys []string, valFraction float64, seed int64) (Fold, error) {
	n := len(keys)
	nVal := int(float64(n) * valFraction)
	if valFraction <= 0 || valFraction >= 1 || nVal == 0 || nVal == n {
		return Fold{}, fmt.Errorf("%w: holdout fraction %.2f over %d instances", ErrBadFoldCount, valFraction, n)
	}
	shuffled := shuffle(keys, seed)
	return Fold{
		Train: append([]string(nil), shuffled[:n-nVal]...),
		Val:   append([]string(nil), shuffled[n-nVal:]...),
	}, nil
}

// shuffle sorts first so the result depends only on the key set and seed.
func shuffle(keys []string, seed int64) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
