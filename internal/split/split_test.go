package split_test

import (
	"fmt"
	"testing"

	"github.com/signalnine/tspselect/internal/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("inst-%03d", i)
	}
	return out
}

func TestKFoldHundredByFive(t *testing.T) {
	folds, err := split.KFold(keys(100), 5, 7)
	require.NoError(t, err)
	require.Len(t, folds, 5)
	for _, f := range folds {
		assert.Len(t, f.Val, 20)
		assert.Len(t, f.Train, 80)
		val := map[string]bool{}
		for _, k := range f.Val {
			val[k] = true
		}
		for _, k := range f.Train {
			assert.False(t, val[k], "fold %d leaks %s", f.Index, k)
		}
	}
}

func TestKFoldPartitionInvariants(t *testing.T) {
	for _, n := range []int{2, 13, 17, 50, 101} {
		for _, k := range []int{2, 3, 5, 10} {
			if k > n {
				continue
			}
			all := keys(n)
			folds, err := split.KFold(all, k, int64(n*k))
			require.NoError(t, err)

			seen := map[string]int{}
			minSize, maxSize := n, 0
			for _, f := range folds {
				minSize = min(minSize, len(f.Val))
				maxSize = max(maxSize, len(f.Val))
				assert.Equal(t, n, len(f.Train)+len(f.Val))
				for _, key := range f.Val {
					seen[key]++
				}
			}
			assert.LessOrEqual(t, maxSize-minSize, 1, "n=%d k=%d", n, k)
			require.Len(t, seen, n)
			for key, c := range seen {
				assert.Equal(t, 1, c, "key %s validated %d times", key, c)
			}
		}
	}
}

func TestKFoldReproducible(t *testing.T) {
	a, err := split.KFold(keys(30), 3, 42)
	require.NoError(t, err)
	shuffledInput := keys(30)
	shuffledInput[0], shuffledInput[29] = shuffledInput[29], shuffledInput[0]
	b, err := split.KFold(shuffledInput, 3, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := split.KFold(keys(30), 3, 43)
	require.NoError(t, err)
	assert.NotEqual(t, a[0].Val, c[0].Val)
}

func TestKFoldBadCount(t *testing.T) {
	_, err := split.KFold(keys(3), 1, 0)
	assert.ErrorIs(t, err, split.ErrBadFoldCount)
	_, err = split.KFold(keys(3), 4, 0)
	assert.ErrorIs(t, err, split.ErrBadFoldCount)
}

func TestHoldout(t *testing.T) {
	f, err := split.Holdout(keys(40), 0.25, 1)
	require.NoError(t, err)
	assert.Len(t, f.Val, 10)
	assert.Len(t, f.Train, 30)
	assert.NotContains(t, f.Train, f.Val[0])

	_, err = split.Holdout(keys(3), 0.1, 1)
	assert.ErrorIs(t, err, split.ErrBadFoldCount)
}
