package sorting

import (
	"cmp"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	id    int
	score float64
}

func byScore(r rec) float64 { return r.score }

func TestQuickSortEmptyAndSingle(t *testing.T) {
	assert.Empty(t, QuickSort([]rec{}, byScore))
	assert.Nil(t, QuickSort[rec](nil, byScore))

	one := []rec{{id: 1, score: 3}}
	got := QuickSort(one, byScore)
	assert.Equal(t, one, got)
}

func TestQuickSortIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 40; n++ {
		in := make([]rec, n)
		for i := range in {
			in[i] = rec{id: i, score: float64(rng.Intn(6))}
		}
		orig := slices.Clone(in)

		got := QuickSort(in, byScore)

		require.Len(t, got, n)
		assert.Equal(t, orig, in, "input must not be modified")
		assert.True(t, slices.IsSortedFunc(got, func(a, b rec) int {
			return cmp.Compare(a.score, b.score)
		}))
		ids := make([]int, n)
		for i, r := range got {
			ids[i] = r.id
		}
		slices.Sort(ids)
		for i := range ids {
			assert.Equal(t, i, ids[i])
		}
	}
}

func TestQuickSortSortedInputUnchanged(t *testing.T) {
	in := []rec{{1, 0.5}, {2, 1}, {3, 1}, {4, 2.5}, {5, 4}}
	assert.Equal(t, in, QuickSort(in, byScore))
}

func TestQuickSortKeepsTieOrder(t *testing.T) {
	in := []rec{{1, 2}, {2, 1}, {3, 2}, {4, 1}, {5, 2}}
	got := QuickSort(in, byScore)
	assert.Equal(t, []rec{{2, 1}, {4, 1}, {1, 2}, {3, 2}, {5, 2}}, got)
}

func TestDescendingReversesTies(t *testing.T) {
	in := []rec{{1, 4.5}, {2, 3}, {3, 4.5}, {4, 5}, {5, 3}}
	got := Descending(in, byScore)

	assert.Equal(t, []rec{{4, 5}, {3, 4.5}, {1, 4.5}, {5, 3}, {2, 3}}, got)
}

func TestQuickSortIntKeys(t *testing.T) {
	in := []int{3, -1, 2, 0, -1}
	got := QuickSort(in, func(v int) int { return v })
	assert.Equal(t, []int{-1, -1, 0, 2, 3}, got)
}

func TestQuickSortNonFiniteKeys(t *testing.T) {
	in := []rec{{1, math.Inf(1)}, {2, 1}, {3, math.NaN()}, {4, math.Inf(-1)}, {5, math.NaN()}}
	got := QuickSort(in, byScore)

	require.Len(t, got, 5)
	ids := []int{}
	for _, r := range got {
		ids = append(ids, r.id)
	}
	assert.Equal(t, []int{3, 5, 4, 2, 1}, ids)
}
