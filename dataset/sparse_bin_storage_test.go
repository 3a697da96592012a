package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseBinStorageStoresMostFrequentBinZero(t *testing.T) {
	s := NewSparseBinStorage(4, []int{3}, []int{0})
	s.Push(0, 0, 0) // most frequent bin is 0, so it is stored explicitly
	s.Push(1, 0, 1)
	s.Push(2, 0, 2)
	s.Push(3, 0, 0)
	require.NoError(t, s.FinishLoad())

	it := s.SubFeatureIterator(0)
	assert.Equal(t, 0, it.Get(0))
	assert.Equal(t, 1, it.Get(1))
	assert.Equal(t, 2, it.Get(2))
	assert.Equal(t, 0, it.Get(3))
}

func TestSparseBinStorageConstructHistogramNeedsFixup(t *testing.T) {
	// Most-frequent bin is 1, not 0, to exercise the general case.
	s := NewSparseBinStorage(3, []int{3}, []int{1})
	s.Push(0, 0, 1) // most frequent, omitted from storage
	s.Push(1, 0, 0)
	s.Push(2, 0, 2)
	require.NoError(t, s.FinishLoad())

	gradients := []float64{1.0, 2.0, 3.0}
	out := make([]float64, 2*s.NumTotalBin())
	s.ConstructHistogram(0, 3, gradients, nil, out)

	// bin 1 (most frequent) never accumulated directly.
	assert.Equal(t, 0.0, out[2])
	assert.Equal(t, 0.0, out[3])
	assert.Equal(t, 2.0, out[0]) // row 1's gradient, bin 0
	assert.Equal(t, 3.0, out[4]) // row 2's gradient, bin 2

	FixHistogram(out, 1, 6.0, 3.0)
	assert.InDelta(t, 1.0, out[2], 1e-9)
	assert.InDelta(t, 1.0, out[3], 1e-9)
}

func TestSparseBinStorageCopySubset(t *testing.T) {
	full := NewSparseBinStorage(4, []int{3}, []int{0})
	full.Push(0, 0, 1)
	full.Push(1, 0, 2)
	full.Push(2, 0, 0)
	full.Push(3, 0, 1)
	require.NoError(t, full.FinishLoad())

	subset := NewSparseBinStorage(2, []int{3}, []int{0})
	require.NoError(t, subset.CopySubset(full, []int{1, 3}, 2))
	require.NoError(t, subset.FinishLoad())

	it := subset.SubFeatureIterator(0)
	assert.Equal(t, 2, it.Get(0))
	assert.Equal(t, 1, it.Get(1))
}
