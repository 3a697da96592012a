package dataset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureGroupCloneDeepCopiesMappers(t *testing.T) {
	mapper := NewSimpleBinMapper([]float64{1.0, 2.0}, 0, 0, 0.3)
	storage := NewDenseBinStorage(3, []int{3})
	group := NewFeatureGroup([]BinMapper{mapper}, storage, false)

	cloned := group.Clone()
	cloned.BinMappers[0].(*SimpleBinMapper).UpperBounds[0] = 99.0
	assert.NotEqual(t, mapper.UpperBounds[0], cloned.BinMappers[0].(*SimpleBinMapper).UpperBounds[0])
	assert.Equal(t, group.NumTotalBin(), cloned.numTotal)
}

func TestFeatureGroupCopySubsetMismatchedSubFeatureCount(t *testing.T) {
	mapper := NewSimpleBinMapper([]float64{1.0}, 0, 0, 0.0)
	full := NewFeatureGroup([]BinMapper{mapper}, NewDenseBinStorage(2, []int{2}), false)
	small := NewFeatureGroup(nil, NewDenseBinStorage(2, nil), false)

	err := small.CopySubset(full, []int{0, 1}, 2)
	assert.Error(t, err)
}

func TestFeatureGroupBinaryRoundTrip(t *testing.T) {
	mapper := NewSimpleBinMapper([]float64{1.0, 2.0}, 1, 0, 0.5)
	storage := NewDenseBinStorage(3, []int{3})
	storage.Push(0, 0, 1)
	storage.Push(1, 0, 2)
	group := NewFeatureGroup([]BinMapper{mapper}, storage, false)

	var buf bytes.Buffer
	require.NoError(t, group.WriteBinary(&buf))

	roundTripped, err := ReadFeatureGroup(&buf, 3)
	require.NoError(t, err)

	assert.Equal(t, group.IsMultiVal, roundTripped.IsMultiVal)
	assert.Equal(t, group.NumTotalBin(), roundTripped.NumTotalBin())

	origIt := group.SubFeatureIterator(0)
	newIt := roundTripped.SubFeatureIterator(0)
	for row := 0; row < 3; row++ {
		assert.Equal(t, origIt.Get(row), newIt.Get(row))
	}
}
