package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleMetadataSetLabelLengthMismatch(t *testing.T) {
	m := NewSimpleMetadata(3)
	err := m.SetLabel([]float64{1, 2})
	assert.Error(t, err)
}

func TestSimpleMetadataSetLabelEmptyClears(t *testing.T) {
	m := NewSimpleMetadata(3)
	require.NoError(t, m.SetLabel([]float64{1, 2, 3}))
	require.NoError(t, m.SetLabel(nil))
	assert.Empty(t, m.Label())
}

func TestSimpleMetadataResizeGrowsAndTruncates(t *testing.T) {
	m := NewSimpleMetadata(2)
	require.NoError(t, m.SetLabel([]float64{1, 2}))

	require.NoError(t, m.Resize(4))
	assert.Equal(t, 4, m.NumData())
	assert.Equal(t, []float64{1, 2, 0, 0}, m.Label())

	require.NoError(t, m.Resize(1))
	assert.Equal(t, []float64{1}, m.Label())
}

func TestSimpleMetadataCopySubset(t *testing.T) {
	full := NewSimpleMetadata(4)
	require.NoError(t, full.SetLabel([]float64{10, 20, 30, 40}))
	require.NoError(t, full.SetWeight([]float64{1, 2, 3, 4}))

	subset := NewSimpleMetadata(2)
	require.NoError(t, subset.CopySubset(full, []int{3, 1}))

	assert.Equal(t, []float64{40, 20}, subset.Label())
	assert.Equal(t, []float64{4, 2}, subset.Weight())
}
