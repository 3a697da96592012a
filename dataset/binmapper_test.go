package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleBinMapperValueToBin(t *testing.T) {
	m := NewSimpleBinMapper([]float64{1.0, 2.0, 3.0}, 0, 0, 0.4)
	assert.Equal(t, 4, m.NumBin())
	assert.Equal(t, 0, m.ValueToBin(0.5))
	assert.Equal(t, 1, m.ValueToBin(1.5))
	assert.Equal(t, 2, m.ValueToBin(2.9))
	assert.Equal(t, 3, m.ValueToBin(3.1))
}

func TestSimpleBinMapperTrivial(t *testing.T) {
	trivial := NewSimpleBinMapper(nil, 0, 0, 1.0)
	assert.True(t, trivial.IsTrivial())

	nonTrivial := NewSimpleBinMapper([]float64{1.0}, 0, 0, 0.5)
	assert.False(t, nonTrivial.IsTrivial())
}

func TestSimpleBinMapperCloneIsIndependent(t *testing.T) {
	m := NewSimpleBinMapper([]float64{1.0, 2.0}, 1, 0, 0.7)
	cloned := m.Clone().(*SimpleBinMapper)

	cloned.UpperBounds[0] = 99.0
	assert.NotEqual(t, m.UpperBounds[0], cloned.UpperBounds[0])
	assert.Equal(t, m.Default, cloned.Default)
	assert.Equal(t, m.MostFreq, cloned.MostFreq)
	assert.Equal(t, m.Sparse, cloned.Sparse)
}
