package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func buildTestMapper(upperBounds []float64) *SimpleBinMapper {
	return NewSimpleBinMapper(upperBounds, 0, 0, 0.0)
}

func TestConstructFiltersTrivialFeatures(t *testing.T) {
	numRows := 6
	data := []float64{
		0, 1,
		0, 2,
		0, 1,
		0, 2,
		0, 1,
		0, 2,
	}
	samples := mat.NewDense(numRows, 2, data)
	mappers := []BinMapper{
		buildTestMapper(nil),        // trivial: constant column
		buildTestMapper([]float64{1.5}),
	}

	d, err := Construct(samples, mappers, numRows, &Config{})
	require.NoError(t, err)

	assert.Equal(t, 1, d.NumFeatures)
	assert.Equal(t, 2, d.NumTotalFeatures)
	assert.Equal(t, int32(-1), d.UsedFeatureMap[0])
	assert.Equal(t, int32(0), d.UsedFeatureMap[1])
	assert.Equal(t, int32(1), d.RealFeatureIdx[0])
	assert.Len(t, d.FeatureGroups, 1)
}

func TestConstructNoUsableFeaturesWarns(t *testing.T) {
	samples := mat.NewDense(3, 1, []float64{0, 0, 0})
	mappers := []BinMapper{buildTestMapper(nil)}

	d, err := Construct(samples, mappers, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, d.NumFeatures)
	assert.Empty(t, d.FeatureGroups)
}

func TestConstructRejectsInvalidMaxBinByFeature(t *testing.T) {
	samples := mat.NewDense(3, 1, []float64{1, 2, 1})
	mappers := []BinMapper{buildTestMapper([]float64{1.5})}

	_, err := Construct(samples, mappers, 3, &Config{MaxBinByFeature: []int32{1}})
	assert.Error(t, err)
}

func TestConstructKeepsValidMaxBinByFeature(t *testing.T) {
	samples := mat.NewDense(3, 1, []float64{1, 2, 1})
	mappers := []BinMapper{buildTestMapper([]float64{1.5})}

	d, err := Construct(samples, mappers, 3, &Config{MaxBinByFeature: []int32{63}})
	require.NoError(t, err)
	assert.Equal(t, []int32{63}, d.MaxBinByFeature)
}

func TestConstructCompactsAllUnconstrainedMaxBinByFeature(t *testing.T) {
	samples := mat.NewDense(3, 1, []float64{1, 2, 1})
	mappers := []BinMapper{buildTestMapper([]float64{1.5})}

	d, err := Construct(samples, mappers, 3, &Config{MaxBinByFeature: []int32{-1}})
	require.NoError(t, err)
	assert.Nil(t, d.MaxBinByFeature)
}

func TestDatasetFinishLoadAndReSize(t *testing.T) {
	numRows := 4
	samples := mat.NewDense(numRows, 1, []float64{1, 2, 1, 2})
	mappers := []BinMapper{buildTestMapper([]float64{1.5})}

	d, err := Construct(samples, mappers, numRows, &Config{})
	require.NoError(t, err)

	for row := 0; row < numRows; row++ {
		require.NoError(t, d.PushValue(row, 0, samples.At(row, 0)))
	}
	require.NoError(t, d.FinishLoad())
	assert.True(t, d.IsFinishLoad())

	require.NoError(t, d.ReSize(6))
	assert.Equal(t, 6, d.NumData)
	assert.Equal(t, 6, d.Meta.NumData())
}

func TestDatasetResetConfigWarnsOnImmutableChangeButAppliesMonotone(t *testing.T) {
	numRows := 3
	samples := mat.NewDense(numRows, 1, []float64{1, 2, 1})
	mappers := []BinMapper{buildTestMapper([]float64{1.5})}

	d, err := Construct(samples, mappers, numRows, &Config{MaxBin: 255})
	require.NoError(t, err)

	err = d.ResetConfig(&Config{MaxBin: 63, MonotoneConstraints: []int8{1}})
	require.NoError(t, err)
	assert.Equal(t, []int8{1}, d.MonotoneTypes)
}

func TestDatasetResetConfigCompactsAllZeroMonotone(t *testing.T) {
	d := newDataset(3, 1)
	d.NumFeatures = 1
	d.Config = &Config{}

	require.NoError(t, d.ResetConfig(&Config{MonotoneConstraints: []int8{0}}))
	assert.Nil(t, d.MonotoneTypes)
}

func TestDatasetCopySubsetRequiresMatchingRowCount(t *testing.T) {
	numRows := 4
	samples := mat.NewDense(numRows, 1, []float64{1, 2, 1, 2})
	mappers := []BinMapper{buildTestMapper([]float64{1.5})}

	full, err := Construct(samples, mappers, numRows, &Config{})
	require.NoError(t, err)
	for row := 0; row < numRows; row++ {
		require.NoError(t, full.PushValue(row, 0, samples.At(row, 0)))
	}
	require.NoError(t, full.FinishLoad())

	subset := newDataset(2, 1)
	require.NoError(t, subset.CopyFeatureMapperFrom(full))

	err = subset.CopySubset(full, []int{0, 1, 2}, 3, false)
	assert.Error(t, err)
}

func TestDatasetAddFeaturesFromConcatenatesColumns(t *testing.T) {
	numRows := 3
	samplesA := mat.NewDense(numRows, 1, []float64{1, 2, 1})
	a, err := Construct(samplesA, []BinMapper{buildTestMapper([]float64{1.5})}, numRows, &Config{})
	require.NoError(t, err)

	samplesB := mat.NewDense(numRows, 1, []float64{3, 4, 3})
	b, err := Construct(samplesB, []BinMapper{buildTestMapper([]float64{3.5})}, numRows, &Config{})
	require.NoError(t, err)

	require.NoError(t, a.AddFeaturesFrom(b))

	assert.Equal(t, 2, a.NumFeatures)
	assert.Equal(t, 2, a.NumTotalFeatures)
	assert.Len(t, a.FeatureGroups, 2)
	assert.Equal(t, int32(1), a.UsedFeatureMap[1])
}

func TestCreateValidOneFeaturePerGroup(t *testing.T) {
	numRows := 4
	samples := mat.NewDense(numRows, 2, []float64{1, 3, 2, 4, 1, 3, 2, 4})
	mappers := []BinMapper{buildTestMapper([]float64{1.5}), buildTestMapper([]float64{3.5})}

	full, err := Construct(samples, mappers, numRows, &Config{})
	require.NoError(t, err)

	valid, err := CreateValid(full, numRows)
	require.NoError(t, err)

	assert.Equal(t, full.NumFeatures, valid.NumFeatures)
	assert.Len(t, valid.FeatureGroups, full.NumFeatures)
	for g := range valid.FeatureGroups {
		assert.Equal(t, 1, valid.FeatureGroups[g].NumSubFeatures())
	}
}

func TestDatasetFieldAccessorsRoundTrip(t *testing.T) {
	d := newDataset(3, 1)
	d.NumFeatures = 1
	d.Meta = NewSimpleMetadata(3)

	ok, err := d.SetField("label", []float64{1, 2, 3})
	require.True(t, ok)
	require.NoError(t, err)

	got, ok := d.GetField("target")
	assert.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, got)

	ok, _ = d.SetField("not_a_real_field", []float64{1})
	assert.False(t, ok)

	_, ok = d.GetField("not_a_real_field")
	assert.False(t, ok)
}
