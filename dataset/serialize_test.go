package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func buildRoundTripDataset(t *testing.T) *Dataset {
	t.Helper()
	numRows := 4
	samples := mat.NewDense(numRows, 2, []float64{1, 3, 2, 4, 1, 3, 2, 4})
	mappers := []BinMapper{buildTestMapper([]float64{1.5}), buildTestMapper([]float64{3.5})}

	d, err := Construct(samples, mappers, numRows, &Config{MaxBin: 255})
	require.NoError(t, err)
	for row := 0; row < numRows; row++ {
		for inner := 0; inner < d.NumFeatures; inner++ {
			realCol := int(d.RealFeatureIdx[inner])
			require.NoError(t, d.PushValue(row, inner, samples.At(row, realCol)))
		}
	}
	require.NoError(t, d.FinishLoad())
	_, err = d.SetField("label", []float64{0, 1, 0, 1})
	require.NoError(t, err)
	return d
}

func TestWriteBinaryReadBinaryRoundTrip(t *testing.T) {
	d := buildRoundTripDataset(t)

	var buf bytes.Buffer
	require.NoError(t, d.WriteBinary(&buf))

	got, err := ReadBinary(&buf)
	require.NoError(t, err)

	assert.Equal(t, d.NumData, got.NumData)
	assert.Equal(t, d.NumFeatures, got.NumFeatures)
	assert.Equal(t, d.NumTotalFeatures, got.NumTotalFeatures)
	assert.Equal(t, d.Feature2Group, got.Feature2Group)
	assert.Equal(t, d.Feature2SubFeature, got.Feature2SubFeature)
	assert.Equal(t, d.GroupBinBoundaries, got.GroupBinBoundaries)
	assert.True(t, got.IsFinishLoad())
	assert.Equal(t, []float64{0, 1, 0, 1}, got.Meta.Label())
}

func TestReadBinaryRejectsMissingToken(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("not a dataset file at all.................")

	_, err := ReadBinary(&buf)
	assert.Error(t, err)
}

func TestReadBinaryRecompactsDefaultVectors(t *testing.T) {
	d := buildRoundTripDataset(t)
	// Left at their zero values, MonotoneTypes/FeaturePenalty/MaxBinByFeature
	// are nil going in; WriteBinary fills in the defaults on the wire and
	// ReadBinary must recompact them back to nil rather than materializing
	// the filled-in defaults.
	assert.Nil(t, d.MonotoneTypes)
	assert.Nil(t, d.FeaturePenalty)
	assert.Nil(t, d.MaxBinByFeature)

	var buf bytes.Buffer
	require.NoError(t, d.WriteBinary(&buf))

	got, err := ReadBinary(&buf)
	require.NoError(t, err)

	assert.Nil(t, got.MonotoneTypes)
	assert.Nil(t, got.FeaturePenalty)
	assert.Nil(t, got.MaxBinByFeature)
}

func TestSaveBinaryWarnsInsteadOfOverwriting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.bin")
	require.NoError(t, os.WriteFile(path, []byte("already here"), 0o644))

	d := buildRoundTripDataset(t)
	err := d.SaveBinary(path)
	require.NoError(t, err)

	contents, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "already here", string(contents))
}

func TestSaveBinaryLoadBinaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.bin")

	d := buildRoundTripDataset(t)
	require.NoError(t, d.SaveBinary(path))

	got, err := LoadBinary(path)
	require.NoError(t, err)
	assert.Equal(t, d.NumData, got.NumData)
	assert.Equal(t, d.NumFeatures, got.NumFeatures)
}
