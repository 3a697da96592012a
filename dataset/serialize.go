package dataset

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"
)

// binaryFileToken is the fixed ASCII preamble every binary dataset file
// begins with, used to reject non-dataset files early.
const binaryFileToken = "______LightGBM_Binary_File_Token______\n"

// SaveBinary writes d to path in the bit-exact little-endian format
// described by the external binary interface. If path already exists,
// SaveBinary reports a Warning (not a ContractViolation) and does
// nothing, per spec §7.
func (d *Dataset) SaveBinary(path string) error {
	if _, err := os.Stat(path); err == nil {
		gbterrors.Warn(gbterrors.NewWarning("Dataset.SaveBinary", "%s already exists, not overwriting", path))
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := d.WriteBinary(w); err != nil {
		return err
	}
	return w.Flush()
}

// WriteBinary writes d to w in the format described by the external
// binary interface, buffering the header and index arrays so their
// total size can be recorded before the metadata and group payloads.
func (d *Dataset) WriteBinary(w io.Writer) error {
	if _, err := io.WriteString(w, binaryFileToken); err != nil {
		return err
	}

	header := &bytes.Buffer{}
	if err := writeHeader(header, d); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(header.Len())); err != nil {
		return err
	}
	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}

	if d.Meta == nil {
		d.Meta = NewSimpleMetadata(d.NumData)
	}
	metaBuf := &bytes.Buffer{}
	if err := writeMetadata(metaBuf, d.Meta); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(metaBuf.Len())); err != nil {
		return err
	}
	if _, err := w.Write(metaBuf.Bytes()); err != nil {
		return err
	}

	for _, group := range d.FeatureGroups {
		groupBuf := &bytes.Buffer{}
		if err := group.WriteBinary(groupBuf); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(groupBuf.Len())); err != nil {
			return err
		}
		if _, err := w.Write(groupBuf.Bytes()); err != nil {
			return err
		}
	}

	return nil
}

func writeHeader(w io.Writer, d *Dataset) error {
	fields := []int32{
		int32(d.NumData),
		int32(d.NumFeatures),
		int32(d.NumTotalFeatures),
		d.LabelIdx,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}

	maxBin, sampleCnt, minDataInBin := int32(0), int32(0), int32(0)
	useMissing, zeroAsMissing := false, false
	if d.Config != nil {
		maxBin = int32(d.Config.MaxBin)
		sampleCnt = int32(d.Config.BinConstructSampleCnt)
		minDataInBin = int32(d.Config.MinDataInBin)
		useMissing = d.Config.UseMissing
		zeroAsMissing = d.Config.ZeroAsMissing
	}
	for _, f := range []int32{maxBin, sampleCnt, minDataInBin} {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, useMissing); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, zeroAsMissing); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, d.UsedFeatureMap); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(d.FeatureGroups))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, d.RealFeatureIdx); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, d.Feature2Group); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, d.Feature2SubFeature); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, d.GroupBinBoundaries); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, d.GroupFeatureStart); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, d.GroupFeatureCnt); err != nil {
		return err
	}

	monotone := d.MonotoneTypes
	if len(monotone) == 0 {
		monotone = fillInt8(d.NumFeatures, 0)
	}
	if err := binary.Write(w, binary.LittleEndian, monotone); err != nil {
		return err
	}

	penalty := d.FeaturePenalty
	if len(penalty) == 0 {
		penalty = fillFloat64(d.NumFeatures, 1.0)
	}
	if err := binary.Write(w, binary.LittleEndian, penalty); err != nil {
		return err
	}

	maxBinByFeature := d.MaxBinByFeature
	if len(maxBinByFeature) == 0 {
		maxBinByFeature = fillInt32(d.NumTotalFeatures, -1)
	}
	if err := binary.Write(w, binary.LittleEndian, maxBinByFeature); err != nil {
		return err
	}

	for i := 0; i < d.NumTotalFeatures; i++ {
		name := ""
		if i < len(d.FeatureNames) {
			name = d.FeatureNames[i]
		}
		if err := binary.Write(w, binary.LittleEndian, int32(len(name))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, name); err != nil {
			return err
		}
	}

	for i := 0; i < d.NumTotalFeatures; i++ {
		var bounds []float64
		if i < len(d.ForcedBinBounds) {
			bounds = d.ForcedBinBounds[i]
		}
		if err := binary.Write(w, binary.LittleEndian, int32(len(bounds))); err != nil {
			return err
		}
		if len(bounds) > 0 {
			if err := binary.Write(w, binary.LittleEndian, bounds); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeMetadata(w io.Writer, meta Metadata) error {
	writeFloat64Field := func(v []float64) error {
		if err := binary.Write(w, binary.LittleEndian, int32(len(v))); err != nil {
			return err
		}
		if len(v) > 0 {
			return binary.Write(w, binary.LittleEndian, v)
		}
		return nil
	}
	if err := writeFloat64Field(meta.Label()); err != nil {
		return err
	}
	if err := writeFloat64Field(meta.Weight()); err != nil {
		return err
	}
	if err := writeFloat64Field(meta.InitScore()); err != nil {
		return err
	}
	query := meta.Query()
	if err := binary.Write(w, binary.LittleEndian, int32(len(query))); err != nil {
		return err
	}
	if len(query) > 0 {
		return binary.Write(w, binary.LittleEndian, query)
	}
	return nil
}

// LoadBinary reads a Dataset previously written by SaveBinary/WriteBinary.
func LoadBinary(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBinary(bufio.NewReader(f))
}

// ReadBinary reads a Dataset from r in the format WriteBinary produces,
// recompacting default vectors (all-zero monotone, all-1.0 penalty,
// all--1 max-bin-by-feature) back to empty.
func ReadBinary(r io.Reader) (*Dataset, error) {
	token := make([]byte, len(binaryFileToken))
	if _, err := io.ReadFull(r, token); err != nil {
		return nil, err
	}
	if string(token) != binaryFileToken {
		return nil, gbterrors.NewContractViolation("Dataset.ReadBinary", "missing binary file token")
	}

	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, err
	}
	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, err
	}
	d, err := readHeader(bytes.NewReader(headerBytes))
	if err != nil {
		return nil, err
	}

	var metaSize uint64
	if err := binary.Read(r, binary.LittleEndian, &metaSize); err != nil {
		return nil, err
	}
	metaBytes := make([]byte, metaSize)
	if _, err := io.ReadFull(r, metaBytes); err != nil {
		return nil, err
	}
	meta, err := readMetadata(bytes.NewReader(metaBytes), d.NumData)
	if err != nil {
		return nil, err
	}
	d.Meta = meta

	d.FeatureGroups = make([]*FeatureGroup, len(d.GroupFeatureCnt))
	for g := range d.FeatureGroups {
		var groupSize uint64
		if err := binary.Read(r, binary.LittleEndian, &groupSize); err != nil {
			return nil, err
		}
		groupBytes := make([]byte, groupSize)
		if _, err := io.ReadFull(r, groupBytes); err != nil {
			return nil, err
		}
		group, err := ReadFeatureGroup(bytes.NewReader(groupBytes), d.NumData)
		if err != nil {
			return nil, err
		}
		d.FeatureGroups[g] = group
	}

	for inner := 0; inner < d.NumFeatures; inner++ {
		g := d.FeatureGroups[d.Feature2Group[inner]]
		sub := int(d.Feature2SubFeature[inner])
		mapper := g.BinMappers[sub]
		if mapper.DefaultBin() != mapper.MostFreqBin() {
			d.FeatureNeedPushZeros = append(d.FeatureNeedPushZeros, int32(inner))
		}
	}

	d.isFinishLoad = true
	return d, nil
}

func readHeader(r io.Reader) (*Dataset, error) {
	var numData, numFeatures, numTotalFeatures, labelIdx int32
	for _, dst := range []*int32{&numData, &numFeatures, &numTotalFeatures, &labelIdx} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, err
		}
	}

	d := newDataset(int(numData), int(numTotalFeatures))
	d.NumFeatures = int(numFeatures)
	d.LabelIdx = labelIdx

	cfg := &Config{}
	var maxBin, sampleCnt, minDataInBin int32
	for _, dst := range []*int32{&maxBin, &sampleCnt, &minDataInBin} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, err
		}
	}
	cfg.MaxBin = int(maxBin)
	cfg.BinConstructSampleCnt = int(sampleCnt)
	cfg.MinDataInBin = int(minDataInBin)
	if err := binary.Read(r, binary.LittleEndian, &cfg.UseMissing); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &cfg.ZeroAsMissing); err != nil {
		return nil, err
	}
	d.Config = cfg

	d.UsedFeatureMap = make([]int32, numTotalFeatures)
	if err := binary.Read(r, binary.LittleEndian, d.UsedFeatureMap); err != nil {
		return nil, err
	}

	var numGroups int32
	if err := binary.Read(r, binary.LittleEndian, &numGroups); err != nil {
		return nil, err
	}

	d.RealFeatureIdx = make([]int32, numFeatures)
	if err := binary.Read(r, binary.LittleEndian, d.RealFeatureIdx); err != nil {
		return nil, err
	}
	d.Feature2Group = make([]int32, numFeatures)
	if err := binary.Read(r, binary.LittleEndian, d.Feature2Group); err != nil {
		return nil, err
	}
	d.Feature2SubFeature = make([]int32, numFeatures)
	if err := binary.Read(r, binary.LittleEndian, d.Feature2SubFeature); err != nil {
		return nil, err
	}

	d.GroupBinBoundaries = make([]uint64, numGroups+1)
	if err := binary.Read(r, binary.LittleEndian, d.GroupBinBoundaries); err != nil {
		return nil, err
	}
	d.GroupFeatureStart = make([]int32, numGroups)
	if err := binary.Read(r, binary.LittleEndian, d.GroupFeatureStart); err != nil {
		return nil, err
	}
	d.GroupFeatureCnt = make([]int32, numGroups)
	if err := binary.Read(r, binary.LittleEndian, d.GroupFeatureCnt); err != nil {
		return nil, err
	}

	monotone := make([]int8, numFeatures)
	if err := binary.Read(r, binary.LittleEndian, monotone); err != nil {
		return nil, err
	}
	if !allInt8Zero(monotone) {
		d.MonotoneTypes = monotone
	}

	penalty := make([]float64, numFeatures)
	if err := binary.Read(r, binary.LittleEndian, penalty); err != nil {
		return nil, err
	}
	if !allFloat64Equal(penalty, 1.0) {
		d.FeaturePenalty = penalty
	}

	maxBinByFeature := make([]int32, numTotalFeatures)
	if err := binary.Read(r, binary.LittleEndian, maxBinByFeature); err != nil {
		return nil, err
	}
	if !allInt32Equal(maxBinByFeature, -1) {
		d.MaxBinByFeature = maxBinByFeature
	}

	d.FeatureNames = make([]string, numTotalFeatures)
	for i := range d.FeatureNames {
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		d.FeatureNames[i] = string(buf)
	}

	d.ForcedBinBounds = make([][]float64, numTotalFeatures)
	for i := range d.ForcedBinBounds {
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		if n > 0 {
			bounds := make([]float64, n)
			if err := binary.Read(r, binary.LittleEndian, bounds); err != nil {
				return nil, err
			}
			d.ForcedBinBounds[i] = bounds
		}
	}

	return d, nil
}

func allInt32Equal(v []int32, target int32) bool {
	if len(v) == 0 {
		return false
	}
	for _, x := range v {
		if x != target {
			return false
		}
	}
	return true
}

func readMetadata(r io.Reader, numData int) (Metadata, error) {
	meta := NewSimpleMetadata(numData)
	readFloat64Field := func() ([]float64, error) {
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
		v := make([]float64, n)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	label, err := readFloat64Field()
	if err != nil {
		return nil, err
	}
	if err := meta.SetLabel(label); err != nil {
		return nil, err
	}
	weight, err := readFloat64Field()
	if err != nil {
		return nil, err
	}
	if err := meta.SetWeight(weight); err != nil {
		return nil, err
	}
	initScore, err := readFloat64Field()
	if err != nil {
		return nil, err
	}
	if err := meta.SetInitScore(initScore); err != nil {
		return nil, err
	}

	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > 0 {
		query := make([]int32, n)
		if err := binary.Read(r, binary.LittleEndian, query); err != nil {
			return nil, err
		}
		if err := meta.SetQuery(query); err != nil {
			return nil, err
		}
	}

	return meta, nil
}
