package dataset

import (
	"encoding/binary"
	"io"

	gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"
)

// FeatureGroup owns one or more bundled BinMappers, in the order they
// were bundled into the group, plus the BinStorage holding their binned
// values. NumTotalBin is whatever the storage reports: for a multi-valued
// group (SparseBinStorage) the sum of per-sub-feature bin counts; for a
// single-valued group (DenseBinStorage) one shared "no sub-feature
// active" bin plus NumBin()-1 bins per sub-feature.
type FeatureGroup struct {
	BinMappers []BinMapper
	Storage    BinStorage
	IsMultiVal bool
	numTotal   int
}

// NewFeatureGroup assembles a group from its bin mappers, in bundling
// order, and a storage backend already sized for the group's rows.
func NewFeatureGroup(mappers []BinMapper, storage BinStorage, isMultiVal bool) *FeatureGroup {
	return &FeatureGroup{
		BinMappers: mappers,
		Storage:    storage,
		IsMultiVal: isMultiVal,
		numTotal:   storage.NumTotalBin(),
	}
}

// NumSubFeatures returns how many bundled features this group holds.
func (g *FeatureGroup) NumSubFeatures() int {
	return len(g.BinMappers)
}

// NumTotalBin returns the group's combined bin count, matching
// g.Storage.NumTotalBin().
func (g *FeatureGroup) NumTotalBin() int {
	return g.numTotal
}

// SubFeatureIterator returns a row-indexed bin accessor for one bundled
// sub-feature.
func (g *FeatureGroup) SubFeatureIterator(subIdx int) BinIterator {
	return g.Storage.SubFeatureIterator(subIdx)
}

// CopySubset selects n rows of full by indices into g, which must
// already own storage sized for n rows.
func (g *FeatureGroup) CopySubset(full *FeatureGroup, indices []int, n int) error {
	if len(g.BinMappers) != len(full.BinMappers) {
		return gbterrors.NewContractViolation("FeatureGroup.CopySubset", "sub-feature count mismatch: %d vs %d", len(g.BinMappers), len(full.BinMappers))
	}
	return g.Storage.CopySubset(full.Storage, indices, n)
}

// Clone deep-copies the bin mappers; the storage is left for the caller
// to reconstruct (storage cloning is a construction-time concern handled
// by Dataset.CopyFeatureMapperFrom, not by FeatureGroup itself).
func (g *FeatureGroup) Clone() *FeatureGroup {
	mappers := make([]BinMapper, len(g.BinMappers))
	for i, m := range g.BinMappers {
		mappers[i] = m.Clone()
	}
	return &FeatureGroup{
		BinMappers: mappers,
		IsMultiVal: g.IsMultiVal,
		numTotal:   g.numTotal,
	}
}

// binaryBinMapper is implemented by BinMapper backends this package
// knows how to serialize. Callers that supply their own BinMapper
// implementation must implement it too, or SaveBinary fails with a
// ContractViolation rather than silently dropping data.
type binaryBinMapper interface {
	writeBinary(w io.Writer) error
}

func (m *SimpleBinMapper) writeBinary(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(m.UpperBounds))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.UpperBounds); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(m.Default)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(m.MostFreq)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.Sparse)
}

func readSimpleBinMapper(r io.Reader) (*SimpleBinMapper, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	bounds := make([]float64, n)
	if n > 0 {
		if err := binary.Read(r, binary.LittleEndian, bounds); err != nil {
			return nil, err
		}
	}
	var defaultBin, mostFreq int32
	var sparse float64
	if err := binary.Read(r, binary.LittleEndian, &defaultBin); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &mostFreq); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &sparse); err != nil {
		return nil, err
	}
	return NewSimpleBinMapper(bounds, int(defaultBin), int(mostFreq), sparse), nil
}

// WriteBinary serializes the group: is_multi_val, sub-feature count,
// each bin mapper, then the storage payload.
func (g *FeatureGroup) WriteBinary(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, g.IsMultiVal); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(g.BinMappers))); err != nil {
		return err
	}
	for _, mapper := range g.BinMappers {
		bm, ok := mapper.(binaryBinMapper)
		if !ok {
			return gbterrors.NewContractViolation("FeatureGroup.WriteBinary", "BinMapper %T does not support binary serialization", mapper)
		}
		if err := bm.writeBinary(w); err != nil {
			return err
		}
	}
	return writeBinStorage(w, g.Storage)
}

// ReadFeatureGroup deserializes a group written by WriteBinary. The
// reconstructed storage is sized from the row count recorded in the
// payload; numRows is passed through to readBinStorage, which does not
// use it.
func ReadFeatureGroup(r io.Reader, numRows int) (*FeatureGroup, error) {
	var isMultiVal bool
	if err := binary.Read(r, binary.LittleEndian, &isMultiVal); err != nil {
		return nil, err
	}
	var numSub int32
	if err := binary.Read(r, binary.LittleEndian, &numSub); err != nil {
		return nil, err
	}
	mappers := make([]BinMapper, numSub)
	for i := range mappers {
		m, err := readSimpleBinMapper(r)
		if err != nil {
			return nil, err
		}
		mappers[i] = m
	}
	storage, err := readBinStorage(r, numRows, mappers, isMultiVal)
	if err != nil {
		return nil, err
	}
	return NewFeatureGroup(mappers, storage, isMultiVal), nil
}
