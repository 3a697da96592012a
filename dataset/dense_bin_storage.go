package dataset

import gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"

// DenseBinStorage is the reference BinStorage for single-valued (not
// multi-valued) feature groups: by construction (EFB exclusivity), at
// most one bundled sub-feature is non-default on any given row, so the
// whole row collapses to a single combined bin index. Global bin 0 is
// the shared "no sub-feature active" bin; each sub-feature i owns the
// contiguous range [binOffsets[i], binOffsets[i+1]) for its non-default
// local bins.
type DenseBinStorage struct {
	numRows    int
	binOffsets []int // length len(subFeatureNumBins)+1; [0] == 1
	data       []uint32
}

// NewDenseBinStorage allocates storage for numRows rows across
// sub-features whose bin counts are subFeatureNumBins.
func NewDenseBinStorage(numRows int, subFeatureNumBins []int) *DenseBinStorage {
	offsets := make([]int, len(subFeatureNumBins)+1)
	offsets[0] = 1
	for i, numBin := range subFeatureNumBins {
		width := numBin - 1
		if width < 0 {
			width = 0
		}
		offsets[i+1] = offsets[i] + width
	}
	return &DenseBinStorage{
		numRows:    numRows,
		binOffsets: offsets,
		data:       make([]uint32, numRows),
	}
}

// NumTotalBin returns binOffsets[len(binOffsets)-1], the combined bin
// count for the whole group including the shared zero bin.
func (s *DenseBinStorage) NumTotalBin() int {
	return s.binOffsets[len(s.binOffsets)-1]
}

// Push records that row's value bins to localBin on sub-feature subIdx.
// localBin == 0 (the feature's own default/most-frequent bin) is left
// implicit and simply never written.
func (s *DenseBinStorage) Push(row, subIdx, localBin int) {
	if localBin == 0 {
		return
	}
	s.data[row] = uint32(s.binOffsets[subIdx] + localBin - 1)
}

func (s *DenseBinStorage) FinishLoad() error {
	return nil
}

func (s *DenseBinStorage) Resize(nRows int) error {
	if nRows <= s.numRows {
		s.data = s.data[:nRows]
	} else {
		grown := make([]uint32, nRows)
		copy(grown, s.data)
		s.data = grown
	}
	s.numRows = nRows
	return nil
}

func (s *DenseBinStorage) CopySubset(source BinStorage, indices []int, n int) error {
	src, ok := source.(*DenseBinStorage)
	if !ok {
		return gbterrors.NewContractViolation("DenseBinStorage.CopySubset", "source is not a *DenseBinStorage")
	}
	if n != len(indices) {
		return gbterrors.NewContractViolation("DenseBinStorage.CopySubset", "n=%d does not match len(indices)=%d", n, len(indices))
	}
	if n != s.numRows {
		return gbterrors.NewContractViolation("DenseBinStorage.CopySubset", "n=%d does not match receiver num_data=%d", n, s.numRows)
	}
	for i, row := range indices {
		s.data[i] = src.data[row]
	}
	return nil
}

// denseSubFeatureIterator adapts one sub-feature's combined bin range
// into the BinIterator contract.
type denseSubFeatureIterator struct {
	storage *DenseBinStorage
	lo, hi  int
}

func (it *denseSubFeatureIterator) Get(row int) int {
	g := int(it.storage.data[row])
	if g == 0 {
		return 0
	}
	if g >= it.lo && g < it.hi {
		return g - it.lo + 1
	}
	return 0
}

func (s *DenseBinStorage) SubFeatureIterator(subIdx int) BinIterator {
	return &denseSubFeatureIterator{storage: s, lo: s.binOffsets[subIdx], hi: s.binOffsets[subIdx+1]}
}

func (s *DenseBinStorage) ConstructHistogram(start, end int, gradients, hessians []float64, out []float64) {
	for row := start; row < end; row++ {
		g := int(s.data[row])
		out[2*g] += gradients[row]
		if hessians != nil {
			out[2*g+1] += hessians[row]
		} else {
			out[2*g+1] += 1.0
		}
	}
}

func (s *DenseBinStorage) ConstructHistogramByIndices(indices []int, start, end int, gradients, hessians []float64, out []float64) {
	for pos := start; pos < end; pos++ {
		row := indices[pos]
		g := int(s.data[row])
		out[2*g] += gradients[pos]
		if hessians != nil {
			out[2*g+1] += hessians[pos]
		} else {
			out[2*g+1] += 1.0
		}
	}
}
