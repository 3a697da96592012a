package dataset

import (
	"sort"

	gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"
)

// sparseCell is one (row, local bin) observation for a sub-feature,
// stored unless the local bin equals that sub-feature's nonzero
// most-frequent bin.
type sparseCell struct {
	row int32
	bin uint16
}

// SparseBinStorage is the reference BinStorage for multi-valued feature
// groups: more than one bundled sub-feature may be non-default on the
// same row, so each sub-feature keeps its own independent local bin
// space. A sub-feature's most-frequent local bin is never written during
// construction when it is nonzero (a most-frequent bin 0 is stored like
// any other bin); HistogramBuilder's FixHistogram pass repairs the
// omitted bin afterwards.
type SparseBinStorage struct {
	numRows         int
	binOffsets      []int // length len(mostFreqBin)+1
	mostFreqBin     []int // per sub-feature, in local bin space
	entries         [][]sparseCell
	entriesUnsorted []bool
}

// NewSparseBinStorage allocates storage for numRows rows across
// sub-features with the given per-sub-feature bin counts and
// most-frequent bin indices (in each sub-feature's own local space).
func NewSparseBinStorage(numRows int, subFeatureNumBins, subFeatureMostFreqBin []int) *SparseBinStorage {
	offsets := make([]int, len(subFeatureNumBins)+1)
	for i, numBin := range subFeatureNumBins {
		offsets[i+1] = offsets[i] + numBin
	}
	return &SparseBinStorage{
		numRows:     numRows,
		binOffsets:  offsets,
		mostFreqBin: append([]int(nil), subFeatureMostFreqBin...),
		entries:     make([][]sparseCell, len(subFeatureNumBins)),
	}
}

// NumTotalBin returns the combined bin count across sub-features; a
// multi-valued group has no shared zero bin.
func (s *SparseBinStorage) NumTotalBin() int {
	return s.binOffsets[len(s.binOffsets)-1]
}

// Push records that row's value bins to localBin on sub-feature subIdx.
// A localBin equal to that sub-feature's most-frequent bin is implicit
// and never stored, unless that most-frequent bin is bin 0: omitting bin
// 0 would make it indistinguishable from a genuinely absent row, so it is
// always stored explicitly.
func (s *SparseBinStorage) Push(row, subIdx, localBin int) {
	if localBin == s.mostFreqBin[subIdx] && s.mostFreqBin[subIdx] > 0 {
		return
	}
	s.entries[subIdx] = append(s.entries[subIdx], sparseCell{row: int32(row), bin: uint16(localBin)})
}

func (s *SparseBinStorage) FinishLoad() error {
	for i := range s.entries {
		sort.Slice(s.entries[i], func(a, b int) bool {
			return s.entries[i][a].row < s.entries[i][b].row
		})
	}
	return nil
}

func (s *SparseBinStorage) Resize(nRows int) error {
	if nRows < s.numRows {
		for i, cells := range s.entries {
			cut := len(cells)
			for cut > 0 && int(cells[cut-1].row) >= nRows {
				cut--
			}
			s.entries[i] = cells[:cut]
		}
	}
	s.numRows = nRows
	return nil
}

func (s *SparseBinStorage) CopySubset(source BinStorage, indices []int, n int) error {
	src, ok := source.(*SparseBinStorage)
	if !ok {
		return gbterrors.NewContractViolation("SparseBinStorage.CopySubset", "source is not a *SparseBinStorage")
	}
	if n != len(indices) {
		return gbterrors.NewContractViolation("SparseBinStorage.CopySubset", "n=%d does not match len(indices)=%d", n, len(indices))
	}
	if n != s.numRows {
		return gbterrors.NewContractViolation("SparseBinStorage.CopySubset", "n=%d does not match receiver num_data=%d", n, s.numRows)
	}

	for subIdx := range s.entries {
		srcLookup := make(map[int32]uint16, len(src.entries[subIdx]))
		for _, cell := range src.entries[subIdx] {
			srcLookup[cell.row] = cell.bin
		}
		var rebuilt []sparseCell
		for newRow, oldRow := range indices {
			if bin, ok := srcLookup[int32(oldRow)]; ok {
				rebuilt = append(rebuilt, sparseCell{row: int32(newRow), bin: bin})
			}
		}
		s.entries[subIdx] = rebuilt
	}
	return nil
}

type sparseSubFeatureIterator struct {
	storage *SparseBinStorage
	subIdx  int
	lookup  map[int32]uint16
}

func (it *sparseSubFeatureIterator) Get(row int) int {
	if bin, ok := it.lookup[int32(row)]; ok {
		return int(bin)
	}
	return it.storage.mostFreqBin[it.subIdx]
}

func (s *SparseBinStorage) SubFeatureIterator(subIdx int) BinIterator {
	lookup := make(map[int32]uint16, len(s.entries[subIdx]))
	for _, cell := range s.entries[subIdx] {
		lookup[cell.row] = cell.bin
	}
	return &sparseSubFeatureIterator{storage: s, subIdx: subIdx, lookup: lookup}
}

func (s *SparseBinStorage) ConstructHistogram(start, end int, gradients, hessians []float64, out []float64) {
	for subIdx, cells := range s.entries {
		offset := s.binOffsets[subIdx]
		lo := sort.Search(len(cells), func(i int) bool { return int(cells[i].row) >= start })
		for i := lo; i < len(cells) && int(cells[i].row) < end; i++ {
			row := int(cells[i].row)
			g := offset + int(cells[i].bin)
			out[2*g] += gradients[row]
			if hessians != nil {
				out[2*g+1] += hessians[row]
			} else {
				out[2*g+1] += 1.0
			}
		}
	}
}

func (s *SparseBinStorage) ConstructHistogramByIndices(indices []int, start, end int, gradients, hessians []float64, out []float64) {
	position := make(map[int32]int, end-start)
	for pos := start; pos < end; pos++ {
		position[int32(indices[pos])] = pos
	}
	for subIdx, cells := range s.entries {
		offset := s.binOffsets[subIdx]
		for _, cell := range cells {
			pos, ok := position[cell.row]
			if !ok {
				continue
			}
			g := offset + int(cell.bin)
			out[2*g] += gradients[pos]
			if hessians != nil {
				out[2*g+1] += hessians[pos]
			} else {
				out[2*g+1] += 1.0
			}
		}
	}
}
