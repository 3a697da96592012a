package dataset

import (
	"github.com/binsetlab/gbdtbin/internal/parallel"
	"github.com/binsetlab/gbdtbin/pkg/log"
)

// minBlockSize sets how many chunks the multi-valued (sparse) group path
// splits its rows into (one per minBlockSize rows, capped at the worker
// count), and likewise how many bin blocks the merge of thread-local
// scratch back into the output buffer uses. The chunks and blocks always
// cover every row and every bin.
const minBlockSize = 512

// HistogramBuilder produces one (Sum_g, Sum_h) pair per bin for every
// active feature group at a tree node, given per-row gradient/hessian
// statistics and an optional row-subset.
type HistogramBuilder struct {
	Groups              []*FeatureGroup
	Feature2Group       []int // inner feature index -> group index
	GroupBinBoundaries  []int // length len(Groups)+1

	logger  log.Logger
	histBuf []float64 // grow-only scratch for the sparse-group chunk path
}

// NewHistogramBuilder constructs a builder over groups whose bin ranges
// within a shared histogram buffer are described by groupBinBoundaries
// (length len(groups)+1, strictly monotonic, [0]==0) and whose inner
// features map to groups via feature2Group.
func NewHistogramBuilder(groups []*FeatureGroup, feature2Group []int, groupBinBoundaries []int) *HistogramBuilder {
	return &HistogramBuilder{
		Groups:             groups,
		Feature2Group:      feature2Group,
		GroupBinBoundaries: groupBinBoundaries,
		logger:             log.GetLoggerWithName("dataset.histogram"),
	}
}

// ConstructHistograms fills histData, a buffer of length
// 2*GroupBinBoundaries[len(Groups)], with one (Sum_g, Sum_h) pair per
// bin for every group with at least one feature marked used in
// isFeatureUsed. When indices is non-nil and shorter than len(gradients),
// only those rows are histogrammed. isConstantHessian lets the caller
// skip per-row hessian storage (hessians[0] applies to every row).
func (h *HistogramBuilder) ConstructHistograms(
	gradients, hessians []float64,
	isFeatureUsed []bool,
	indices []int,
	histData []float64,
	isConstantHessian bool,
) error {
	n := len(gradients)
	if n < 0 || histData == nil {
		return nil
	}

	usedGroups := h.usedGroups(isFeatureUsed)
	if len(usedGroups) == 0 {
		return nil
	}

	var denseGroups, sparseGroups []int
	for _, gi := range usedGroups {
		if h.Groups[gi].IsMultiVal {
			sparseGroups = append(sparseGroups, gi)
		} else {
			denseGroups = append(denseGroups, gi)
		}
	}

	useSubset := indices != nil && len(indices) < n
	nSub := n
	if useSubset {
		nSub = len(indices)
	}

	orderedGradients, orderedHessians := gradients, hessians
	if useSubset {
		orderedGradients = make([]float64, nSub)
		for i, row := range indices {
			orderedGradients[i] = gradients[row]
		}
		if !isConstantHessian && hessians != nil {
			orderedHessians = make([]float64, nSub)
			for i, row := range indices {
				orderedHessians[i] = hessians[row]
			}
		}
	}

	h.constructDense(denseGroups, indices, useSubset, nSub, orderedGradients, orderedHessians, hessians, histData, isConstantHessian)
	h.constructSparse(sparseGroups, indices, useSubset, nSub, orderedGradients, orderedHessians, hessians, histData, isConstantHessian)

	return nil
}

func (h *HistogramBuilder) usedGroups(isFeatureUsed []bool) []int {
	used := make(map[int]bool)
	for f, inUse := range isFeatureUsed {
		if inUse && f < len(h.Feature2Group) {
			used[h.Feature2Group[f]] = true
		}
	}
	result := make([]int, 0, len(used))
	for gi := range h.Groups {
		if used[gi] {
			result = append(result, gi)
		}
	}
	return result
}

// constructDense implements spec §4.5.4.
func (h *HistogramBuilder) constructDense(
	groups, indices []int, useSubset bool, nSub int,
	orderedGradients, orderedHessians, rawHessians []float64,
	histData []float64, isConstantHessian bool,
) {
	parallel.Parallelize(len(groups), func(start, end int) {
		for gi := start; gi < end; gi++ {
			group := groups[gi]
			lo := 2 * h.GroupBinBoundaries[group]
			hi := 2 * h.GroupBinBoundaries[group+1]
			out := histData[lo:hi]
			for i := range out {
				out[i] = 0
			}

			storage := h.Groups[group].Storage
			hessForAccum := orderedHessians
			if isConstantHessian {
				hessForAccum = nil
			}

			if useSubset {
				storage.ConstructHistogramByIndices(indices, 0, nSub, orderedGradients, hessForAccum, out)
			} else {
				storage.ConstructHistogram(0, nSub, orderedGradients, hessForAccum, out)
			}

			if isConstantHessian {
				hessVal := 1.0
				if rawHessians != nil {
					hessVal = rawHessians[0]
				}
				for b := 1; b < len(out); b += 2 {
					out[b] *= hessVal
				}
			}
		}
	})
}

// constructSparse implements spec §4.5.5: chunked local accumulation
// into hist_buf_ followed by a parallel merge, with each sub-feature's
// nonzero most-frequent bin repaired afterward by FixHistogram.
func (h *HistogramBuilder) constructSparse(
	groups, indices []int, useSubset bool, nSub int,
	orderedGradients, orderedHessians, rawHessians []float64,
	histData []float64, isConstantHessian bool,
) {
	if len(groups) == 0 {
		return
	}

	numThreads := 1
	if nSub > 0 {
		numThreads = (nSub + minBlockSize - 1) / minBlockSize
	}
	if numThreads < 1 {
		numThreads = 1
	}
	if cpuCap := maxParallelWorkers(); numThreads > cpuCap {
		numThreads = cpuCap
	}

	hessForAccum := orderedHessians
	if isConstantHessian {
		hessForAccum = nil
	}

	var leafSumG, leafSumH float64
	for i := 0; i < nSub; i++ {
		leafSumG += orderedGradients[i]
	}
	if isConstantHessian {
		hessVal := 1.0
		if rawHessians != nil {
			hessVal = rawHessians[0]
		}
		leafSumH = hessVal * float64(nSub)
	} else if orderedHessians != nil {
		for i := 0; i < nSub; i++ {
			leafSumH += orderedHessians[i]
		}
	} else {
		leafSumH = float64(nSub)
	}

	for _, group := range groups {
		numBin := h.Groups[group].NumTotalBin()
		needed := 2 * numBin * numThreads
		if len(h.histBuf) < needed {
			h.histBuf = make([]float64, needed)
		}
		buf := h.histBuf[:needed]
		for i := range buf {
			buf[i] = 0
		}

		nPart := numThreads
		rowsPerPart := (nSub + nPart - 1) / nPart
		storage := h.Groups[group].Storage

		parallel.Parallelize(nPart, func(start, end int) {
			for part := start; part < end; part++ {
				lo := part * rowsPerPart
				hi := lo + rowsPerPart
				if hi > nSub {
					hi = nSub
				}
				if lo >= hi {
					continue
				}
				slot := buf[part*2*numBin : (part+1)*2*numBin]
				if useSubset {
					storage.ConstructHistogramByIndices(indices, lo, hi, orderedGradients, hessForAccum, slot)
				} else {
					storage.ConstructHistogram(lo, hi, orderedGradients, hessForAccum, slot)
				}
				if isConstantHessian {
					hessVal := 1.0
					if rawHessians != nil {
						hessVal = rawHessians[0]
					}
					for b := 1; b < len(slot); b += 2 {
						slot[b] *= hessVal
					}
				}
			}
		})

		out := histData[2*h.GroupBinBoundaries[group] : 2*h.GroupBinBoundaries[group+1]]
		nBlock := 1
		if numBin > 0 {
			nBlock = (numBin + minBlockSize - 1) / minBlockSize
			if cpuCap := maxParallelWorkers(); nBlock > cpuCap {
				nBlock = cpuCap
			}
		}
		binsPerBlock := (numBin + nBlock - 1) / nBlock

		parallel.Parallelize(nBlock, func(start, end int) {
			for t := start; t < end; t++ {
				blockLo := t * binsPerBlock
				blockHi := (t + 1) * binsPerBlock
				if blockHi > numBin {
					blockHi = numBin
				}
				for bin := blockLo; bin < blockHi; bin++ {
					var sumG, sumH float64
					for part := 0; part < nPart; part++ {
						slot := buf[part*2*numBin : (part+1)*2*numBin]
						sumG += slot[2*bin]
						sumH += slot[2*bin+1]
					}
					out[2*bin] = sumG
					out[2*bin+1] = sumH
				}
			}
		})

		fg := h.Groups[group]
		offset := 0
		for _, mapper := range fg.BinMappers {
			numBinF := mapper.NumBin()
			mostFreq := mapper.MostFreqBin()
			if mostFreq > 0 {
				featSlice := out[2*offset : 2*(offset+numBinF)]
				FixHistogram(featSlice, mostFreq, leafSumG, leafSumH)
			}
			offset += numBinF
		}
	}
}

// FixHistogram repairs the implicit most-frequent-bin entry of a single
// feature's histogram slice (length 2*num_bin), given the leaf totals
// Sum_g and Sum_h. SparseBinStorage never pushes a row at a feature's own
// most-frequent local bin when that bin is nonzero (see Push), so that
// slot is always zero immediately after construction; this recovers it
// as the leaf totals minus every other bin. Callers must only invoke
// this when mostFreqBin > 0: bin 0 is always pushed explicitly, so its
// slot already holds the correct sum and needs no repair.
func FixHistogram(hist []float64, mostFreqBin int, leafSumG, leafSumH float64) {
	if mostFreqBin < 0 || 2*mostFreqBin+1 >= len(hist) {
		return
	}

	var restG, restH float64
	for b := 0; b < len(hist)/2; b++ {
		if b == mostFreqBin {
			continue
		}
		restG += hist[2*b]
		restH += hist[2*b+1]
	}
	hist[2*mostFreqBin] = leafSumG - restG
	hist[2*mostFreqBin+1] = leafSumH - restH
}

func maxParallelWorkers() int {
	n := parallel.Workers()
	if n < 1 {
		return 1
	}
	return n
}
