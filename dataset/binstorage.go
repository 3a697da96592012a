package dataset

import (
	gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"
)

// BinIterator walks one sub-feature's bin indices by row.
type BinIterator interface {
	// Get returns the bin index of the given row for this sub-feature.
	Get(row int) int
}

// BinStorage is the per-group columnar binned storage contract. The core
// never invents a representation; it only consumes whatever dense or
// sparse/multi-valued backend the caller wires in. DenseBinStorage and
// SparseBinStorage below are reference implementations, not the only
// legal ones.
type BinStorage interface {
	// FinishLoad is called once after all values have been pushed.
	FinishLoad() error

	// Resize changes the row capacity to nRows.
	Resize(nRows int) error

	// CopySubset bulk-selects n rows of source by indices into the
	// receiver, which must already have capacity for n rows.
	CopySubset(source BinStorage, indices []int, n int) error

	// SubFeatureIterator returns a row-indexed accessor for one
	// sub-feature of the group.
	SubFeatureIterator(subIdx int) BinIterator

	// ConstructHistogram accumulates rows [start, end) into out, a flat
	// buffer of length 2*NumTotalBin() laid out as (Sum_g, Sum_h) pairs.
	// When hessians is nil, 1.0 is summed into the hessian slot instead.
	ConstructHistogram(start, end int, gradients, hessians []float64, out []float64)

	// ConstructHistogramByIndices is the row-indexed counterpart of
	// ConstructHistogram, accumulating indices[start:end] instead of a
	// contiguous row range.
	ConstructHistogramByIndices(indices []int, start, end int, gradients, hessians []float64, out []float64)

	// NumTotalBin returns the sum of per-sub-feature bin counts, with
	// whatever slack the storage reserves for an implicit zero bin.
	NumTotalBin() int
}

func requireBinStorage(op string, cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return gbterrors.NewContractViolation(op, format, args...)
}
