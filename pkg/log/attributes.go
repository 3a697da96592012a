// Package log defines standard attribute keys for the binned-dataset core.
//
// Using these keys consistently lets logs from Bundler, HistogramBuilder,
// and Dataset be filtered and aggregated the same way regardless of which
// component emitted them.

package log

// Dataset and feature shape.
const (
	// NumDataKey records the number of rows in the dataset.
	NumDataKey = "dataset.num_data"

	// NumFeaturesKey records the number of non-trivial (inner) features.
	NumFeaturesKey = "dataset.num_features"

	// NumTotalFeaturesKey records the number of features before trivial filtering.
	NumTotalFeaturesKey = "dataset.num_total_features"

	// NumGroupsKey records the number of feature groups after bundling.
	NumGroupsKey = "dataset.num_groups"

	// NumMultiValGroupsKey records how many of those groups are multi-valued.
	NumMultiValGroupsKey = "dataset.num_multi_val_groups"
)

// Bundling (EFB).
const (
	// OrderingKey identifies which of the two FastFeatureBundling orderings
	// produced a FindGroups result ("input" or "dense_first").
	OrderingKey = "efb.ordering"

	// ConflictCountKey records the conflict count accepted when a feature
	// joined a group.
	ConflictCountKey = "efb.conflict_count"

	// SampleCountKey records the total sample count used for bundling
	// decisions (S in the spec).
	SampleCountKey = "efb.sample_count"
)

// Histogram construction.
const (
	// GroupIndexKey identifies which feature group a histogram step applies to.
	GroupIndexKey = "hist.group_index"

	// IsMultiValKey records whether the group being histogrammed is multi-valued.
	IsMultiValKey = "hist.is_multi_val"

	// IsConstantHessianKey records whether the constant-hessian fast path was used.
	IsConstantHessianKey = "hist.is_constant_hessian"

	// SubsetSizeKey records the size of the row-subset passed to ConstructHistograms.
	SubsetSizeKey = "hist.subset_size"
)

// Operation and component context.
const (
	// OperationKey identifies the Dataset/Bundler/HistogramBuilder method being logged.
	OperationKey = "op"

	// ComponentKey identifies which package emitted the log line.
	ComponentKey = "component"
)

// Error and warning context.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information extracted from a
	// cockroachdb/errors value. No logger in this package fills it in
	// automatically; callers set it explicitly.
	StacktraceKey = "error.stacktrace"
)
