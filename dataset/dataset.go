package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/binsetlab/gbdtbin/internal/parallel"
	gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"
	"github.com/binsetlab/gbdtbin/pkg/log"
)

// Dataset aggregates the binned, columnar representation of a training
// matrix: feature<->group maps, bin boundaries, constraints, and the
// FeatureGroups holding the actual binned values.
type Dataset struct {
	NumData          int
	NumFeatures      int
	NumTotalFeatures int

	// UsedFeatureMap[realFidx] is the inner index, or -1 if trivial/dropped.
	UsedFeatureMap []int32
	// RealFeatureIdx[innerFidx] is the inverse of UsedFeatureMap.
	RealFeatureIdx []int32

	Feature2Group      []int32
	Feature2SubFeature []int32

	GroupBinBoundaries []uint64
	GroupFeatureStart  []int32
	GroupFeatureCnt    []int32

	// FeatureNeedPushZeros holds inner indices whose BinMapper has
	// DefaultBin() != MostFreqBin().
	FeatureNeedPushZeros []int32

	MonotoneTypes   []int8
	FeaturePenalty  []float64
	MaxBinByFeature []int32
	ForcedBinBounds [][]float64

	FeatureGroups []*FeatureGroup
	FeatureNames  []string

	// LabelIdx is the real feature index holding the label column, or -1
	// if labels are supplied out-of-band via Meta.
	LabelIdx int32

	Meta   Metadata
	Config *Config

	isFinishLoad bool

	logger log.Logger
}

// newDataset allocates the skeleton of a Dataset for numTotalFeatures
// real features; callers fill in the rest.
func newDataset(numData, numTotalFeatures int) *Dataset {
	return &Dataset{
		NumData:          numData,
		NumTotalFeatures: numTotalFeatures,
		UsedFeatureMap:   make([]int32, numTotalFeatures),
		ForcedBinBounds:  make([][]float64, numTotalFeatures),
		FeatureNames:     defaultFeatureNames(numTotalFeatures),
		LabelIdx:         -1,
		logger:           log.GetLoggerWithName("dataset"),
	}
}

func defaultFeatureNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "Column_" + itoa(i)
	}
	return names
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// Construct builds a Dataset from a sparse sample matrix and one
// BinMapper per real feature. Trivial features are filtered out; the
// remainder are handed to the Bundler, and the resulting groups are
// materialized into FeatureGroups.
func Construct(samples mat.Matrix, mappers []BinMapper, numData int, config *Config) (*Dataset, error) {
	if config == nil {
		config = &Config{}
	}
	sampleRows, numTotalFeatures := samples.Dims()
	if len(mappers) != numTotalFeatures {
		return nil, gbterrors.NewContractViolation("Construct", "len(mappers)=%d does not match sample matrix columns=%d", len(mappers), numTotalFeatures)
	}
	if len(config.MaxBinByFeature) != 0 {
		if len(config.MaxBinByFeature) != numTotalFeatures {
			return nil, gbterrors.NewContractViolation("Construct", "max_bin_by_feature length %d does not match num_total_features %d", len(config.MaxBinByFeature), numTotalFeatures)
		}
		for i, v := range config.MaxBinByFeature {
			if v != -1 && v <= 1 {
				return nil, gbterrors.NewContractViolation("Construct", "max_bin_by_feature[%d]=%d must be -1 (unconstrained) or > 1", i, v)
			}
		}
	}

	d := newDataset(numData, numTotalFeatures)
	d.Config = config
	if len(config.MaxBinByFeature) != 0 && !allInt32Equal(config.MaxBinByFeature, -1) {
		d.MaxBinByFeature = append([]int32(nil), config.MaxBinByFeature...)
	}

	usedReal := make([]int, 0, numTotalFeatures)
	usedMappers := make([]BinMapper, 0, numTotalFeatures)
	for real, m := range mappers {
		if m.IsTrivial() {
			d.UsedFeatureMap[real] = -1
			continue
		}
		inner := int32(len(usedReal))
		d.UsedFeatureMap[real] = inner
		usedReal = append(usedReal, real)
		usedMappers = append(usedMappers, m)
	}
	d.NumFeatures = len(usedReal)
	d.RealFeatureIdx = make([]int32, d.NumFeatures)
	for inner, real := range usedReal {
		d.RealFeatureIdx[inner] = int32(real)
	}

	views := extractSampleViews(samples, usedMappers, usedReal, sampleRows)

	var bundleResult *BundleResult
	if d.NumFeatures == 0 {
		bundleResult = &BundleResult{}
		gbterrors.Warn(gbterrors.NewWarning("Construct", "no meaningful features after filtering trivial columns"))
	} else {
		usedInner := make([]int, d.NumFeatures)
		for i := range usedInner {
			usedInner[i] = i
		}
		bundler := NewBundler(sampleRows, numData, config.UseGPU)
		bundleResult = bundler.FastFeatureBundling(usedInner, views)
	}

	if err := d.materializeGroups(bundleResult, usedMappers, numData); err != nil {
		return nil, err
	}

	d.Meta = NewSimpleMetadata(numData)
	d.isFinishLoad = false

	d.logger.Info("dataset constructed",
		log.NumDataKey, numData,
		log.NumFeaturesKey, d.NumFeatures,
		log.NumTotalFeaturesKey, d.NumTotalFeatures,
		log.NumGroupsKey, len(d.FeatureGroups),
	)

	return d, nil
}

// extractSampleViews pulls each used feature's non-zero sample rows and
// values out of the sparse sample matrix, applying spec §4.4.3's
// sample-index fixup is the Bundler's job, not this extraction step.
// usedReal[inner] gives the real (original) column index backing inner
// feature index inner, since mappers has already been filtered down to
// the non-trivial columns.
func extractSampleViews(samples mat.Matrix, mappers []BinMapper, usedReal []int, sampleRows int) map[int]*FeatureSampleView {
	views := make(map[int]*FeatureSampleView, len(mappers))
	for inner, mapper := range mappers {
		realCol := usedReal[inner]
		var idx []int32
		var vals []float64
		for row := 0; row < sampleRows; row++ {
			v := samples.At(row, realCol)
			if v == 0 {
				continue
			}
			idx = append(idx, int32(row))
			vals = append(vals, v)
		}
		views[inner] = &FeatureSampleView{
			Indices:     idx,
			Values:      vals,
			Mapper:      mapper,
			NumBin:      mapper.NumBin(),
			DefaultBin:  mapper.DefaultBin(),
			MostFreqBin: mapper.MostFreqBin(),
		}
	}
	return views
}

// materializeGroups fills every §3 map from bundleResult's final
// features_in_group order and builds one FeatureGroup per output group.
func (d *Dataset) materializeGroups(bundleResult *BundleResult, mappers []BinMapper, numData int) error {
	numGroups := len(bundleResult.FeaturesInGroup)
	d.FeatureGroups = make([]*FeatureGroup, numGroups)
	d.Feature2Group = make([]int32, d.NumFeatures)
	d.Feature2SubFeature = make([]int32, d.NumFeatures)
	d.GroupFeatureStart = make([]int32, numGroups)
	d.GroupFeatureCnt = make([]int32, numGroups)
	d.GroupBinBoundaries = make([]uint64, numGroups+1)

	featureCursor := int32(0)
	for g, features := range bundleResult.FeaturesInGroup {
		isMultiVal := bundleResult.IsMultiVal[g]
		d.GroupFeatureStart[g] = featureCursor
		d.GroupFeatureCnt[g] = int32(len(features))

		groupMappers := make([]BinMapper, len(features))
		for sub, inner := range features {
			groupMappers[sub] = mappers[inner]
			d.Feature2Group[inner] = int32(g)
			d.Feature2SubFeature[inner] = int32(sub)
			if mappers[inner].DefaultBin() != mappers[inner].MostFreqBin() {
				d.FeatureNeedPushZeros = append(d.FeatureNeedPushZeros, int32(inner))
			}
		}
		featureCursor += int32(len(features))

		var storage BinStorage
		if isMultiVal {
			numBins := make([]int, len(groupMappers))
			mostFreq := make([]int, len(groupMappers))
			for i, m := range groupMappers {
				numBins[i] = m.NumBin()
				mostFreq[i] = m.MostFreqBin()
			}
			storage = NewSparseBinStorage(numData, numBins, mostFreq)
		} else {
			numBins := make([]int, len(groupMappers))
			for i, m := range groupMappers {
				numBins[i] = m.NumBin()
			}
			storage = NewDenseBinStorage(numData, numBins)
		}

		d.FeatureGroups[g] = NewFeatureGroup(groupMappers, storage, isMultiVal)
		d.GroupBinBoundaries[g+1] = d.GroupBinBoundaries[g] + uint64(d.FeatureGroups[g].NumTotalBin())
	}

	return nil
}

// PushValue records that row's raw value bins into the group/sub-feature
// that the dataset's bundling assigned to inner feature index innerFidx.
// Construction-time population of the binned values is the caller's
// responsibility (spec §1: "row-level binary-storage backends... their
// interface alone is specified"); this helper exists so the reference
// BinStorage implementations are actually reachable from test code and
// from CopyFeatureMapperFrom's empty-storage callers.
func (d *Dataset) PushValue(row, innerFidx int, rawValue float64) error {
	if innerFidx < 0 || innerFidx >= d.NumFeatures {
		return gbterrors.NewContractViolation("Dataset.PushValue", "inner feature index %d out of range [0,%d)", innerFidx, d.NumFeatures)
	}
	g := int(d.Feature2Group[innerFidx])
	sub := int(d.Feature2SubFeature[innerFidx])
	group := d.FeatureGroups[g]
	bin := group.BinMappers[sub].ValueToBin(rawValue)

	switch storage := group.Storage.(type) {
	case *DenseBinStorage:
		storage.Push(row, sub, bin)
	case *SparseBinStorage:
		storage.Push(row, sub, bin)
	default:
		return gbterrors.NewContractViolation("Dataset.PushValue", "BinStorage %T does not support Push", group.Storage)
	}
	return nil
}

// FinishLoad runs BinStorage.FinishLoad once per group, in parallel
// (spec §5, parallel region 1). After this call the binned data is
// immutable for training purposes; only ReSize and ResetConfig may
// still change the dataset.
func (d *Dataset) FinishLoad() error {
	err := parallel.ParallelizeErr(len(d.FeatureGroups), func(start, end int) error {
		for g := start; g < end; g++ {
			if err := d.FeatureGroups[g].Storage.FinishLoad(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.isFinishLoad = true
	return nil
}

// IsFinishLoad reports whether FinishLoad has run.
func (d *Dataset) IsFinishLoad() bool {
	return d.isFinishLoad
}

// ReSize changes the row count, running BinStorage.Resize across groups
// in parallel (spec §5, parallel region 2).
func (d *Dataset) ReSize(n int) error {
	err := parallel.ParallelizeErr(len(d.FeatureGroups), func(start, end int) error {
		for g := start; g < end; g++ {
			if err := d.FeatureGroups[g].Storage.Resize(n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.NumData = n
	if d.Meta != nil {
		return d.Meta.Resize(n)
	}
	return nil
}

// CopyFeatureMapperFrom deep-copies other's bin mappers and all index
// maps, creating empty BinStorages sized to the receiver's NumData.
func (d *Dataset) CopyFeatureMapperFrom(other *Dataset) error {
	d.NumFeatures = other.NumFeatures
	d.NumTotalFeatures = other.NumTotalFeatures
	d.UsedFeatureMap = append([]int32(nil), other.UsedFeatureMap...)
	d.RealFeatureIdx = append([]int32(nil), other.RealFeatureIdx...)
	d.Feature2Group = append([]int32(nil), other.Feature2Group...)
	d.Feature2SubFeature = append([]int32(nil), other.Feature2SubFeature...)
	d.GroupBinBoundaries = append([]uint64(nil), other.GroupBinBoundaries...)
	d.GroupFeatureStart = append([]int32(nil), other.GroupFeatureStart...)
	d.GroupFeatureCnt = append([]int32(nil), other.GroupFeatureCnt...)
	d.FeatureNeedPushZeros = append([]int32(nil), other.FeatureNeedPushZeros...)
	d.MonotoneTypes = append([]int8(nil), other.MonotoneTypes...)
	d.FeaturePenalty = append([]float64(nil), other.FeaturePenalty...)
	d.MaxBinByFeature = append([]int32(nil), other.MaxBinByFeature...)
	d.FeatureNames = append([]string(nil), other.FeatureNames...)
	d.ForcedBinBounds = make([][]float64, len(other.ForcedBinBounds))
	for i, bounds := range other.ForcedBinBounds {
		d.ForcedBinBounds[i] = append([]float64(nil), bounds...)
	}
	if other.Config != nil {
		cfg := *other.Config
		d.Config = &cfg
	}

	d.FeatureGroups = make([]*FeatureGroup, len(other.FeatureGroups))
	for g, group := range other.FeatureGroups {
		cloned := group.Clone()
		numBins := make([]int, len(cloned.BinMappers))
		mostFreq := make([]int, len(cloned.BinMappers))
		for i, m := range cloned.BinMappers {
			numBins[i] = m.NumBin()
			mostFreq[i] = m.MostFreqBin()
		}
		if cloned.IsMultiVal {
			cloned.Storage = NewSparseBinStorage(d.NumData, numBins, mostFreq)
		} else {
			cloned.Storage = NewDenseBinStorage(d.NumData, numBins)
		}
		cloned.numTotal = cloned.Storage.NumTotalBin()
		d.FeatureGroups[g] = cloned
	}

	d.Meta = NewSimpleMetadata(d.NumData)
	d.isFinishLoad = false
	return nil
}

// CreateValid builds a validation-schema Dataset from other: the same
// features, but one feature per group (no bundling), sparse iff that
// feature's BinMapper.SparseRate() > 0.8, sized for numData rows.
func CreateValid(other *Dataset, numData int) (*Dataset, error) {
	d := newDataset(numData, other.NumTotalFeatures)
	d.NumFeatures = other.NumFeatures
	d.UsedFeatureMap = append([]int32(nil), other.UsedFeatureMap...)
	d.RealFeatureIdx = append([]int32(nil), other.RealFeatureIdx...)
	d.FeatureNames = append([]string(nil), other.FeatureNames...)
	d.MonotoneTypes = append([]int8(nil), other.MonotoneTypes...)
	d.FeaturePenalty = append([]float64(nil), other.FeaturePenalty...)
	d.MaxBinByFeature = append([]int32(nil), other.MaxBinByFeature...)
	d.ForcedBinBounds = make([][]float64, len(other.ForcedBinBounds))
	for i, bounds := range other.ForcedBinBounds {
		d.ForcedBinBounds[i] = append([]float64(nil), bounds...)
	}
	if other.Config != nil {
		cfg := *other.Config
		d.Config = &cfg
	} else {
		d.Config = &Config{}
	}

	numGroups := other.NumFeatures
	d.FeatureGroups = make([]*FeatureGroup, numGroups)
	d.Feature2Group = make([]int32, numGroups)
	d.Feature2SubFeature = make([]int32, numGroups)
	d.GroupFeatureStart = make([]int32, numGroups)
	d.GroupFeatureCnt = make([]int32, numGroups)
	d.GroupBinBoundaries = make([]uint64, numGroups+1)

	for inner := 0; inner < numGroups; inner++ {
		g := inner
		d.Feature2Group[inner] = int32(g)
		d.Feature2SubFeature[inner] = 0
		d.GroupFeatureStart[g] = int32(g)
		d.GroupFeatureCnt[g] = 1

		otherGroup := other.FeatureGroups[other.Feature2Group[inner]]
		sub := int(other.Feature2SubFeature[inner])
		mapper := otherGroup.BinMappers[sub].Clone()
		if mapper.DefaultBin() != mapper.MostFreqBin() {
			d.FeatureNeedPushZeros = append(d.FeatureNeedPushZeros, int32(inner))
		}

		isMultiVal := mapper.SparseRate() > 0.8
		var storage BinStorage
		if isMultiVal {
			storage = NewSparseBinStorage(numData, []int{mapper.NumBin()}, []int{mapper.MostFreqBin()})
		} else {
			storage = NewDenseBinStorage(numData, []int{mapper.NumBin()})
		}
		d.FeatureGroups[g] = NewFeatureGroup([]BinMapper{mapper}, storage, isMultiVal)
		d.GroupBinBoundaries[g+1] = d.GroupBinBoundaries[g] + uint64(d.FeatureGroups[g].NumTotalBin())
	}

	d.Meta = NewSimpleMetadata(numData)
	d.isFinishLoad = false
	return d, nil
}

// CopySubset selects n rows of full by indices into the receiver, in
// parallel across groups (spec §5, parallel region 2). n must equal the
// receiver's NumData. Sets IsFinishLoad to true.
func (d *Dataset) CopySubset(full *Dataset, indices []int, n int, copyMetadata bool) error {
	if n != d.NumData {
		return gbterrors.NewContractViolation("Dataset.CopySubset", "n=%d does not match receiver num_data=%d", n, d.NumData)
	}
	if n != len(indices) {
		return gbterrors.NewContractViolation("Dataset.CopySubset", "n=%d does not match len(indices)=%d", n, len(indices))
	}
	if len(d.FeatureGroups) != len(full.FeatureGroups) {
		return gbterrors.NewContractViolation("Dataset.CopySubset", "group count mismatch: %d vs %d", len(d.FeatureGroups), len(full.FeatureGroups))
	}

	err := parallel.ParallelizeErr(len(d.FeatureGroups), func(start, end int) error {
		for g := start; g < end; g++ {
			if err := d.FeatureGroups[g].CopySubset(full.FeatureGroups[g], indices, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if copyMetadata && full.Meta != nil {
		if d.Meta == nil {
			d.Meta = NewSimpleMetadata(n)
		}
		if err := d.Meta.CopySubset(full.Meta, indices); err != nil {
			return err
		}
	}

	d.isFinishLoad = true
	return nil
}

// ResetConfig applies new monotone constraints and feature penalties.
// Any other attempted change is reported as a Warning and left
// unapplied (spec §4.6). After updating, an all-zero monotone vector or
// an all-1.0 penalty vector is compacted to empty.
func (d *Dataset) ResetConfig(newConfig *Config) error {
	if d.Config != nil {
		if changed := d.Config.immutableFieldsChanged(newConfig); len(changed) > 0 {
			for _, field := range changed {
				gbterrors.Warn(gbterrors.NewWarning("Dataset.ResetConfig", "%s cannot be changed after construction", field))
			}
		}
	}

	if len(newConfig.MonotoneConstraints) != 0 {
		if len(newConfig.MonotoneConstraints) != d.NumFeatures {
			return gbterrors.NewContractViolation("Dataset.ResetConfig", "monotone_constraints length %d does not match num_features %d", len(newConfig.MonotoneConstraints), d.NumFeatures)
		}
		d.MonotoneTypes = append([]int8(nil), newConfig.MonotoneConstraints...)
	}
	if len(newConfig.FeaturePenalty) != 0 {
		if len(newConfig.FeaturePenalty) != d.NumFeatures {
			return gbterrors.NewContractViolation("Dataset.ResetConfig", "feature_penalty length %d does not match num_features %d", len(newConfig.FeaturePenalty), d.NumFeatures)
		}
		d.FeaturePenalty = append([]float64(nil), newConfig.FeaturePenalty...)
	}

	if allInt8Zero(d.MonotoneTypes) {
		d.MonotoneTypes = nil
	}
	if allFloat64Equal(d.FeaturePenalty, 1.0) {
		d.FeaturePenalty = nil
	}

	if d.Config == nil {
		d.Config = newConfig
	} else {
		preservedMonotone, preservedPenalty := d.MonotoneTypes, d.FeaturePenalty
		cfg := *d.Config
		d.Config = &cfg
		d.MonotoneTypes, d.FeaturePenalty = preservedMonotone, preservedPenalty
	}

	return nil
}

func allInt8Zero(v []int8) bool {
	if len(v) == 0 {
		return false
	}
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func allFloat64Equal(v []float64, target float64) bool {
	if len(v) == 0 {
		return false
	}
	for _, x := range v {
		if math.Abs(x-target) > 1e-12 {
			return false
		}
	}
	return true
}
