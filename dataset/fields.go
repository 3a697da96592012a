package dataset

import (
	gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"
)

// AddFeaturesFrom appends other's features as new columns of d, renumbering
// group/feature maps and bin boundaries so other's groups follow d's. The
// two datasets must have the same NumData. MonotoneTypes, FeaturePenalty,
// and MaxBinByFeature follow the three-way rule: present on both sides,
// concatenate; present on one side, pad the other with its default (0 for
// monotone, 1.0 for penalty, -1 for max_bin_by_feature) before
// concatenating; absent on both sides, remain absent.
func (d *Dataset) AddFeaturesFrom(other *Dataset) error {
	if d.NumData != other.NumData {
		return gbterrors.NewContractViolation("Dataset.AddFeaturesFrom", "num_data mismatch: %d vs %d", d.NumData, other.NumData)
	}

	groupOffset := int32(len(d.FeatureGroups))
	featureOffset := int32(d.NumFeatures)
	realOffset := int32(d.NumTotalFeatures)

	d.FeatureGroups = append(d.FeatureGroups, other.FeatureGroups...)
	d.FeatureNames = append(d.FeatureNames, other.FeatureNames...)

	for _, g := range other.GroupFeatureStart {
		d.GroupFeatureStart = append(d.GroupFeatureStart, g+featureOffset)
	}
	d.GroupFeatureCnt = append(d.GroupFeatureCnt, other.GroupFeatureCnt...)

	base := d.GroupBinBoundaries[len(d.GroupBinBoundaries)-1]
	for _, b := range other.GroupBinBoundaries[1:] {
		d.GroupBinBoundaries = append(d.GroupBinBoundaries, base+b)
	}

	for _, f2g := range other.Feature2Group {
		d.Feature2Group = append(d.Feature2Group, f2g+groupOffset)
	}
	d.Feature2SubFeature = append(d.Feature2SubFeature, other.Feature2SubFeature...)

	for _, fnpz := range other.FeatureNeedPushZeros {
		d.FeatureNeedPushZeros = append(d.FeatureNeedPushZeros, fnpz+featureOffset)
	}

	for real, inner := range other.UsedFeatureMap {
		_ = real
		if inner < 0 {
			d.UsedFeatureMap = append(d.UsedFeatureMap, -1)
		} else {
			d.UsedFeatureMap = append(d.UsedFeatureMap, inner+featureOffset)
		}
	}
	for _, real := range other.RealFeatureIdx {
		d.RealFeatureIdx = append(d.RealFeatureIdx, real+realOffset)
	}

	d.ForcedBinBounds = append(d.ForcedBinBounds, other.ForcedBinBounds...)

	d.MonotoneTypes = concatInt8WithDefault(d.MonotoneTypes, other.MonotoneTypes, d.NumFeatures, other.NumFeatures, 0)
	d.FeaturePenalty = concatFloat64WithDefault(d.FeaturePenalty, other.FeaturePenalty, d.NumFeatures, other.NumFeatures, 1.0)
	d.MaxBinByFeature = concatInt32WithDefault(d.MaxBinByFeature, other.MaxBinByFeature, d.NumTotalFeatures, other.NumTotalFeatures, -1)

	d.NumFeatures += other.NumFeatures
	d.NumTotalFeatures += other.NumTotalFeatures
	d.isFinishLoad = d.isFinishLoad && other.isFinishLoad

	return nil
}

func concatInt8WithDefault(a, b []int8, aLen, bLen int, def int8) []int8 {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]int8, 0, aLen+bLen)
	if len(a) != 0 {
		out = append(out, a...)
	} else {
		out = append(out, fillInt8(aLen, def)...)
	}
	if len(b) != 0 {
		out = append(out, b...)
	} else {
		out = append(out, fillInt8(bLen, def)...)
	}
	return out
}

func concatFloat64WithDefault(a, b []float64, aLen, bLen int, def float64) []float64 {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]float64, 0, aLen+bLen)
	if len(a) != 0 {
		out = append(out, a...)
	} else {
		out = append(out, fillFloat64(aLen, def)...)
	}
	if len(b) != 0 {
		out = append(out, b...)
	} else {
		out = append(out, fillFloat64(bLen, def)...)
	}
	return out
}

func concatInt32WithDefault(a, b []int32, aLen, bLen int, def int32) []int32 {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]int32, 0, aLen+bLen)
	if len(a) != 0 {
		out = append(out, a...)
	} else {
		out = append(out, fillInt32(aLen, def)...)
	}
	if len(b) != 0 {
		out = append(out, b...)
	} else {
		out = append(out, fillInt32(bLen, def)...)
	}
	return out
}

func fillInt8(n int, v int8) []int8 {
	out := make([]int8, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func fillFloat64(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func fillInt32(n int, v int32) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// GetField looks up a per-row side-information vector by name. Accepted
// names follow the same aliasing LightGBM's C API accepts: label/target,
// weight/weights, init_score, feature_penalty, monotone_constraints.
// Query/group boundaries are integer-valued and are not exposed through
// this float64 accessor; use d.Meta.Query directly. ok is false for any
// unrecognized name ("not handled", spec §4.6/§6).
func (d *Dataset) GetField(name string) (values []float64, ok bool) {
	switch name {
	case "label", "target":
		if d.Meta == nil {
			return nil, true
		}
		return d.Meta.Label(), true
	case "weight", "weights":
		if d.Meta == nil {
			return nil, true
		}
		return d.Meta.Weight(), true
	case "init_score":
		if d.Meta == nil {
			return nil, true
		}
		return d.Meta.InitScore(), true
	case "feature_penalty":
		return d.FeaturePenalty, true
	case "monotone_constraints":
		out := make([]float64, len(d.MonotoneTypes))
		for i, v := range d.MonotoneTypes {
			out[i] = float64(v)
		}
		return out, true
	default:
		return nil, false
	}
}

// SetField applies a per-row side-information vector by name, with the
// same name aliasing as GetField. monotone_constraints values are
// truncated to int8. ok is false for any unrecognized name; the caller
// is expected to surface that as a Warning via spec §4.6/§6's "not
// handled" signal, not a hard failure.
func (d *Dataset) SetField(name string, values []float64) (ok bool, err error) {
	switch name {
	case "label", "target":
		if d.Meta == nil {
			d.Meta = NewSimpleMetadata(d.NumData)
		}
		return true, d.Meta.SetLabel(values)
	case "weight", "weights":
		if d.Meta == nil {
			d.Meta = NewSimpleMetadata(d.NumData)
		}
		return true, d.Meta.SetWeight(values)
	case "init_score":
		if d.Meta == nil {
			d.Meta = NewSimpleMetadata(d.NumData)
		}
		return true, d.Meta.SetInitScore(values)
	case "feature_penalty":
		if len(values) != 0 && len(values) != d.NumFeatures {
			return true, gbterrors.NewContractViolation("Dataset.SetField", "feature_penalty length %d does not match num_features %d", len(values), d.NumFeatures)
		}
		d.FeaturePenalty = append([]float64(nil), values...)
		if allFloat64Equal(d.FeaturePenalty, 1.0) {
			d.FeaturePenalty = nil
		}
		return true, nil
	case "monotone_constraints":
		if len(values) != 0 && len(values) != d.NumFeatures {
			return true, gbterrors.NewContractViolation("Dataset.SetField", "monotone_constraints length %d does not match num_features %d", len(values), d.NumFeatures)
		}
		out := make([]int8, len(values))
		for i, v := range values {
			out[i] = int8(v)
		}
		d.MonotoneTypes = out
		if allInt8Zero(d.MonotoneTypes) {
			d.MonotoneTypes = nil
		}
		return true, nil
	default:
		return false, nil
	}
}

// SetQueryField sets the per-row query/ranking-group boundaries.
// Accepted names: query, group.
func (d *Dataset) SetQueryField(name string, boundaries []int32) (ok bool, err error) {
	switch name {
	case "query", "group":
		if d.Meta == nil {
			d.Meta = NewSimpleMetadata(d.NumData)
		}
		return true, d.Meta.SetQuery(boundaries)
	default:
		return false, nil
	}
}
