package dataset

// Config holds the tunables a Dataset reads at Construct time and the
// subset of them ResetConfig is allowed to actually change afterward.
// Everything except MonotoneConstraints and FeaturePenalty becomes
// immutable once FinishLoad has run; ResetConfig warns instead of
// applying a change to those fields (spec §4.6).
type Config struct {
	MaxBin                int
	MaxBinByFeature       []int32
	BinConstructSampleCnt int
	MinDataInBin          int
	UseMissing            bool
	ZeroAsMissing         bool
	ForcedBinsFilename    string

	MonotoneConstraints []int8
	FeaturePenalty      []float64

	UseGPU bool
}

// immutableFieldsChanged reports which of the post-construction-frozen
// fields differ between the receiver and other, in the order spec §4.6
// lists them, for ResetConfig's warning message.
func (c *Config) immutableFieldsChanged(other *Config) []string {
	var changed []string
	if c.MaxBin != other.MaxBin {
		changed = append(changed, "max_bin")
	}
	if !equalInt32Slices(c.MaxBinByFeature, other.MaxBinByFeature) {
		changed = append(changed, "max_bin_by_feature")
	}
	if c.BinConstructSampleCnt != other.BinConstructSampleCnt {
		changed = append(changed, "bin_construct_sample_cnt")
	}
	if c.MinDataInBin != other.MinDataInBin {
		changed = append(changed, "min_data_in_bin")
	}
	if c.UseMissing != other.UseMissing {
		changed = append(changed, "use_missing")
	}
	if c.ZeroAsMissing != other.ZeroAsMissing {
		changed = append(changed, "zero_as_missing")
	}
	if c.ForcedBinsFilename != other.ForcedBinsFilename {
		changed = append(changed, "forcedbins_filename")
	}
	return changed
}

func equalInt32Slices(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
