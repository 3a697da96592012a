package dataset

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DumpText writes a human-readable (non-round-trip) description of d to
// w: shape, per-feature metadata, then one row per data sample with
// comma-separated bin indices, "NA" for any feature a row has no group
// membership for.
func (d *Dataset) DumpText(w io.Writer) error {
	fmt.Fprintf(w, "num_features=%d\n", d.NumFeatures)
	fmt.Fprintf(w, "num_total_features=%d\n", d.NumTotalFeatures)
	fmt.Fprintf(w, "num_groups=%d\n", len(d.FeatureGroups))
	fmt.Fprintf(w, "num_data=%d\n", d.NumData)

	fmt.Fprintf(w, "feature_names=%s\n", strings.Join(d.FeatureNames, ","))

	if len(d.MonotoneTypes) == 0 {
		fmt.Fprintln(w, "monotone_constraints=")
	} else {
		fmt.Fprintf(w, "monotone_constraints=%s\n", joinInt8(d.MonotoneTypes))
	}

	if len(d.FeaturePenalty) == 0 {
		fmt.Fprintln(w, "feature_penalty=")
	} else {
		fmt.Fprintf(w, "feature_penalty=%s\n", joinFloat64(d.FeaturePenalty))
	}

	if len(d.MaxBinByFeature) == 0 {
		fmt.Fprintln(w, "max_bin_by_feature=")
	} else {
		fmt.Fprintf(w, "max_bin_by_feature=%s\n", joinInt32(d.MaxBinByFeature))
	}

	for real := 0; real < d.NumTotalFeatures; real++ {
		var bounds []float64
		if real < len(d.ForcedBinBounds) {
			bounds = d.ForcedBinBounds[real]
		}
		fmt.Fprintf(w, "forced_bins[%d]=%s\n", real, joinFloat64(bounds))
	}

	for row := 0; row < d.NumData; row++ {
		parts := make([]string, d.NumFeatures)
		for inner := 0; inner < d.NumFeatures; inner++ {
			g := d.FeatureGroups[d.Feature2Group[inner]]
			sub := int(d.Feature2SubFeature[inner])
			it := g.SubFeatureIterator(sub)
			if it == nil {
				parts[inner] = "NA"
				continue
			}
			parts[inner] = strconv.Itoa(it.Get(row))
		}
		fmt.Fprintln(w, strings.Join(parts, ","))
	}

	return nil
}

func joinInt8(v []int8) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(int(x))
	}
	return strings.Join(parts, ",")
}

func joinInt32(v []int32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(int(x))
	}
	return strings.Join(parts, ",")
}

func joinFloat64(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
