package dataset

import (
	"math/rand"
	"sort"

	"github.com/binsetlab/gbdtbin/pkg/log"
)

// Tuning constants for Exclusive Feature Bundling.
const (
	maxSearchGroup               = 100
	maxBinPerGroup               = 256
	denseThreshold               = 0.6
	maxConcurrentFeaturePerGroup = 64
	maxBinPerMultiValGroup       = 1 << 14
)

// FeatureSampleView is a per-feature view over the non-zero sample rows
// and values used to decide bundling, plus the attributes of its
// BinMapper the algorithm needs. The bundler may transparently replace
// Indices/Values with a fixed-up view for the duration of its own call;
// callers never observe the swap (the view is re-derived, not mutated
// in place).
type FeatureSampleView struct {
	Indices     []int32
	Values      []float64
	Mapper      BinMapper
	NumBin      int
	DefaultBin  int
	MostFreqBin int
}

// BundleResult is FastFeatureBundling's output: parallel slices, one
// entry per output group, each holding the used-feature indices bundled
// into it (in final order) and whether the group ended up multi-valued.
type BundleResult struct {
	FeaturesInGroup [][]int
	IsMultiVal      []bool
}

// groupState tracks one prospective group during FindGroups.
type groupState struct {
	features         []int
	mark             []uint8
	totalDataCnt     int
	usedRowCnt       int
	numBin           int
	isMultiVal       bool
	forcedSingleVal  bool
}

// Bundler implements Exclusive Feature Bundling (EFB): it merges
// mutually near-exclusive sparse features into a smaller number of
// dense feature groups, each still decodable per-feature.
type Bundler struct {
	// SampleCount is S, the total sample count used for bundling
	// decisions.
	SampleCount int

	// NumData is N, the training row count; seeds every bundling RNG.
	NumData int

	// UseGPU enables the GPU bin-count ceiling (maxBinPerGroup).
	UseGPU bool

	logger log.Logger
}

// NewBundler constructs a Bundler for a dataset with sampleCount sampled
// rows and numData training rows.
func NewBundler(sampleCount, numData int, useGPU bool) *Bundler {
	return &Bundler{
		SampleCount: sampleCount,
		NumData:     numData,
		UseGPU:      useGPU,
		logger:      log.GetLoggerWithName("dataset.bundler"),
	}
}

func (b *Bundler) singleValMaxConflictCnt() int {
	return b.SampleCount / 10000
}

func (b *Bundler) maxSamplesPerMultiValGroup() int {
	return b.SampleCount * 10
}

// NoGroup is the fallback used when bundling is disabled: one feature
// per group, in input order, none multi-valued.
func NoGroup(usedFeatures []int) *BundleResult {
	result := &BundleResult{
		FeaturesInGroup: make([][]int, len(usedFeatures)),
		IsMultiVal:      make([]bool, len(usedFeatures)),
	}
	for i, f := range usedFeatures {
		result.FeaturesInGroup[i] = []int{f}
	}
	return result
}

// fixupSampleIndices implements spec §4.4.3 (FixSampleIndices): for every
// feature whose default bin differs from its most-frequent bin, synthesize
// an augmented non-zero index list so that bundling decisions see
// "non-zero" as "not the most-frequent bin" rather than "explicitly
// stored". An explicitly-stored row is kept only if it actually bins to
// something other than the most-frequent bin; a row absent from the
// sample list is always kept, since it implicitly takes the default bin,
// which is guaranteed different from the most-frequent bin here.
func fixupSampleIndices(views map[int]*FeatureSampleView, sampleCount int) map[int]*FeatureSampleView {
	fixed := make(map[int]*FeatureSampleView, len(views))
	for f, view := range views {
		if view.DefaultBin == view.MostFreqBin {
			fixed[f] = view
			continue
		}

		newIndices := make([]int32, 0, sampleCount)
		newValues := make([]float64, 0, sampleCount)
		j := 0
		for row := int32(0); row < int32(sampleCount); row++ {
			if j < len(view.Indices) && view.Indices[j] == row {
				if view.Mapper.ValueToBin(view.Values[j]) != view.MostFreqBin {
					newIndices = append(newIndices, row)
					newValues = append(newValues, view.Values[j])
				}
				j++
				continue
			}
			newIndices = append(newIndices, row)
			newValues = append(newValues, 0)
		}

		fixed[f] = &FeatureSampleView{
			Indices:     newIndices,
			Values:      newValues,
			Mapper:      view.Mapper,
			NumBin:      view.NumBin,
			DefaultBin:  view.DefaultBin,
			MostFreqBin: view.MostFreqBin,
		}
	}
	return fixed
}

func deltaBin(view *FeatureSampleView) int {
	d := view.NumBin
	if view.DefaultBin == 0 {
		d--
	}
	return d
}

// FindGroups runs the two-pass group-formation algorithm (spec §4.4.4)
// over features in the given order.
func (b *Bundler) FindGroups(order []int, views map[int]*FeatureSampleView) *BundleResult {
	rng := rand.New(rand.NewSource(int64(b.NumData)))
	groups := make([]*groupState, 0)

	singleValMaxConflict := b.singleValMaxConflictCnt()

	searchCandidates := func(candidates []int) []int {
		if len(candidates) <= maxSearchGroup {
			return candidates
		}
		last := candidates[len(candidates)-1]
		rest := candidates[:len(candidates)-1]
		sampleN := maxSearchGroup - 1
		if sampleN > len(rest) {
			sampleN = len(rest)
		}
		picked := make([]int, sampleN+1)
		picked[0] = last
		perm := rng.Perm(len(rest))[:sampleN]
		for i, p := range perm {
			picked[i+1] = rest[p]
		}
		return picked
	}

	// Pass 1: single-valued.
	for _, f := range order {
		view := views[f]
		nz := len(view.Indices)

		var candidates []int
		for gi, g := range groups {
			if g.totalDataCnt+nz > b.SampleCount+singleValMaxConflict {
				continue
			}
			if b.UseGPU && g.numBin+deltaBin(view) > maxBinPerGroup {
				continue
			}
			candidates = append(candidates, gi)
		}

		accepted := -1
		if len(candidates) > 0 {
			searched := searchCandidates(candidates)
			for _, gi := range searched {
				g := groups[gi]
				restMaxCnt := singleValMaxConflict - g.totalDataCnt + g.usedRowCnt
				cnt := countConflicts(g.mark, view.Indices, restMaxCnt, 1)
				if cnt < 0 {
					continue
				}
				if cnt <= nz/2 {
					accepted = gi
					break
				}
			}
		}

		if accepted < 0 {
			g := &groupState{mark: make([]uint8, b.SampleCount)}
			groups = append(groups, g)
			accepted = len(groups) - 1
		}

		g := groups[accepted]
		g.features = append(g.features, f)
		cnt := 0
		for _, idx := range view.Indices {
			if g.mark[idx] > 0 {
				cnt++
			}
		}
		g.totalDataCnt += nz
		g.usedRowCnt += nz - cnt
		for _, idx := range view.Indices {
			g.mark[idx]++
		}
		g.numBin += view.NumBin
	}

	// Pass 2 split.
	var secondRound []int
	var keep []*groupState
	for _, g := range groups {
		denseRate := float64(g.usedRowCnt) / float64(maxInt(b.SampleCount, 1))
		if denseRate >= denseThreshold {
			g.forcedSingleVal = true
			keep = append(keep, g)
		} else {
			secondRound = append(secondRound, g.features...)
		}
	}
	groups = keep

	maxSamplesPerMultiVal := b.maxSamplesPerMultiValGroup()

	// Pass 2: multi-valued.
	for _, f := range secondRound {
		view := views[f]
		nz := len(view.Indices)

		var candidates []int
		for gi, g := range groups {
			if g.isMultiVal {
				if g.numBin+deltaBin(view) > maxBinPerMultiValGroup {
					continue
				}
			}
			limit := maxSamplesPerMultiVal
			if g.forcedSingleVal {
				limit = b.SampleCount + singleValMaxConflict
			}
			if g.totalDataCnt+nz > limit {
				continue
			}
			if b.UseGPU && g.numBin+deltaBin(view) > maxBinPerGroup {
				continue
			}
			candidates = append(candidates, gi)
		}

		bestGid := -1
		bestConflict := -1
		bestTotalDataCnt := 0

		if len(candidates) > 0 {
			searched := searchCandidates(candidates)
			for _, gi := range searched {
				g := groups[gi]
				maxFeatureCnt := maxConcurrentFeaturePerGroup
				restMaxCnt := b.SampleCount
				if g.forcedSingleVal {
					restMaxCnt = singleValMaxConflict - g.totalDataCnt + g.usedRowCnt
				}
				cnt := countConflicts(g.mark, view.Indices, restMaxCnt, maxFeatureCnt)
				if cnt < 0 {
					continue
				}

				better := false
				switch {
				case bestGid < 0:
					better = true
				case cnt < bestConflict:
					better = true
				case cnt == bestConflict:
					if g.forcedSingleVal && !groups[bestGid].forcedSingleVal {
						better = true
					} else if g.forcedSingleVal == groups[bestGid].forcedSingleVal && g.totalDataCnt < bestTotalDataCnt {
						better = true
					}
				}
				if better {
					bestGid = gi
					bestConflict = cnt
					bestTotalDataCnt = g.totalDataCnt
				}
				if cnt == 0 && g.forcedSingleVal {
					break
				}
			}
		}

		if bestGid < 0 {
			g := &groupState{mark: make([]uint8, b.SampleCount)}
			groups = append(groups, g)
			bestGid = len(groups) - 1
		}

		g := groups[bestGid]
		g.features = append(g.features, f)
		cnt := 0
		for _, idx := range view.Indices {
			if g.mark[idx] > 0 {
				cnt++
			}
		}
		g.totalDataCnt += nz
		g.usedRowCnt += nz - cnt
		for _, idx := range view.Indices {
			g.mark[idx]++
		}
		g.numBin += view.NumBin
		if !g.isMultiVal && g.totalDataCnt-g.usedRowCnt > singleValMaxConflict {
			g.isMultiVal = true
		}
	}

	result := &BundleResult{
		FeaturesInGroup: make([][]int, len(groups)),
		IsMultiVal:      make([]bool, len(groups)),
	}
	for i, g := range groups {
		result.FeaturesInGroup[i] = g.features
		result.IsMultiVal[i] = g.isMultiVal
	}
	return result
}

// countConflicts scans indices against mark (GetConfilctCount): a row
// already touched by another feature in the group (mark[idx] > 0) counts
// as a conflict; the scan aborts (-1) as soon as that row would push its
// mark past maxFeatureCnt, or the running conflict count reaches
// restMaxCnt.
func countConflicts(mark []uint8, indices []int32, restMaxCnt, maxFeatureCnt int) int {
	cnt := 0
	for _, idx := range indices {
		if mark[idx] > 0 {
			cnt++
			if int(mark[idx])+1 > maxFeatureCnt {
				return -1
			}
		}
		if cnt >= restMaxCnt {
			return -1
		}
	}
	return cnt
}

// FastFeatureBundling is the outer EFB driver (spec §4.4.5): it tries
// both the caller-supplied feature order and a dense-first order, keeps
// whichever produces fewer groups, then applies a deterministic shuffle.
func (b *Bundler) FastFeatureBundling(usedFeatures []int, views map[int]*FeatureSampleView) *BundleResult {
	if len(usedFeatures) == 0 {
		return &BundleResult{}
	}

	fixedViews := fixupSampleIndices(views, b.SampleCount)

	denseFirst := append([]int(nil), usedFeatures...)
	sort.SliceStable(denseFirst, func(i, j int) bool {
		return len(fixedViews[denseFirst[i]].Indices) > len(fixedViews[denseFirst[j]].Indices)
	})

	groupsA := b.FindGroups(usedFeatures, fixedViews)
	groupsB := b.FindGroups(denseFirst, fixedViews)

	chosen := groupsA
	if len(groupsB.FeaturesInGroup) < len(groupsA.FeaturesInGroup) {
		chosen = groupsB
	}

	shuffleGroups(chosen, b.NumData)

	numMultiVal := 0
	for _, v := range chosen.IsMultiVal {
		if v {
			numMultiVal++
		}
	}
	b.logger.Info("feature bundling complete",
		log.NumGroupsKey, len(chosen.FeaturesInGroup),
		log.NumMultiValGroupsKey, numMultiVal,
	)

	return chosen
}

// shuffleGroups applies the deterministic shuffle of spec §4.4.5 step 4:
// for i in [0, numGroup-1), draw j in [i+1, numGroup) with a fresh RNG
// seeded by seed, and swap both FeaturesInGroup[i]<->[j] and
// IsMultiVal[i]<->[j] in lock-step.
func shuffleGroups(result *BundleResult, seed int) {
	n := len(result.FeaturesInGroup)
	if n == 0 {
		return
	}
	rng := rand.New(rand.NewSource(int64(seed)))
	for i := 0; i < n-1; i++ {
		j := i + 1 + rng.Intn(n-i-1)
		result.FeaturesInGroup[i], result.FeaturesInGroup[j] = result.FeaturesInGroup[j], result.FeaturesInGroup[i]
		result.IsMultiVal[i], result.IsMultiVal[j] = result.IsMultiVal[j], result.IsMultiVal[i]
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
