package dataset

// Metadata is the per-row side-information contract: labels, weights,
// init-scores, and query (ranking group) boundaries. The core never
// constructs one from raw input; it only consumes whatever the caller
// attaches to a Dataset.
type Metadata interface {
	// Label returns the per-row label/target vector, length num_data.
	Label() []float64
	SetLabel(label []float64) error

	// Weight returns the per-row sample weight vector, empty means
	// uniform weighting.
	Weight() []float64
	SetWeight(weight []float64) error

	// InitScore returns the per-row initial score vector, empty means
	// zero initial score.
	InitScore() []float64
	SetInitScore(initScore []float64) error

	// Query returns per-row query (ranking group) boundaries as a
	// monotonically increasing row-count prefix sum; empty means no
	// query grouping.
	Query() []int32
	SetQuery(boundaries []int32) error

	// NumData returns the row count this metadata was sized for.
	NumData() int

	// Resize changes the row count, e.g. for CreateValid/ReSize.
	Resize(numData int) error

	// CopySubset selects rows by indices into the receiver.
	CopySubset(source Metadata, indices []int) error
}

// SimpleMetadata is the reference Metadata implementation.
type SimpleMetadata struct {
	label     []float64
	weight    []float64
	initScore []float64
	query     []int32
	numData   int
}

// NewSimpleMetadata allocates metadata sized for numData rows with no
// labels, weights, init-scores, or query boundaries set.
func NewSimpleMetadata(numData int) *SimpleMetadata {
	return &SimpleMetadata{numData: numData}
}

func (m *SimpleMetadata) Label() []float64 { return m.label }

func (m *SimpleMetadata) SetLabel(label []float64) error {
	if len(label) != 0 && len(label) != m.numData {
		return newLengthMismatch("SimpleMetadata.SetLabel", m.numData, len(label))
	}
	m.label = label
	return nil
}

func (m *SimpleMetadata) Weight() []float64 { return m.weight }

func (m *SimpleMetadata) SetWeight(weight []float64) error {
	if len(weight) != 0 && len(weight) != m.numData {
		return newLengthMismatch("SimpleMetadata.SetWeight", m.numData, len(weight))
	}
	m.weight = weight
	return nil
}

func (m *SimpleMetadata) InitScore() []float64 { return m.initScore }

func (m *SimpleMetadata) SetInitScore(initScore []float64) error {
	if len(initScore) != 0 && len(initScore) != m.numData {
		return newLengthMismatch("SimpleMetadata.SetInitScore", m.numData, len(initScore))
	}
	m.initScore = initScore
	return nil
}

func (m *SimpleMetadata) Query() []int32 { return m.query }

func (m *SimpleMetadata) SetQuery(boundaries []int32) error {
	m.query = boundaries
	return nil
}

func (m *SimpleMetadata) NumData() int { return m.numData }

func (m *SimpleMetadata) Resize(numData int) error {
	m.numData = numData
	m.label = resizeFloat64(m.label, numData)
	m.weight = resizeFloat64(m.weight, numData)
	m.initScore = resizeFloat64(m.initScore, numData)
	return nil
}

func (m *SimpleMetadata) CopySubset(source Metadata, indices []int) error {
	src, ok := source.(*SimpleMetadata)
	if !ok {
		return newContractViolation("SimpleMetadata.CopySubset", "source is not a *SimpleMetadata")
	}
	m.numData = len(indices)
	m.label = gatherFloat64(src.label, indices)
	m.weight = gatherFloat64(src.weight, indices)
	m.initScore = gatherFloat64(src.initScore, indices)
	return nil
}

func resizeFloat64(v []float64, n int) []float64 {
	if len(v) == 0 {
		return v
	}
	out := make([]float64, n)
	copy(out, v)
	return out
}

func gatherFloat64(v []float64, indices []int) []float64 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}
