package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractViolation(t *testing.T) {
	err := NewContractViolation("CopySubset", "expected %d rows, got %d", 10, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CopySubset")
	assert.Contains(t, err.Error(), "contract violation")
	assert.Contains(t, err.Error(), "expected 10 rows, got 7")

	var cv *ContractViolation
	assert.True(t, As(err, &cv))
	assert.Equal(t, "CopySubset", cv.Op)
}

func TestWarning(t *testing.T) {
	err := NewWarning("ResetConfig", "max_bin cannot be changed after construction")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ResetConfig")

	var w *Warning
	assert.True(t, As(err, &w))
}

func TestWarnUsesRegisteredHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(func(error) {}) // avoid leaking into other tests

	w := NewWarning("ResetConfig", "no meaningful features after bundling")
	Warn(w)

	assert.Equal(t, w, captured)
}

func TestWrapPreservesMessage(t *testing.T) {
	base := New("boom")
	wrapped := Wrapf(base, "while loading group %d", 3)
	assert.Contains(t, wrapped.Error(), "while loading group 3")
	assert.Contains(t, wrapped.Error(), "boom")
	assert.True(t, Is(wrapped, base))
}
