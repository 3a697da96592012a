package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	const n = 997 // deliberately not a multiple of NumCPU
	seen := make([]int32, n)

	Parallelize(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})

	for i, count := range seen {
		assert.Equal(t, int32(1), count, "item %d visited %d times", i, count)
	}
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	Parallelize(0, func(start, end int) { called = true })
	assert.False(t, called)
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	var goroutineRanges [][2]int
	ParallelizeWithThreshold(4, 8, func(start, end int) {
		goroutineRanges = append(goroutineRanges, [2]int{start, end})
	})
	assert.Equal(t, [][2]int{{0, 4}}, goroutineRanges)
}

func TestParallelizeErrReturnsFirstError(t *testing.T) {
	sentinel := errors.New("boom")

	err := ParallelizeErr(64, func(start, end int) error {
		if start == 0 {
			return sentinel
		}
		return nil
	})

	assert.ErrorIs(t, err, sentinel)
}

func TestParallelizeErrNilWhenAllSucceed(t *testing.T) {
	var total atomic.Int64
	err := ParallelizeErr(128, func(start, end int) error {
		total.Add(int64(end - start))
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(128), total.Load())
}

func TestParallelizeErrCapturesPanic(t *testing.T) {
	err := ParallelizeErr(16, func(start, end int) error {
		if start == 0 {
			panic("worker exploded")
		}
		return nil
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "worker exploded")
}
