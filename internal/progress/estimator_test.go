package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestEstimator_LinearRampCapped(t *testing.T) {
	e := NewEstimator(t0, 0)

	tests := []struct {
		after    time.Duration
		expected float64
	}{
		{0, 0},
		{500 * time.Millisecond, 5},
		{3 * time.Second, 30},
		{9 * time.Second, 90},
		{60 * time.Second, 90},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.expected, e.Poll(t0.Add(tt.after)).Percent, 0.001, "after %s", tt.after)
	}
}

func TestEstimator_MonotonicAndNeverDoneWhileRunning(t *testing.T) {
	e := NewEstimator(t0, 1<<20)

	last := -1.0
	for i := 0; i < 40; i++ {
		est := e.Poll(t0.Add(time.Duration(i) * 500 * time.Millisecond))
		assert.GreaterOrEqual(t, est.Percent, last)
		assert.Less(t, est.Percent, Done)
		last = est.Percent
	}

	// a clock stepping backwards must not lower the estimate
	assert.Equal(t, last, e.Poll(t0).Percent)

	assert.Equal(t, Done, e.Complete(t0.Add(time.Minute)).Percent)
}

func TestEstimator_Throughput(t *testing.T) {
	e := NewEstimator(t0, 10_000_000)

	est := e.Poll(t0.Add(2 * time.Second))
	// 20% of 10MB over 2s
	assert.InDelta(t, 1_000_000, est.BytesPerSecond, 0.001)
	assert.Equal(t, "1.0 MB/s", est.ThroughputLabel())

	unknown := NewEstimator(t0, 0).Poll(t0.Add(2 * time.Second))
	assert.Zero(t, unknown.BytesPerSecond)
	assert.Empty(t, unknown.ThroughputLabel())

	atStart := NewEstimator(t0, 100).Poll(t0)
	assert.Zero(t, atStart.BytesPerSecond)
}
