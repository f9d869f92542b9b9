// Package progress estimates completion of a transfer the backend reports
// nothing about while it runs.
//
// The numbers are a time-based heuristic for on-screen feedback only. They
// never decide whether a transfer finished; the backend call returning does.
package progress

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	// RampPerSecond is how many percent the estimate grows each second.
	RampPerSecond = 10.0
	// RunningCap is the highest percentage reported while still running.
	RunningCap = 90.0
	// Done is reported only after the backend call has returned.
	Done = 100.0
)

// Estimate is one poll result.
type Estimate struct {
	Percent float64
	// BytesPerSecond is zero when the size or elapsed time is unknown.
	BytesPerSecond float64
}

// ThroughputLabel renders the throughput, or "" when unreported.
func (e Estimate) ThroughputLabel() string {
	if e.BytesPerSecond <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(e.BytesPerSecond)) + "/s"
}

// Estimator tracks one transfer. It is owned by a single goroutine.
type Estimator struct {
	start time.Time
	size  int64
	last  float64
}

// NewEstimator starts tracking a transfer of size bytes (0 if unknown).
func NewEstimator(start time.Time, size int64) *Estimator {
	return &Estimator{start: start, size: size}
}

// Poll returns the estimate at now. Percentages never decrease between
// polls and stay at or below RunningCap.
func (e *Estimator) Poll(now time.Time) Estimate {
	elapsed := now.Sub(e.start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	percent := math.Min(RunningCap, elapsed*RampPerSecond)
	if percent < e.last {
		percent = e.last
	}
	e.last = percent

	est := Estimate{Percent: percent}
	if elapsed > 0 && e.size > 0 {
		est.BytesPerSecond = float64(e.size) * percent / 100 / elapsed
	}
	return est
}

// Complete reports the finished transfer. Call it only once the backend
// call has returned successfully.
func (e *Estimator) Complete(now time.Time) Estimate {
	e.last = Done
	est := Estimate{Percent: Done}
	if elapsed := now.Sub(e.start).Seconds(); elapsed > 0 && e.size > 0 {
		est.BytesPerSecond = float64(e.size) / elapsed
	}
	return est
}
