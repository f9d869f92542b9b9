// Package batch runs ordered lists of single-object operations one at a
// time, with progress events, cooperative cancellation and
// abort-on-first-failure.
package batch

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// State is the lifecycle of one Item.
type State int

const (
	StatePending State = iota
	StateInProgress
	StateSucceeded
	StateFailed
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInProgress:
		return "in-progress"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	}
	return "unknown"
}

// Item is one unit of work. Source and Dest are whatever locators the
// action needs (object keys or local paths).
type Item struct {
	Label   string
	Source  string
	Dest    string
	Size    int64
	State   State
	Message string
}

// Canceler is a write-once cancellation flag shared between the goroutine
// that requests cancellation and the one running the batch. A nil
// Canceler is never cancelled.
type Canceler struct {
	flag atomic.Bool
}

// NewCanceler returns an unset flag.
func NewCanceler() *Canceler {
	return &Canceler{}
}

// Cancel sets the flag and reports whether this call was the one that set it.
func (c *Canceler) Cancel() bool {
	return c.flag.CompareAndSwap(false, true)
}

// Cancelled reports whether Cancel has been called.
func (c *Canceler) Cancelled() bool {
	return c != nil && c.flag.Load()
}

// Outcome is how a batch ended.
type Outcome int

const (
	Completed Outcome = iota
	Failed
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// ErrCancelled is returned by Result.Err for cancelled batches.
var ErrCancelled = errors.New("operation cancelled")

// Result is the final tally handed to the caller once a batch ends.
type Result struct {
	Name      string
	Outcome   Outcome
	Total     int
	Attempted int
	Succeeded int
	Skipped   int
	// FailedItem and Message describe the item that aborted the batch.
	FailedItem *Item
	Message    string
}

// Summary renders the terminal message shown to the user.
func (r Result) Summary() string {
	switch r.Outcome {
	case Failed:
		label := ""
		if r.FailedItem != nil {
			label = r.FailedItem.Label
		}
		return fmt.Sprintf("%s failed on %s: %s", r.Name, label, r.Message)
	case Cancelled:
		return fmt.Sprintf("%s cancelled (%d succeeded, %d skipped)", r.Name, r.Succeeded, r.Skipped)
	}
	return fmt.Sprintf("%s complete: %d/%d succeeded", r.Name, r.Succeeded, r.Total)
}

// Err converts the outcome into an error for callers that only need
// success or failure.
func (r Result) Err() error {
	switch r.Outcome {
	case Failed:
		return errors.New(r.Summary())
	case Cancelled:
		return ErrCancelled
	}
	return nil
}
