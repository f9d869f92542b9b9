package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/slmtnm/s4fs/internal/progress"
)

// DefaultPollInterval is how often progress is estimated while an item runs.
const DefaultPollInterval = 500 * time.Millisecond

// Action performs one item against the backend.
type Action func(ctx context.Context, item *Item) error

// Run is one batch: the items in execution order plus the flag that stops
// it. Offset and Span let several runs share one index/total display, e.g.
// the copy and delete phases of a folder rename.
type Run struct {
	Name   string
	Items  []*Item
	Cancel *Canceler
	OnDone func(Result)

	Offset int
	Span   int
}

func (r *Run) total() int {
	if r.Span > 0 {
		return r.Span
	}
	return len(r.Items)
}

// Option configures an Executor.
type Option func(*Executor)

// WithPollInterval sets how often progress events are produced.
func WithPollInterval(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithItemTimeout bounds each action call. Zero disables the bound.
func WithItemTimeout(d time.Duration) Option {
	return func(e *Executor) { e.itemTimeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// Executor runs batches strictly sequentially.
type Executor struct {
	sink         Sink
	log          zerolog.Logger
	pollInterval time.Duration
	itemTimeout  time.Duration
	now          func() time.Time
}

// NewExecutor creates an executor reporting to sink.
func NewExecutor(sink Sink, log zerolog.Logger, opts ...Option) *Executor {
	if sink == nil {
		sink = Discard
	}
	e := &Executor{
		sink:         sink,
		log:          log,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sink returns the executor's event sink.
func (e *Executor) Sink() Sink {
	return e.sink
}

// Run executes run.Items in order. Cancellation is checked before each
// item; an item already started always runs to completion. The first
// failing item stops the batch. run.OnDone is called exactly once.
func (e *Executor) Run(ctx context.Context, run *Run, action Action) (res Result) {
	res = Result{Name: run.Name, Total: len(run.Items)}
	log := e.log.With().Str("op", run.Name).Int("items", len(run.Items)).Logger()

	defer func() {
		log.Info().
			Str("outcome", res.Outcome.String()).
			Int("succeeded", res.Succeeded).
			Int("skipped", res.Skipped).
			Msg("batch finished")
		if run.OnDone != nil {
			run.OnDone(res)
		}
	}()

	total := run.total()
	for i, item := range run.Items {
		if run.Cancel.Cancelled() || ctx.Err() != nil {
			res.Outcome = Cancelled
			res.Skipped = skipRemaining(run.Items[i:])
			return res
		}

		index := run.Offset + i + 1
		item.State = StateInProgress
		e.sink.Send(ItemStartEvent{Op: run.Name, Label: item.Label, Index: index, Total: total})
		log.Debug().Str("item", item.Label).Int("index", index).Msg("item started")

		res.Attempted++
		interrupted, err := e.runItem(ctx, run, item, index, total, action)
		if err != nil {
			item.State = StateFailed
			item.Message = err.Error()
		} else {
			item.State = StateSucceeded
		}
		e.sink.Send(ItemResultEvent{
			Op:      run.Name,
			Label:   item.Label,
			Index:   index,
			Total:   total,
			OK:      err == nil,
			Message: item.Message,
		})

		// An item that was in flight when cancel arrived is recorded but
		// not counted, and the batch reports cancelled.
		if interrupted {
			res.Outcome = Cancelled
			res.Skipped = skipRemaining(run.Items[i+1:])
			return res
		}

		if err != nil {
			log.Warn().Str("item", item.Label).Err(err).Msg("item failed, aborting batch")
			res.Outcome = Failed
			res.FailedItem = item
			res.Message = item.Message
			return res
		}
		res.Succeeded++
	}

	res.Outcome = Completed
	return res
}

func skipRemaining(items []*Item) int {
	for _, item := range items {
		item.State = StateSkipped
	}
	return len(items)
}

// runItem calls action in its own goroutine and polls the progress
// estimator until it returns. interrupted reports whether cancel was
// requested before the action returned.
func (e *Executor) runItem(ctx context.Context, run *Run, item *Item, index, total int, action Action) (interrupted bool, err error) {
	itemCtx := ctx
	if e.itemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, e.itemTimeout)
		defer cancel()
	}

	// cancelled is sampled when the action returns, not when the loop
	// below wakes up, so a cancel landing in between does not discount an
	// item that already finished
	type returned struct {
		err       error
		cancelled bool
	}
	done := make(chan returned, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- returned{err: fmt.Errorf("panic: %v", r), cancelled: run.Cancel.Cancelled()}
			}
		}()
		err := action(itemCtx, item)
		done <- returned{err: err, cancelled: run.Cancel.Cancelled()}
	}()

	est := progress.NewEstimator(e.now(), item.Size)
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	expired := itemCtx.Done()
	for {
		select {
		case r := <-done:
			err, interrupted = r.err, r.cancelled
			if err == nil && !interrupted {
				e.sendProgress(run, item, index, total, est.Complete(e.now()))
			}
			return interrupted, err

		case <-ticker.C:
			// polls stop reporting once cancel is requested; the call
			// itself is left to finish
			if run.Cancel.Cancelled() {
				continue
			}
			e.sendProgress(run, item, index, total, est.Poll(e.now()))

		case <-expired:
			if ctx.Err() == nil && errors.Is(itemCtx.Err(), context.DeadlineExceeded) {
				return run.Cancel.Cancelled(), fmt.Errorf("timed out after %s", e.itemTimeout)
			}
			// parent cancelled: the action sees ctx and returns on its own
			expired = nil
		}
	}
}

func (e *Executor) sendProgress(run *Run, item *Item, index, total int, est progress.Estimate) {
	e.sink.Send(ProgressEvent{
		Op:         run.Name,
		Label:      item.Label,
		Index:      index,
		Total:      total,
		Percent:    est.Percent,
		Throughput: est.ThroughputLabel(),
	})
}
