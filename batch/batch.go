package batch

import (
	"context"
	"sync"
	"time"

	"github.com/joeycumines/go-spex/internal/resolve"
	"github.com/joeycumines/go-spex/promise"
	"github.com/joeycumines/go-spex/spexerrors"
	"golang.org/x/sync/errgroup"
)

// Row is a single outcome row, index-aligned to the input slice.
type Row = spexerrors.Row

// Stats is the aggregate outcome statistics for a batch run.
type Stats = spexerrors.Stats

// Tracker observes each element's settlement as it happens, receiving the
// element's index, whether it succeeded, its result (or failure reason), and
// the elapsed time since the previous tracker invocation started (zero for
// the first invocation). If Tracker returns a non-nil mixed value that
// fails to resolve, that failure is substituted into the recorded row -
// the row's own settlement does not abort its peers either way.
type Tracker func(index int, success bool, result any, delay time.Duration) resolve.Value

// Options configures a batch run. A nil *Options uses the documented
// defaults, matching the teacher's BatcherConfig/ChannelConfig convention.
type Options struct {
	// Concurrency caps the number of elements resolved at once. Zero (the
	// default) means unlimited - every element is dispatched immediately.
	Concurrency int

	// Tracker, if set, is invoked once per element as it settles.
	Tracker Tracker

	// CaptureStack enables stack-trace capture on the returned
	// *spexerrors.BatchError, see spexerrors.CaptureStack.
	CaptureStack bool

	// Adapter's Create builds the deferred that settles an element or
	// tracker result which is a [resolve.Coroutine]. Plain values,
	// producers and *promise.Deferred values are resolved directly and do
	// not go through the adapter. Nil uses [promise.Default].
	Adapter *promise.Adapter
}

func (o *Options) adapter() *promise.Adapter {
	if o != nil && o.Adapter != nil {
		return o.Adapter
	}
	return promise.Default
}

// Run drives every element of values to settlement concurrently and returns
// an index-aligned outcome slice. It never returns early on an individual
// element's failure (all-settled semantics); it returns a non-nil error,
// a *spexerrors.BatchError, only once every element has settled and at
// least one failed.
//
// An empty values resolves synchronously with an empty, non-nil slice and a
// zero Stats.Duration - the spec's "synchronous fast path".
func Run(ctx context.Context, values []resolve.Value, opts *Options) ([]Row, Stats, error) {
	if opts == nil {
		opts = &Options{}
	}

	start := time.Now()

	if len(values) == 0 {
		return []Row{}, Stats{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	rows := make([]Row, len(values))

	var ts trackerState
	g, _ := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	adapter := opts.adapter()
	for i, v := range values {
		i, v := i, v
		g.Go(func() error {
			resolveElement(i, v, rows, opts.Tracker, &ts, adapter)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error; failures are recorded per-row

	stat := Stats{Total: len(rows), Duration: time.Since(start)}
	for _, row := range rows {
		if row.Success {
			stat.Succeeded++
		} else {
			stat.Failed++
		}
	}

	if stat.Failed > 0 {
		return rows, stat, spexerrors.NewBatchError(rows, stat, opts.CaptureStack)
	}
	return rows, stat, nil
}

// trackerState serializes Tracker invocations and tracks the inter-call
// delay, the way a single-threaded host would naturally serialize the
// equivalent callback.
type trackerState struct {
	mu      sync.Mutex
	started bool
	last    time.Time
}

func (ts *trackerState) call(tracker Tracker, index int, success bool, result any) resolve.Value {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now()
	var delay time.Duration
	if ts.started {
		delay = now.Sub(ts.last)
	}
	ts.started = true
	ts.last = now

	return tracker(index, success, result, delay)
}

func resolveElement(index int, v resolve.Value, rows []Row, tracker Tracker, ts *trackerState, adapter *promise.Adapter) {
	outcome := resolve.Await(resolve.WrapValue(adapter, v))
	row := Row{Success: outcome.Success, Result: outcome.Result}
	if !outcome.Success && outcome.IsDeferredRejection {
		row.Origin = &Row{Success: false, Result: outcome.Result}
	}

	if tracker != nil {
		if trackerResult := ts.call(tracker, index, row.Success, row.Result); trackerResult != nil {
			substituteTrackerOutcome(trackerResult, &row, adapter)
		}
	}

	rows[index] = row
}

// substituteTrackerOutcome resolves the tracker's own returned mixed value
// and, if it fails, substitutes its rejection into row - the row's own
// settlement is overridden, but peers are unaffected.
func substituteTrackerOutcome(v resolve.Value, row *Row, adapter *promise.Adapter) {
	outcome := resolve.Await(resolve.WrapValue(adapter, v))
	if !outcome.Success {
		row.Success = false
		row.Result = outcome.Result
	}
}
