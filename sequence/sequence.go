package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-spex/internal/resolve"
	"github.com/joeycumines/go-spex/promise"
	"github.com/joeycumines/go-spex/spexerrors"
)

// ErrSourceRequired is returned when Run is called with a nil source,
// the Go rendition of spec §4.G's "passing a non-callable source rejects
// synchronously with a typed error."
var ErrSourceRequired = errors.New("spex/sequence: source is required")

// SourceFunc pulls the next mixed value of a sequence. index is the
// strictly-increasing iteration counter, starting at 0. lastData is the
// previously resolved value (nil on the first call) - a detached source
// simply ignores it, a linked one feeds it forward. delay is the elapsed
// time since the previous source call started (zero on the first call). A
// nil Value (resolved or otherwise) terminates the sequence successfully.
type SourceFunc func(index int, lastData any, delay time.Duration) resolve.Value

// SinkFunc consumes a single resolved value.
type SinkFunc func(index int, value any, delay time.Duration) resolve.Value

// Options configures a sequence run. A nil *Options uses the documented
// defaults.
type Options struct {
	// Limit bounds the number of iterations. Zero (the default) means
	// unlimited - the sequence runs until the source yields nil.
	Limit int

	// Track, if true, accumulates every resolved value into Result.Values.
	Track bool

	// Sink, if set, is invoked with every resolved value.
	Sink SinkFunc

	// RateLimit, if non-empty, gates both source and sink calls through a
	// catrate.Limiter built from these sliding-window rates.
	RateLimit map[time.Duration]int

	// CaptureStack enables stack-trace capture on a returned
	// *spexerrors.SequenceError.
	CaptureStack bool

	// Adapter's Create builds the deferred that settles a source or sink
	// result which is a [resolve.Coroutine]. Plain values, producers and
	// *promise.Deferred values are resolved directly and do not go through
	// the adapter. Nil uses [promise.Default].
	Adapter *promise.Adapter
}

func (o *Options) adapter() *promise.Adapter {
	if o != nil && o.Adapter != nil {
		return o.Adapter
	}
	return promise.Default
}

// Result is the successful settlement of a sequence run.
type Result struct {
	// Total is the number of completed iterations.
	Total int
	// Duration is the elapsed wall-clock time from Run to settlement.
	Duration time.Duration
	// Values holds every resolved value, in order, when Options.Track is
	// set; nil otherwise.
	Values []any
}

// Run drives source repeatedly, starting at index 0, until it yields nil or
// the configured Limit is reached, optionally forwarding each resolved
// value to a sink. At most one source or sink call is ever outstanding.
//
// The driver is an ordinary blocking for loop: resolve.Await resumes it
// directly regardless of whether the mixed value settled synchronously or
// asynchronously, so stack usage never grows with iteration count - see
// DESIGN.md's sequence entry for why this satisfies the spec's stack-guard
// law without a separate trampoline.
func Run(ctx context.Context, source SourceFunc, opts *Options) (Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	if source == nil {
		return Result{}, ErrSourceRequired
	}

	start := time.Now()

	var limiter *catrate.Limiter
	if len(opts.RateLimit) > 0 {
		limiter = catrate.NewLimiter(opts.RateLimit)
	}

	var (
		lastData    any
		values      []any
		sourceCalls callTimer
		sinkCalls   callTimer
		index       int
	)

	adapter := opts.adapter()

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		awaitRate(limiter, "source")
		outcome := resolve.Await(resolve.WrapValue(adapter, source(index, lastData, sourceCalls.next())))
		if !outcome.Success {
			reason := spexerrors.SequenceReasonSourceThrew
			if outcome.IsDeferredRejection {
				reason = spexerrors.SequenceReasonSourceRejected
			}
			return Result{}, spexerrors.NewSequenceError(asError(outcome.Result), index, time.Since(start), reason, lastData, nil, opts.CaptureStack)
		}
		if outcome.Result == nil {
			return settle(opts, values, index, start), nil
		}

		lastData = outcome.Result
		if opts.Track {
			values = append(values, outcome.Result)
		}

		if opts.Sink != nil {
			awaitRate(limiter, "sink")
			sinkOutcome := resolve.Await(resolve.WrapValue(adapter, opts.Sink(index, outcome.Result, sinkCalls.next())))
			if !sinkOutcome.Success {
				reason := spexerrors.SequenceReasonSinkThrew
				if sinkOutcome.IsDeferredRejection {
					reason = spexerrors.SequenceReasonSinkRejected
				}
				return Result{}, spexerrors.NewSequenceError(asError(sinkOutcome.Result), index, time.Since(start), reason, nil, outcome.Result, opts.CaptureStack)
			}
		}

		index++
		if opts.Limit > 0 && index == opts.Limit {
			return settle(opts, values, index, start), nil
		}
	}
}

func settle(opts *Options, values []any, total int, start time.Time) Result {
	r := Result{Total: total, Duration: time.Since(start)}
	if opts.Track {
		if values == nil {
			values = []any{}
		}
		r.Values = values
	}
	return r
}

// callTimer measures the delay since the previous call of a sequential
// callback, matching spec §4.G's "delayMs is undefined for index 0, else
// milliseconds since the previous call started."
type callTimer struct {
	started bool
	last    time.Time
}

func (c *callTimer) next() time.Duration {
	now := time.Now()
	var delay time.Duration
	if c.started {
		delay = now.Sub(c.last)
	}
	c.started = true
	c.last = now
	return delay
}

// awaitRate blocks until limiter allows another event in category, or does
// nothing if limiter is nil.
func awaitRate(limiter *catrate.Limiter, category string) {
	if limiter == nil {
		return
	}
	for {
		next, ok := limiter.Allow(category)
		if ok {
			return
		}
		if d := time.Until(next); d > 0 {
			time.Sleep(d)
		}
	}
}

func asError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}
