package page

import (
	"context"
	"errors"
	"fmt"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-spex/batch"
	"github.com/joeycumines/go-spex/internal/resolve"
	"github.com/joeycumines/go-spex/promise"
	"github.com/joeycumines/go-spex/spexerrors"
)

// ErrSourceRequired is returned when Run is called with a nil source.
var ErrSourceRequired = errors.New("spex/page: source is required")

// SourceFunc pulls the next page: a slice of mixed values to batch
// together, or nil to terminate the driver successfully. previousPageBatch
// is the batched outcome of the previous page (nil on the first call),
// exactly as spec §4.H's Open Question (a) resolves: the sink - and here,
// symmetrically, the next source call - observes outcome rows, not raw
// values.
type SourceFunc func(index int, previousPageBatch []batch.Row, delay time.Duration) resolve.Value

// SinkFunc consumes one page's batched outcome.
type SinkFunc func(index int, batchOutcome []batch.Row, delay time.Duration) resolve.Value

// Options configures a page run. A nil *Options uses the documented
// defaults.
type Options struct {
	// Limit bounds the number of pages. Zero (the default) means unlimited.
	Limit int

	// Sink, if set, is invoked with every page's batched outcome.
	Sink SinkFunc

	// BatchOptions configures the per-page batch.Run call; nil uses
	// batch's own defaults.
	BatchOptions *batch.Options

	// RateLimit, if non-empty, gates both source and sink calls through a
	// catrate.Limiter built from these sliding-window rates.
	RateLimit map[time.Duration]int

	// CaptureStack enables stack-trace capture on a returned
	// *spexerrors.PageError.
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

// Result is the successful settlement of a page run.
type Result struct {
	// Pages is the number of pages processed.
	Pages int
	// Total is the number of elements across all processed pages.
	Total int
	// Duration is the elapsed wall-clock time from Run to settlement.
	Duration time.Duration
}

// Run drives source repeatedly, batching each resolved page and optionally
// forwarding the batched outcome to a sink, until source yields nil or the
// configured Limit is reached.
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
		previousBatch          []batch.Row
		havePreviousBatch      bool
		sourceCalls, sinkCalls callTimer
		index, total           int
	)

	adapter := opts.adapter()

	batchOptions := opts.BatchOptions
	if batchOptions == nil || batchOptions.Adapter == nil {
		merged := batch.Options{}
		if batchOptions != nil {
			merged = *batchOptions
		}
		merged.Adapter = adapter
		batchOptions = &merged
	}

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		awaitRate(limiter, "source")
		outcome := resolve.Await(resolve.WrapValue(adapter, source(index, previousBatch, sourceCalls.next())))
		if !outcome.Success {
			reason := spexerrors.PageReasonSourceThrew
			if outcome.IsDeferredRejection {
				reason = spexerrors.PageReasonSourceRejected
			}
			return Result{}, spexerrors.NewPageError(asError(outcome.Result), index, time.Since(start), reason, sourceArg(previousBatch, havePreviousBatch), nil, opts.CaptureStack)
		}
		if outcome.Result == nil {
			return Result{Pages: index, Total: total, Duration: time.Since(start)}, nil
		}

		values, ok := outcome.Result.([]resolve.Value)
		if !ok {
			err := errors.New("page source resolved to a non-slice value")
			return Result{}, spexerrors.NewPageError(err, index, time.Since(start), spexerrors.PageReasonSourceInvalidType, sourceArg(previousBatch, havePreviousBatch), nil, opts.CaptureStack)
		}

		rows, _, err := batch.Run(ctx, values, batchOptions)
		if err != nil {
			return Result{}, spexerrors.NewPageError(err, index, time.Since(start), spexerrors.PageReasonBatchRejected, nil, nil, opts.CaptureStack)
		}

		total += len(values)
		previousBatch = rows
		havePreviousBatch = true

		if opts.Sink != nil {
			awaitRate(limiter, "sink")
			sinkOutcome := resolve.Await(resolve.WrapValue(adapter, opts.Sink(index, rows, sinkCalls.next())))
			if !sinkOutcome.Success {
				reason := spexerrors.PageReasonSinkThrew
				if sinkOutcome.IsDeferredRejection {
					reason = spexerrors.PageReasonSinkRejected
				}
				return Result{}, spexerrors.NewPageError(asError(sinkOutcome.Result), index, time.Since(start), reason, nil, rows, opts.CaptureStack)
			}
		}

		index++
		if opts.Limit > 0 && index == opts.Limit {
			return Result{Pages: index, Total: total, Duration: time.Since(start)}, nil
		}
	}
}

// sourceArg returns previousBatch boxed as any, or a true nil when no
// previous batch exists yet - a bare nil []batch.Row boxes into a non-nil
// interface, which would make PageError.Format treat index 0's failure as
// having a populated source.
func sourceArg(previousBatch []batch.Row, have bool) any {
	if !have {
		return nil
	}
	return previousBatch
}

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
