package spex

import (
	"context"

	"github.com/joeycumines/go-spex/batch"
	"github.com/joeycumines/go-spex/internal/resolve"
	"github.com/joeycumines/go-spex/page"
	"github.com/joeycumines/go-spex/promise"
	"github.com/joeycumines/go-spex/sequence"
	"github.com/joeycumines/go-spex/streamread"
)

// Instance bundles the batch, sequence, page and stream-read combinators
// over a single shared [promise.Adapter], matching this module's factory
// surface: everything built on top of one construction point.
type Instance struct {
	adapter *promise.Adapter
	opts    *Options
	Stream  *StreamInstance
}

// New constructs an Instance. A nil adapter selects the package's own
// built-in promise.Deferred implementation (promise.Default); a nil opts
// uses the documented defaults, including a disabled Logger.
func New(adapter *promise.Adapter, opts *Options) *Instance {
	if adapter == nil {
		adapter = promise.Default
	}
	if err := adapter.Validate(); err != nil {
		panic(err)
	}

	inst := &Instance{adapter: adapter, opts: opts}
	inst.Stream = &StreamInstance{inst: inst}
	return inst
}

// Adapter returns the Instance's promise.Adapter, for composing additional
// resolution logic against the same deferred-computation library.
func (inst *Instance) Adapter() *promise.Adapter { return inst.adapter }

// Batch drives every element of values to settlement concurrently; see
// package batch.
func (inst *Instance) Batch(ctx context.Context, values []resolve.Value, opts *batch.Options) ([]batch.Row, batch.Stats, error) {
	logger := inst.opts.logger()
	logger.Debug().Int(`elements`, len(values)).Log(`batch: starting`)

	merged := batch.Options{}
	if opts != nil {
		merged = *opts
	}
	merged.Adapter = inst.adapter

	rows, stat, err := batch.Run(ctx, values, &merged)
	if err != nil {
		logger.Err().Err(err).Log(`batch: settled with failures`)
		return rows, stat, err
	}

	logger.Debug().Dur(`duration`, stat.Duration).Log(`batch: settled`)
	return rows, stat, nil
}

// Sequence repeatedly pulls from source, optionally forwarding each
// resolved value to a sink; see package sequence.
func (inst *Instance) Sequence(ctx context.Context, source sequence.SourceFunc, opts *sequence.Options) (sequence.Result, error) {
	logger := inst.opts.logger()
	logger.Debug().Log(`sequence: starting`)

	merged := sequence.Options{}
	if opts != nil {
		merged = *opts
	}
	merged.Adapter = inst.adapter

	result, err := sequence.Run(ctx, source, &merged)
	if err != nil {
		logger.Err().Err(err).Log(`sequence: failed`)
		return result, err
	}

	logger.Debug().Int(`total`, result.Total).Dur(`duration`, result.Duration).Log(`sequence: settled`)
	return result, nil
}

// Page repeatedly pulls a page of values, batches it, and optionally
// forwards the batched outcome to a sink; see package page.
func (inst *Instance) Page(ctx context.Context, source page.SourceFunc, opts *page.Options) (page.Result, error) {
	logger := inst.opts.logger()
	logger.Debug().Log(`page: starting`)

	merged := page.Options{}
	if opts != nil {
		merged = *opts
	}
	merged.Adapter = inst.adapter

	result, err := page.Run(ctx, source, &merged)
	if err != nil {
		logger.Err().Err(err).Log(`page: failed`)
		return result, err
	}

	logger.Debug().Int(`pages`, result.Pages).Int(`total`, result.Total).Log(`page: settled`)
	return result, nil
}

// StreamInstance exposes the stream-read driver as a method of Instance,
// matching spec §6's `stream.read` factory surface.
type StreamInstance struct {
	inst *Instance
}

// Read drains ch in chunks; see [streamread.Read].
func (s *StreamInstance) Read(ctx context.Context, ch <-chan resolve.Value, receiver streamread.Receiver[resolve.Value], cfg streamread.Config) (streamread.Stats, error) {
	logger := s.inst.opts.logger()
	logger.Debug().Log(`stream.read: starting`)

	cfg.Adapter = s.inst.adapter

	stats, err := streamread.Read(ctx, ch, receiver, cfg)
	if err != nil {
		logger.Err().Err(err).Log(`stream.read: failed`)
		return stats, err
	}

	logger.Debug().Int(`calls`, stats.Calls).Int(`length`, stats.Length).Log(`stream.read: settled`)
	return stats, nil
}
