package streamread

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/joeycumines/go-spex/internal/resolve"
	"github.com/joeycumines/go-spex/promise"
)

// Receiver consumes one accumulated batch of chunk values. A returned
// *promise.Deferred (or any other mixed value) is awaited before the driver
// reads again - the Go rendition of the spec's subscribe/unsubscribe
// back-pressure protocol.
type Receiver[T any] func(index int, chunk []T, delay time.Duration) resolve.Value

// Config configures a stream-read run. A zero Config uses the documented
// defaults.
type Config struct {
	// ReadSize, for ReadBytes only, is the size of each underlying
	// io.Reader.Read call. Defaults to 4096 if zero or negative - spec
	// §4.I's Open Question (c): ReadSize applies per underlying read, not
	// per receiver batch. Read[T] has no analogous knob: its "underlying
	// read" is always a single channel receive.
	ReadSize int

	// Adapter's Create builds the deferred that settles a receiver result
	// which is a [resolve.Coroutine]. Plain values, producers and
	// *promise.Deferred values are resolved directly and do not go through
	// the adapter. Nil uses [promise.Default].
	Adapter *promise.Adapter
}

func (c Config) adapter() *promise.Adapter {
	if c.Adapter != nil {
		return c.Adapter
	}
	return promise.Default
}

// Stats is the successful settlement of a stream-read run.
type Stats struct {
	// Calls counts receiver invocations.
	Calls int
	// Reads counts underlying read operations (channel receives, or
	// io.Reader.Read calls).
	Reads int
	// Length is the total number of chunk values observed.
	Length int
	// Duration is the elapsed wall-clock time from the call to settlement.
	Duration time.Duration
}

// Read drains ch in chunks, invoking receiver once per batch of values
// accumulated between receiver invocations, until ch is closed (the Go
// rendition of the stream's natural end - Go channels have no separate
// "closable" signal distinct from close, so both spec cases collapse to
// the same termination here) or the context is done.
//
// At most one receiver invocation is ever outstanding: Read blocks on its
// returned mixed value before reading from ch again.
func Read[T any](ctx context.Context, ch <-chan T, receiver Receiver[T], cfg Config) (Stats, error) {
	start := time.Now()
	var stats Stats
	var timer callTimer
	index := 0
	adapter := cfg.adapter()

	for {
		chunk, closed, err := drainOne(ctx, ch)
		if err != nil {
			return stats, err
		}
		stats.Reads += len(chunk)

		if len(chunk) > 0 {
			stats.Length += len(chunk)
			stats.Calls++
			outcome := resolve.Await(resolve.WrapValue(adapter, receiver(index, chunk, timer.next())))
			if !outcome.Success {
				return stats, asError(outcome.Result)
			}
			index++
		}

		if closed {
			stats.Duration = time.Since(start)
			return stats, nil
		}
	}
}

// drainOne blocks for at least one value (or closure/cancellation), then
// greedily drains whatever else is immediately available without blocking -
// the select-with-default discipline from longpoll.Channel's MaxSizeLoop.
func drainOne[T any](ctx context.Context, ch <-chan T) (chunk []T, closed bool, err error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case v, ok := <-ch:
		if !ok {
			return nil, true, nil
		}
		chunk = append(chunk, v)
	}

	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return chunk, true, nil
			}
			chunk = append(chunk, v)
		default:
			return chunk, false, nil
		}
	}
}

// ReadBytes drains r in fixed-size chunks (see Config.ReadSize), invoking
// receiver once per successful read, until r returns io.EOF or the context
// is done.
func ReadBytes(ctx context.Context, r io.Reader, receiver Receiver[byte], cfg Config) (Stats, error) {
	readSize := cfg.ReadSize
	if readSize <= 0 {
		readSize = 4096
	}

	start := time.Now()
	var stats Stats
	var timer callTimer
	index := 0
	adapter := cfg.adapter()
	buf := make([]byte, readSize)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		n, readErr := r.Read(buf)
		stats.Reads++

		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			stats.Length += n
			stats.Calls++
			outcome := resolve.Await(resolve.WrapValue(adapter, receiver(index, chunk, timer.next())))
			if !outcome.Success {
				return stats, asError(outcome.Result)
			}
			index++
		}

		if readErr != nil {
			if readErr == io.EOF {
				stats.Duration = time.Since(start)
				return stats, nil
			}
			return stats, readErr
		}
	}
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

func asError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}
