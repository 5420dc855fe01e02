package spexerrors

import (
	"fmt"
	"strings"
	"time"
)

// Row is a single outcome row produced by the batch combinator (spec §3,
// "Batch result row"). Origin is set only when Success is false and the
// failure originated from the user resolving with a rejected deferred,
// rather than a thrown panic - this lets BatchError disambiguate intent the
// way spec §7 requires.
type Row struct {
	Success bool
	Result  any
	Origin  *Row
}

// Stats is the aggregate statistics produced by the batch combinator (spec
// §3, "Batch statistics").
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// BatchError reports that one or more elements of a batch failed to settle.
// It is an all-settled aggregate error, grounded directly on the teacher's
// AggregateError: order-preserving Data, an Unwrap exposing every failure
// for errors.Is/errors.As, and a First/Errors view mirroring the spec's
// "first" and "getErrors()".
type BatchError struct {
	Data  []Row
	Stat  Stats
	First any

	stack []uintptr
}

// NewBatchError builds a BatchError from a settled outcome row set. captureStack
// controls whether a creation stack trace is captured (see [CaptureStack]);
// it is normally driven by the batch package's debug-mode option.
func NewBatchError(data []Row, stat Stats, captureStack bool) *BatchError {
	e := &BatchError{Data: data, Stat: stat}
	for _, row := range data {
		if !row.Success {
			e.First = row.Result
			break
		}
	}
	if captureStack {
		e.stack = CaptureStack(2)
	}
	return e
}

// Error implements the error interface.
func (e *BatchError) Error() string { return e.Format(0) }

// Errors returns only the failure Results, in index order, per spec
// §4.E's getErrors().
func (e *BatchError) Errors() []any {
	out := make([]any, 0, e.Stat.Failed)
	for _, row := range e.Data {
		if !row.Success {
			out = append(out, row.Result)
		}
	}
	return out
}

// Unwrap exposes every failure that is itself an error, for
// errors.Is/errors.As (Go 1.20+ multi-error unwrap), mirroring
// AggregateError.Unwrap.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, e.Stat.Failed)
	for _, row := range e.Data {
		if row.Success {
			continue
		}
		if err, ok := row.Result.(error); ok {
			errs = append(errs, err)
		}
	}
	return errs
}

// Format pretty-prints the error, indenting nested causes proportional to
// level, per spec §4.E/§6.
func (e *BatchError) Format(level int) string {
	indent := strings.Repeat("  ", level)
	var b strings.Builder
	fmt.Fprintf(&b, "%sBatchError: %s\n", indent, e.summary())
	fmt.Fprintf(&b, "%s  total=%d succeeded=%d failed=%d duration=%s\n",
		indent, e.Stat.Total, e.Stat.Succeeded, e.Stat.Failed, e.Stat.Duration)
	for i, row := range e.Data {
		if row.Success {
			continue
		}
		fmt.Fprintf(&b, "%s  [%d] %s\n", indent, i, formatCause(row.Result, level+2))
	}
	if len(e.stack) > 0 {
		fmt.Fprintf(&b, "%s%s\n", indent, FormatStack(e.stack))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *BatchError) summary() string {
	switch v := e.First.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%d of %d elements failed", e.Stat.Failed, e.Stat.Total)
	}
}

// PageReason is the stable reason code for a [PageError], per spec §4.E.
type PageReason int

const (
	// PageReasonBatchRejected: batch on a page rejected.
	PageReasonBatchRejected PageReason = iota
	// PageReasonSourceThrew: source threw.
	PageReasonSourceThrew
	// PageReasonSourceRejected: source's resolved deferred rejected.
	PageReasonSourceRejected
	// PageReasonSinkRejected: sink returned a rejected deferred.
	PageReasonSinkRejected
	// PageReasonSinkThrew: sink threw.
	PageReasonSinkThrew
	// PageReasonSourceInvalidType: source returned a non-array, non-nil value.
	PageReasonSourceInvalidType
)

func (r PageReason) String() string {
	switch r {
	case PageReasonBatchRejected:
		return "batch on a page rejected"
	case PageReasonSourceThrew:
		return "source threw"
	case PageReasonSourceRejected:
		return "source returned a rejected deferred"
	case PageReasonSinkRejected:
		return "sink returned a rejected deferred"
	case PageReasonSinkThrew:
		return "sink threw"
	case PageReasonSourceInvalidType:
		return "source returned a non-array, non-nil value"
	default:
		return fmt.Sprintf("PageReason(%d)", int(r))
	}
}

// PageError reports an iteration failure from the page driver, per spec
// §4.E/§4.H. At most one of Source/Dest is set: Dest for a sink failure,
// Source for a source failure after the first page. A source failure at
// index 0 (no previous batch yet) and PageReasonBatchRejected set neither.
type PageError struct {
	Err      error
	Index    int
	Duration time.Duration
	Reason   PageReason
	Source   any
	Dest     any

	stack []uintptr
}

// NewPageError builds a PageError, capturing a creation stack when requested.
func NewPageError(err error, index int, duration time.Duration, reason PageReason, source, dest any, captureStack bool) *PageError {
	e := &PageError{Err: err, Index: index, Duration: duration, Reason: reason, Source: source, Dest: dest}
	if captureStack {
		e.stack = CaptureStack(2)
	}
	return e
}

// Error implements the error interface.
func (e *PageError) Error() string { return e.Format(0) }

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *PageError) Unwrap() error { return e.Err }

// Format pretty-prints the error, per spec §4.E/§6.
func (e *PageError) Format(level int) string {
	indent := strings.Repeat("  ", level)
	var b strings.Builder
	fmt.Fprintf(&b, "%sPageError: index=%d reason=%q duration=%s\n", indent, e.Index, e.Reason, e.Duration)
	fmt.Fprintf(&b, "%s  cause: %s\n", indent, formatCause(e.Err, level+2))
	if e.Source != nil {
		fmt.Fprintf(&b, "%s  source: %v\n", indent, e.Source)
	}
	if e.Dest != nil {
		fmt.Fprintf(&b, "%s  dest: %v\n", indent, e.Dest)
	}
	if len(e.stack) > 0 {
		fmt.Fprintf(&b, "%s%s\n", indent, FormatStack(e.stack))
	}
	return strings.TrimRight(b.String(), "\n")
}

// SequenceReason is the stable reason code for a [SequenceError], per spec
// §4.E.
type SequenceReason int

const (
	// SequenceReasonSourceRejected: source rejected (via deferred).
	SequenceReasonSourceRejected SequenceReason = iota
	// SequenceReasonSourceThrew: source threw (panicked).
	SequenceReasonSourceThrew
	// SequenceReasonSinkRejected: sink rejected (via deferred).
	SequenceReasonSinkRejected
	// SequenceReasonSinkThrew: sink threw.
	SequenceReasonSinkThrew
)

func (r SequenceReason) String() string {
	switch r {
	case SequenceReasonSourceRejected:
		return "source rejected"
	case SequenceReasonSourceThrew:
		return "source threw"
	case SequenceReasonSinkRejected:
		return "sink rejected"
	case SequenceReasonSinkThrew:
		return "sink threw"
	default:
		return fmt.Sprintf("SequenceReason(%d)", int(r))
	}
}

// SequenceError reports an iteration failure from the sequence driver, per
// spec §4.E/§4.G. At most one of Source/Dest is set: Dest for a sink
// failure, Source (the last resolved value) for a source failure after the
// first iteration. A source failure at index 0 sets neither.
type SequenceError struct {
	Err      error
	Index    int
	Duration time.Duration
	Reason   SequenceReason
	Source   any
	Dest     any

	stack []uintptr
}

// NewSequenceError builds a SequenceError, capturing a creation stack when
// requested.
func NewSequenceError(err error, index int, duration time.Duration, reason SequenceReason, source, dest any, captureStack bool) *SequenceError {
	e := &SequenceError{Err: err, Index: index, Duration: duration, Reason: reason, Source: source, Dest: dest}
	if captureStack {
		e.stack = CaptureStack(2)
	}
	return e
}

// Error implements the error interface.
func (e *SequenceError) Error() string { return e.Format(0) }

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *SequenceError) Unwrap() error { return e.Err }

// Format pretty-prints the error, per spec §4.E/§6.
func (e *SequenceError) Format(level int) string {
	indent := strings.Repeat("  ", level)
	var b strings.Builder
	fmt.Fprintf(&b, "%sSequenceError: index=%d reason=%q duration=%s\n", indent, e.Index, e.Reason, e.Duration)
	fmt.Fprintf(&b, "%s  cause: %s\n", indent, formatCause(e.Err, level+2))
	if e.Source != nil {
		fmt.Fprintf(&b, "%s  source: %v\n", indent, e.Source)
	}
	if e.Dest != nil {
		fmt.Fprintf(&b, "%s  dest: %v\n", indent, e.Dest)
	}
	if len(e.stack) > 0 {
		fmt.Fprintf(&b, "%s%s\n", indent, FormatStack(e.stack))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatter is implemented by every error type in this package, letting
// formatCause recurse with correctly increasing indentation instead of
// falling back to a flat %v, per spec §6's "nested errors of the library's
// own kinds are recursively printed at increased indentation".
type formatter interface {
	Format(level int) string
}

func formatCause(v any, level int) string {
	if f, ok := v.(formatter); ok {
		return strings.TrimLeft(f.Format(level), " ")
	}
	return fmt.Sprintf("%v", v)
}
