// Package spexerrors provides the structured error types shared by batch,
// sequence and page: [BatchError] (an all-settled aggregate, grounded on the
// teacher's AggregateError), and [SequenceError] / [PageError] (single-cause
// iteration failures carrying a reason code, an index, and an elapsed
// duration).
//
// All three implement the standard error interface plus Unwrap, so they
// compose with errors.Is/errors.As the same way the teacher's
// eventloop.AggregateError and eventloop.TypeError do.
package spexerrors
