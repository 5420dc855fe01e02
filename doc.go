// Package spex implements a library of asynchronous control-flow
// combinators for orchestrating heterogeneous computations - plain values,
// deferred computations, producer functions, and lazy coroutines - over an
// ordered, single-flight resolution protocol.
//
// An [Instance], constructed with [New], bundles the four combinators
// (Batch, Sequence, Page, Stream.Read) over one shared [promise.Adapter]: a
// single construction point everything else is built on top of.
package spex
