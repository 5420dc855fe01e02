// Package promise provides the single "deferred computation" abstraction
// that the rest of go-spex is built against.
//
// It is deliberately small: a [Deferred] supports exactly the operations the
// resolution engine (see the internal resolve package) needs - settle once,
// register continuations, and project to a channel for select-based code. A
// [Deferred] is not a general-purpose promise library; it has no
// cancellation, no timeout, and no combinators of its own (those live in
// batch, sequence, page and streamread, which consume Deferred rather than
// extend it).
//
// Callers can supply an [Adapter] to spex.New to control how go-spex
// constructs the deferred values it creates itself. Every Adapter callable
// still returns a *Deferred, so a foreign future/promise type has to be
// wrapped in a Deferred to be used this way.
package promise
