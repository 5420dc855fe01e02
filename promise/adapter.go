package promise

import "fmt"

// Adapter lets a caller supply the (create, resolve, reject) callables
// go-spex uses to construct deferred values, in place of the built-in
// constructors. Each callable returns a [*Deferred]; a foreign
// promise/future type has to be wrapped in one. This is the Go rendition of
// constructing spex against a third-party promise library via an explicit
// (create, resolve, reject) triple, rather than a constructible class.
//
// All three fields are required; use [NewAdapter] to construct one so that a
// missing field is caught immediately, rather than surfacing confusingly
// deep inside a driver.
type Adapter struct {
	// Create builds a new pending value from an executor, which is handed
	// resolve/reject functions to settle it. Mirrors `create(executor)`.
	Create func(executor func(resolve, reject func(any))) *Deferred

	// Resolve builds an already-fulfilled value. Mirrors `resolve(value)`.
	Resolve func(value any) *Deferred

	// Reject builds an already-rejected value. Mirrors `reject(reason)`.
	Reject func(reason any) *Deferred
}

// NewAdapter constructs an [Adapter] from the three required callables,
// panicking immediately, naming the missing piece, if any of them is nil.
// This mirrors the spec's "constructing the adapter with any of the three
// missing fails immediately with a fixed message per missing piece" -
// adapter wiring is a startup-time programming error, not a runtime
// condition a caller can recover from, so a panic (as with
// microbatch.NewBatcher and longpoll.Channel's own invalid-construction
// panics) is the idiomatic choice here, rather than a returned error.
func NewAdapter(
	create func(executor func(resolve, reject func(any))) *Deferred,
	resolve func(value any) *Deferred,
	reject func(reason any) *Deferred,
) *Adapter {
	switch {
	case create == nil:
		panic("promise: adapter missing create")
	case resolve == nil:
		panic("promise: adapter missing resolve")
	case reject == nil:
		panic("promise: adapter missing reject")
	}
	return &Adapter{Create: create, Resolve: resolve, Reject: reject}
}

// Default is the built-in [Adapter], backed directly by [New], [Resolved]
// and [Rejected]. go-spex uses this whenever a driver is constructed with a
// nil *Adapter.
var Default = &Adapter{
	Create: func(executor func(resolve, reject func(any))) *Deferred {
		d, resolve, reject := New()
		executor(func(v any) { resolve(v) }, func(r any) { reject(r) })
		return d
	},
	Resolve: Resolved,
	Reject:  Rejected,
}

// Validate reports a descriptive error if the Adapter is missing any of its
// three required callables. Unlike [NewAdapter] (used when constructing an
// Adapter by hand), this is used defensively wherever an *Adapter arrives
// from a caller that bypassed NewAdapter, e.g. via a struct literal.
func (a *Adapter) Validate() error {
	if a == nil {
		return fmt.Errorf("promise: invalid adapter: nil")
	}
	switch {
	case a.Create == nil:
		return fmt.Errorf("promise: invalid adapter: missing create")
	case a.Resolve == nil:
		return fmt.Errorf("promise: invalid adapter: missing resolve")
	case a.Reject == nil:
		return fmt.Errorf("promise: invalid adapter: missing reject")
	}
	return nil
}
