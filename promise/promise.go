package promise

import (
	"fmt"
	"sync"
)

// State is the lifecycle state of a [Deferred]. A Deferred starts in
// [Pending] and transitions exactly once, to either [Fulfilled] or
// [RejectedState].
type State int

const (
	// Pending indicates a Deferred has not yet settled.
	Pending State = iota
	// Fulfilled indicates a Deferred settled successfully.
	Fulfilled
	// RejectedState indicates a Deferred settled with a failure reason.
	RejectedState
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case RejectedState:
		return "rejected"
	default:
		return fmt.Sprintf("promise.State(%d)", int(s))
	}
}

// ResolveFunc settles a Deferred successfully. Calling it on an
// already-settled Deferred has no effect. Safe for concurrent use, and for
// use from any goroutine.
type ResolveFunc func(value any)

// RejectFunc settles a Deferred with a failure reason. Calling it on an
// already-settled Deferred has no effect. Safe for concurrent use, and for
// use from any goroutine.
type RejectFunc func(reason any)

// continuation is a single registered Then callback pair.
type continuation struct {
	onFulfilled func(any) any
	onRejected  func(any) any
	target      *Deferred
}

// Deferred is a single-assignment future: it settles at most once, either
// fulfilled with a value or rejected with a reason, and notifies any
// continuations registered via [Deferred.Then].
//
// Deferred is safe for concurrent use from multiple goroutines.
type Deferred struct {
	mu           sync.Mutex
	state        State
	result       any
	continuations []continuation
	channels     []chan any
}

// New creates a pending Deferred, along with the functions used to settle
// it. Mirrors the teacher's NewChainedPromise two-return-value-plus-settlers
// shape.
func New() (*Deferred, ResolveFunc, RejectFunc) {
	d := &Deferred{}
	return d, d.resolve, d.reject
}

// Resolved returns an already-fulfilled Deferred.
func Resolved(value any) *Deferred {
	d := &Deferred{state: Fulfilled, result: value}
	return d
}

// Rejected returns an already-rejected Deferred.
func Rejected(reason any) *Deferred {
	d := &Deferred{state: RejectedState, result: reason}
	return d
}

// State returns the current [State] of the Deferred.
func (d *Deferred) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Value returns the fulfillment value, or nil if the Deferred is pending or
// rejected.
func (d *Deferred) Value() any {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Fulfilled {
		return d.result
	}
	return nil
}

// Reason returns the rejection reason, or nil if the Deferred is pending or
// fulfilled.
func (d *Deferred) Reason() any {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == RejectedState {
		return d.result
	}
	return nil
}

// ToChannel returns a buffered, single-value channel that receives the
// settlement result (the fulfillment value, or the rejection reason) and is
// then closed. If the Deferred is already settled, the channel is returned
// pre-filled.
func (d *Deferred) ToChannel() <-chan any {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := make(chan any, 1)
	if d.state != Pending {
		ch <- d.result
		close(ch)
		return ch
	}

	d.channels = append(d.channels, ch)
	return ch
}

func (d *Deferred) resolve(value any) {
	d.settle(Fulfilled, value)
}

func (d *Deferred) reject(reason any) {
	d.settle(RejectedState, reason)
}

func (d *Deferred) settle(state State, result any) {
	d.mu.Lock()
	if d.state != Pending {
		d.mu.Unlock()
		return
	}
	d.state = state
	d.result = result
	conts := d.continuations
	d.continuations = nil
	channels := d.channels
	d.channels = nil
	d.mu.Unlock()

	for _, ch := range channels {
		ch <- result
		close(ch)
	}
	for _, c := range conts {
		c.run(state, result)
	}
}

// Then registers fulfillment/rejection handlers and returns a new Deferred
// settled from whichever handler runs. Either handler may be nil, in which
// case the corresponding outcome propagates unchanged to the returned
// Deferred (the usual "pass-through" Promise/A+ behavior).
//
// If the Deferred is already settled, the relevant handler runs
// synchronously, on the calling goroutine, before Then returns. go-spex's
// resolver (internal package resolve) reports any value settled through a
// Deferred as delayed=true, whether it was already settled or not.
func (d *Deferred) Then(onFulfilled, onRejected func(any) any) *Deferred {
	target := &Deferred{}
	c := continuation{onFulfilled: onFulfilled, onRejected: onRejected, target: target}

	d.mu.Lock()
	state := d.state
	result := d.result
	if state == Pending {
		d.continuations = append(d.continuations, c)
		d.mu.Unlock()
		return target
	}
	d.mu.Unlock()

	c.run(state, result)
	return target
}

// Catch is shorthand for Then(nil, onRejected).
func (d *Deferred) Catch(onRejected func(any) any) *Deferred {
	return d.Then(nil, onRejected)
}

func (c continuation) run(state State, result any) {
	defer func() {
		if r := recover(); r != nil {
			c.target.reject(r)
		}
	}()

	switch state {
	case Fulfilled:
		if c.onFulfilled == nil {
			c.target.resolve(result)
			return
		}
		c.target.settleFromHandlerResult(c.onFulfilled(result))
	case RejectedState:
		if c.onRejected == nil {
			c.target.reject(result)
			return
		}
		c.target.settleFromHandlerResult(c.onRejected(result))
	}
}

// settleFromHandlerResult adopts the state of a returned Deferred (chaining)
// or resolves directly with a plain value.
func (d *Deferred) settleFromHandlerResult(v any) {
	if next, ok := v.(*Deferred); ok {
		next.Then(
			func(value any) any { d.resolve(value); return nil },
			func(reason any) any { d.reject(reason); return nil },
		)
		return
	}
	d.resolve(v)
}
