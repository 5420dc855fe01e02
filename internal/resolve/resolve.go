package resolve

import (
	"fmt"

	"github.com/joeycumines/go-spex/promise"
)

// Value is any of the four shapes the resolver accepts: a plain value, a
// *promise.Deferred, a producer (func() Value), or a [Coroutine].
type Value = any

// Producer is a nullary callable that, when invoked, yields another mixed
// Value. It is the Go rendition of spec §3's "nullary (or ignored-arg)
// callable".
type Producer = func() Value

// IsDeferred reports whether v is a *promise.Deferred.
func IsDeferred(v Value) bool {
	_, ok := v.(*promise.Deferred)
	return ok
}

// IsProducer reports whether v is a Producer.
func IsProducer(v Value) bool {
	_, ok := v.(Producer)
	return ok
}

// IsCoroutine reports whether v implements [Coroutine].
func IsCoroutine(v Value) bool {
	_, ok := v.(Coroutine)
	return ok
}

// Resolve drives v to settlement, calling exactly one of onSuccess or
// onFailure exactly once.
//
// Algorithm (spec §4.D):
//  1. If v is a Producer, invoke it; a panic during invocation fails with
//     isDeferredRejection=false, and v is replaced with the returned value.
//  2. If v is a *promise.Deferred, register continuations: fulfillment calls
//     onSuccess with delayed=true, rejection calls onFailure with
//     isDeferredRejection=true. If the fulfillment value is itself a mixed
//     value, Resolve recurses, with delayed sticky at true.
//  3. Otherwise, deliver onSuccess(v, delayed=false).
func Resolve(v Value, onSuccess func(result any, delayed bool), onFailure func(reason any, isDeferredRejection bool)) {
	resolve(v, false, onSuccess, onFailure)
}

func resolve(v Value, delayed bool, onSuccess func(any, bool), onFailure func(any, bool)) {
	if co, ok := v.(Coroutine); ok {
		runCoroutine(co, delayed, onSuccess, onFailure)
		return
	}

	if p, ok := v.(Producer); ok {
		var (
			out Value
			ok2 bool
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					onFailure(recoveredToReason(r), false)
				}
			}()
			out = p()
			ok2 = true
		}()
		if !ok2 {
			return
		}
		resolve(out, delayed, onSuccess, onFailure)
		return
	}

	if d, ok := v.(*promise.Deferred); ok {
		d.Then(
			func(value any) any {
				resolve(value, true, onSuccess, onFailure)
				return nil
			},
			func(reason any) any {
				onFailure(reason, true)
				return nil
			},
		)
		return
	}

	onSuccess(v, delayed)
}

// Outcome is the blocking, synchronous rendition of Resolve's two callbacks,
// for call sites that drive one mixed value at a time on a dedicated
// goroutine rather than chaining continuations (see [Await]).
type Outcome struct {
	Success             bool
	Result              any
	Delayed             bool
	IsDeferredRejection bool
}

// Await blocks the calling goroutine until v settles and returns its
// Outcome. It is built directly on Resolve - the callback fires exactly
// once, synchronously for a plain/producer value or later for a deferred,
// and Await simply waits on that same signal rather than resuming via
// another call frame. This is what lets sequence/page/batch drive a chain
// of mixed values from an ordinary for loop with O(1) stack usage,
// regardless of how many consecutive values resolve synchronously.
func Await(v Value) Outcome {
	done := make(chan struct{})
	var out Outcome
	Resolve(v,
		func(result any, delayed bool) {
			out = Outcome{Success: true, Result: result, Delayed: delayed}
			close(done)
		},
		func(reason any, isDeferredRejection bool) {
			out = Outcome{Success: false, Result: reason, IsDeferredRejection: isDeferredRejection}
			close(done)
		},
	)
	<-done
	return out
}

func recoveredToReason(r any) any {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
