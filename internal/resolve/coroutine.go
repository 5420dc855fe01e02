package resolve

import "github.com/joeycumines/go-spex/promise"

// Step is a single pause point of a [Coroutine]: either another mixed Value
// to resolve before the coroutine can continue (Done == false), or the
// coroutine's terminal value (Done == true).
type Step struct {
	Yield Value
	Final Value
	Done  bool
}

// Coroutine is the explicit "step" interface used in place of a native
// generator/coroutine (Go has neither). It threads resolved values back into
// the coroutine and re-introduces resolution failures as an exception at the
// point of the last yield, exactly as spec §4.C's advancement discipline
// describes.
//
// A Coroutine implementation that does not catch an injected Throw should
// panic with it (or with an error that wraps it); [WrapCallback] treats an
// uncaught Throw identically to an uncaught panic from an ordinary function.
type Coroutine interface {
	// Next resumes the coroutine. resolved is the resolved value of the
	// previously yielded mixed value, and is ignored on the first call.
	Next(resolved Value) Step
	// Throw resumes the coroutine by raising err at the point of the last
	// yield, as though resolving that yielded value had failed.
	Throw(err any) Step
}

// runCoroutine pumps co to completion, feeding each yielded mixed value
// through the resolver and threading the result (or a re-injected failure)
// back in, per spec §4.C.
func runCoroutine(co Coroutine, delayed bool, onSuccess func(any, bool), onFailure func(any, bool)) {
	step, failed, reason := stepCoroutine(func() Step { return co.Next(nil) })
	advanceCoroutine(co, step, failed, reason, delayed, onSuccess, onFailure)
}

func advanceCoroutine(co Coroutine, step Step, failed bool, reason any, delayed bool, onSuccess func(any, bool), onFailure func(any, bool)) {
	if failed {
		onFailure(reason, false)
		return
	}
	if step.Done {
		onSuccess(step.Final, delayed)
		return
	}

	resolve(step.Yield, delayed,
		func(result any, d bool) {
			next, f, r := stepCoroutine(func() Step { return co.Next(result) })
			advanceCoroutine(co, next, f, r, d, onSuccess, onFailure)
		},
		func(failure any, _ bool) {
			next, f, r := stepCoroutine(func() Step { return co.Throw(failure) })
			advanceCoroutine(co, next, f, r, true, onSuccess, onFailure)
		},
	)
}

// stepCoroutine invokes a single Next/Throw call, recovering a panic (the Go
// analog of an uncaught exception escaping the coroutine) into a failure.
func stepCoroutine(call func() Step) (step Step, failed bool, reason any) {
	defer func() {
		if r := recover(); r != nil {
			failed = true
			reason = recoveredToReason(r)
		}
	}()
	step = call()
	return step, false, nil
}

// WrapCallback normalizes a user callback so that, if it returns a
// [Coroutine], the coroutine is drained to completion and the wrapper
// returns a value built through adapter's Create, settling with the
// coroutine's terminal value. A callback that returns anything else is
// passed through unchanged - spec §4.C. A nil adapter uses
// [promise.Default], matching every other entry point in this module.
//
// Settlement must flow through exactly the supplied adapter (spec §4.A):
// this is the one place the resolution engine constructs a new deferred
// value of its own, so it is also the one place that must never reach for
// promise.Default directly.
func WrapCallback(adapter *promise.Adapter, f func(args ...any) Value) func(args ...any) Value {
	if adapter == nil {
		adapter = promise.Default
	}
	return func(args ...any) Value {
		result := f(args...)
		co, ok := result.(Coroutine)
		if !ok {
			return result
		}

		return adapter.Create(func(resolve func(any), reject func(any)) {
			runCoroutine(co, false,
				func(final any, _ bool) { resolve(final) },
				func(failure any, _ bool) { reject(failure) },
			)
		})
	}
}

// WrapValue applies [WrapCallback]'s normalization to a single already-
// obtained mixed value, for call sites that have a value in hand rather
// than a callback to invoke - every combinator's source/sink/tracker
// result, immediately before resolving it.
func WrapValue(adapter *promise.Adapter, v Value) Value {
	return WrapCallback(adapter, func(...any) Value { return v })()
}
