package promise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferred_resolveSettlesOnce(t *testing.T) {
	d, resolve, reject := New()
	assert.Equal(t, Pending, d.State())

	resolve(1)
	resolve(2)
	reject("nope")

	assert.Equal(t, Fulfilled, d.State())
	assert.Equal(t, 1, d.Value())
	assert.Nil(t, d.Reason())
}

func TestDeferred_rejectSettlesOnce(t *testing.T) {
	d, resolve, reject := New()

	reject("boom")
	resolve(1)

	assert.Equal(t, RejectedState, d.State())
	assert.Equal(t, "boom", d.Reason())
	assert.Nil(t, d.Value())
}

func TestDeferred_ThenAlreadySettled_runsSynchronously(t *testing.T) {
	d := Resolved(42)

	var got any
	ran := false
	d.Then(func(v any) any {
		ran = true
		got = v
		return nil
	}, nil)

	require.True(t, ran, "handler must run synchronously for an already-settled Deferred")
	assert.Equal(t, 42, got)
}

func TestDeferred_ThenPending_runsOnSettle(t *testing.T) {
	d, resolve, _ := New()

	var got any
	d.Then(func(v any) any {
		got = v
		return nil
	}, nil)

	assert.Nil(t, got)
	resolve("later")
	assert.Equal(t, "later", got)
}

func TestDeferred_ThenChainsReturnedDeferred(t *testing.T) {
	d := Resolved(1)

	chained := d.Then(func(v any) any {
		inner, resolve, _ := New()
		resolve(v.(int) + 1)
		return inner
	}, nil)

	assert.Equal(t, Fulfilled, chained.State())
	assert.Equal(t, 2, chained.Value())
}

func TestDeferred_ThenPropagatesRejectionWithNilHandler(t *testing.T) {
	d := Rejected("bad")

	chained := d.Then(func(any) any {
		t.Fatal("onFulfilled must not run for a rejected Deferred")
		return nil
	}, nil)

	assert.Equal(t, RejectedState, chained.State())
	assert.Equal(t, "bad", chained.Reason())
}

func TestDeferred_CatchRecovers(t *testing.T) {
	d := Rejected("bad")

	recovered := d.Catch(func(reason any) any {
		return "recovered:" + reason.(string)
	})

	assert.Equal(t, Fulfilled, recovered.State())
	assert.Equal(t, "recovered:bad", recovered.Value())
}

func TestDeferred_HandlerPanicRejectsTarget(t *testing.T) {
	d := Resolved(1)

	chained := d.Then(func(any) any {
		panic("kaboom")
	}, nil)

	assert.Equal(t, RejectedState, chained.State())
	assert.Equal(t, "kaboom", chained.Reason())
}

func TestDeferred_ToChannel(t *testing.T) {
	d, resolve, _ := New()
	ch := d.ToChannel()

	select {
	case <-ch:
		t.Fatal("channel must not receive before settlement")
	default:
	}

	resolve("done")
	v, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, "done", v)

	_, ok = <-ch
	assert.False(t, ok, "channel must be closed after delivering the result")
}

func TestDeferred_ToChannelAlreadySettled(t *testing.T) {
	d := Resolved("x")
	ch := d.ToChannel()
	v := <-ch
	assert.Equal(t, "x", v)
}

func TestAdapter_defaultRoundTrips(t *testing.T) {
	d := Default.Create(func(resolve, reject func(any)) {
		resolve(7)
	})
	assert.Equal(t, Fulfilled, d.State())
	assert.Equal(t, 7, d.Value())

	assert.Equal(t, Fulfilled, Default.Resolve(1).State())
	assert.Equal(t, RejectedState, Default.Reject("e").State())
}

func TestNewAdapter_panicsOnMissingField(t *testing.T) {
	noop := func(any) *Deferred { return Resolved(nil) }
	createFn := func(func(resolve, reject func(any))) *Deferred { return Resolved(nil) }

	assert.PanicsWithValue(t, "promise: adapter missing create", func() {
		NewAdapter(nil, noop, noop)
	})
	assert.PanicsWithValue(t, "promise: adapter missing resolve", func() {
		NewAdapter(createFn, nil, noop)
	})
	assert.PanicsWithValue(t, "promise: adapter missing reject", func() {
		NewAdapter(createFn, noop, nil)
	})
}

func TestAdapter_ValidateNil(t *testing.T) {
	var a *Adapter
	require.Error(t, a.Validate())
}
