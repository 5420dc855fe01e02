package spex

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeycumines/go-spex/batch"
	"github.com/joeycumines/go-spex/internal/resolve"
	"github.com/joeycumines/go-spex/page"
	"github.com/joeycumines/go-spex/promise"
	"github.com/joeycumines/go-spex/sequence"
	"github.com/joeycumines/go-spex/streamread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_nilAdapterUsesBuiltin(t *testing.T) {
	inst := New(nil, nil)
	require.NotNil(t, inst)
	assert.Same(t, promise.Default, inst.Adapter())
}

func TestNew_invalidAdapterPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(&promise.Adapter{}, nil)
	})
}

func TestInstance_Batch_usesSuppliedAdapter(t *testing.T) {
	var created atomic.Int32
	adapter := &promise.Adapter{
		Create: func(executor func(resolve, reject func(any))) *promise.Deferred {
			created.Add(1)
			d, resolve, reject := promise.New()
			executor(func(v any) { resolve(v) }, func(r any) { reject(r) })
			return d
		},
		Resolve: promise.Resolved,
		Reject:  promise.Rejected,
	}

	inst := New(adapter, nil)
	values := []resolve.Value{
		resolve.NewGoroutineCoroutine(func(yield resolve.Yield) resolve.Value { return "a" }),
		resolve.NewGoroutineCoroutine(func(yield resolve.Yield) resolve.Value { return "b" }),
	}
	rows, stat, err := inst.Batch(context.Background(), values, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stat.Total)
	assert.ElementsMatch(t, []any{"a", "b"}, []any{rows[0].Result, rows[1].Result})
	assert.EqualValues(t, 2, created.Load(), "expected the supplied adapter's Create to settle every coroutine element")
}

func TestInstance_Batch(t *testing.T) {
	inst := New(nil, nil)
	rows, stat, err := inst.Batch(context.Background(), []resolve.Value{1, 2, 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stat.Total)
	assert.Len(t, rows, 3)
}

func TestInstance_Sequence(t *testing.T) {
	inst := New(nil, nil)
	source := sequence.SourceFunc(func(index int, lastData any, delay time.Duration) resolve.Value {
		if index == 2 {
			return nil
		}
		return index
	})
	result, err := inst.Sequence(context.Background(), source, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestInstance_Page(t *testing.T) {
	inst := New(nil, nil)
	source := page.SourceFunc(func(index int, previousPageBatch []batch.Row, delay time.Duration) resolve.Value {
		if index == 2 {
			return nil
		}
		return []resolve.Value{index * 10, index*10 + 1}
	})
	result, err := inst.Page(context.Background(), source, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 4, result.Total)
}

func TestInstance_Stream(t *testing.T) {
	inst := New(nil, nil)
	ch := make(chan resolve.Value, 2)
	ch <- 1
	ch <- 2
	close(ch)

	var got []resolve.Value
	receiver := streamread.Receiver[resolve.Value](func(index int, chunk []resolve.Value, delay time.Duration) resolve.Value {
		got = append(got, chunk...)
		return nil
	})
	stats, err := inst.Stream.Read(context.Background(), ch, receiver, streamread.Config{})
	require.NoError(t, err)
	assert.Equal(t, []resolve.Value{1, 2}, got)
	assert.Equal(t, 2, stats.Length)
}
