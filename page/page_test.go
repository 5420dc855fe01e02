package page

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joeycumines/go-spex/batch"
	"github.com/joeycumines/go-spex/internal/resolve"
	"github.com/joeycumines/go-spex/promise"
	"github.com/joeycumines/go-spex/spexerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRun_normal mirrors spec scenario S6.
func TestRun_normal(t *testing.T) {
	pages := [][]resolve.Value{
		{1, 2},
		{3},
	}
	var sunk [][]batch.Row
	source := func(index int, previousPageBatch []batch.Row, delay time.Duration) resolve.Value {
		if index >= len(pages) {
			return nil
		}
		return pages[index]
	}
	sink := func(index int, batchOutcome []batch.Row, delay time.Duration) resolve.Value {
		sunk = append(sunk, batchOutcome)
		return nil
	}

	result, err := Run(context.Background(), source, &Options{Sink: sink})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 3, result.Total)
	require.Len(t, sunk, 2)
	assert.Equal(t, []batch.Row{{Success: true, Result: 1}, {Success: true, Result: 2}}, sunk[0])
	assert.Equal(t, []batch.Row{{Success: true, Result: 3}}, sunk[1])
}

// TestRun_nonArraySource mirrors spec scenario S5.
func TestRun_nonArraySource(t *testing.T) {
	source := func(index int, previousPageBatch []batch.Row, delay time.Duration) resolve.Value {
		return 42
	}
	_, err := Run(context.Background(), source, nil)
	require.Error(t, err)

	var pe *spexerrors.PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, spexerrors.PageReasonSourceInvalidType, pe.Reason)
	assert.Equal(t, 0, pe.Index)
	assert.Nil(t, pe.Source)
	assert.True(t, pe.Source == nil, "index 0 has no previous batch, so Source must be a true nil, not a boxed nil slice")
	assert.NotContains(t, pe.Format(0), "source: []")
}

func TestRun_batchRejectionFailsPage(t *testing.T) {
	source := func(index int, previousPageBatch []batch.Row, delay time.Duration) resolve.Value {
		if index == 0 {
			return []resolve.Value{1, promise.Rejected(errors.New("bad element"))}
		}
		return nil
	}
	_, err := Run(context.Background(), source, nil)
	require.Error(t, err)

	var pe *spexerrors.PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, spexerrors.PageReasonBatchRejected, pe.Reason)
	assert.Nil(t, pe.Source)
	assert.Nil(t, pe.Dest)

	var be *spexerrors.BatchError
	require.ErrorAs(t, err, &be)
}

func TestRun_sourceThrows(t *testing.T) {
	source := func(index int, previousPageBatch []batch.Row, delay time.Duration) resolve.Value {
		return resolve.Producer(func() resolve.Value { panic("source boom") })
	}
	_, err := Run(context.Background(), source, nil)
	require.Error(t, err)
	var pe *spexerrors.PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, spexerrors.PageReasonSourceThrew, pe.Reason)
}

func TestRun_sourceRejectsDeferred(t *testing.T) {
	source := func(index int, previousPageBatch []batch.Row, delay time.Duration) resolve.Value {
		return promise.Rejected(errors.New("source deferred rejected"))
	}
	_, err := Run(context.Background(), source, nil)
	require.Error(t, err)
	var pe *spexerrors.PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, spexerrors.PageReasonSourceRejected, pe.Reason)
}

func TestRun_sinkThrows(t *testing.T) {
	source := func(index int, previousPageBatch []batch.Row, delay time.Duration) resolve.Value {
		if index == 0 {
			return []resolve.Value{1}
		}
		return nil
	}
	sink := func(index int, batchOutcome []batch.Row, delay time.Duration) resolve.Value {
		return resolve.Producer(func() resolve.Value { panic("sink boom") })
	}
	_, err := Run(context.Background(), source, &Options{Sink: sink})
	require.Error(t, err)
	var pe *spexerrors.PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, spexerrors.PageReasonSinkThrew, pe.Reason)
	assert.NotNil(t, pe.Dest)
}

func TestRun_sinkRejectsDeferred(t *testing.T) {
	source := func(index int, previousPageBatch []batch.Row, delay time.Duration) resolve.Value {
		if index == 0 {
			return []resolve.Value{1}
		}
		return nil
	}
	sink := func(index int, batchOutcome []batch.Row, delay time.Duration) resolve.Value {
		return promise.Rejected(errors.New("sink deferred rejected"))
	}
	_, err := Run(context.Background(), source, &Options{Sink: sink})
	require.Error(t, err)
	var pe *spexerrors.PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, spexerrors.PageReasonSinkRejected, pe.Reason)
}

func TestRun_limit(t *testing.T) {
	calls := 0
	source := func(index int, previousPageBatch []batch.Row, delay time.Duration) resolve.Value {
		calls++
		return []resolve.Value{index}
	}
	result, err := Run(context.Background(), source, &Options{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, 3, result.Total)
}

func TestRun_nilSource(t *testing.T) {
	_, err := Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrSourceRequired)
}
