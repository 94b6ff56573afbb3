package godine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThunk_Get(t *testing.T) {
	var runs int32
	thunk := newThunk("report", func(ctx context.Context) (any, error) {
		atomic.AddInt32(&runs, 1)
		return "generated", nil
	})

	assert.Equal(t, "report", thunk.Name())
	assert.False(t, thunk.Forced())

	value, err := thunk.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "generated", value)
	assert.True(t, thunk.Forced())

	value, err = thunk.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "generated", value)

	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestThunk_GetMemoizesError(t *testing.T) {
	var runs int32
	failure := errors.New("generation failed")
	thunk := newThunk("report", func(ctx context.Context) (any, error) {
		atomic.AddInt32(&runs, 1)
		return nil, failure
	})

	_, err := thunk.Get(context.Background())
	assert.ErrorIs(t, err, failure)

	_, err = thunk.Get(context.Background())
	assert.ErrorIs(t, err, failure)

	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	assert.True(t, thunk.Forced())
}

func TestThunk_ConcurrentGet(t *testing.T) {
	var runs int32
	thunk := newThunk("shared", func(ctx context.Context) (any, error) {
		atomic.AddInt32(&runs, 1)
		return &struct{ id int }{id: 7}, nil
	})

	const goroutines = 20
	values := make([]any, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, err := thunk.Get(context.Background())
			assert.NoError(t, err)
			values[i] = value
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	for i := 1; i < goroutines; i++ {
		assert.Same(t, values[0], values[i])
	}
}

func TestForce(t *testing.T) {
	t.Run("returns typed value", func(t *testing.T) {
		thunk := newThunk("greeting", func(ctx context.Context) (any, error) {
			return "hello", nil
		})

		value, err := Force[string](context.Background(), thunk)
		require.NoError(t, err)
		assert.Equal(t, "hello", value)
	})

	t.Run("propagates factory error", func(t *testing.T) {
		failure := errors.New("boom")
		thunk := newThunk("greeting", func(ctx context.Context) (any, error) {
			return nil, failure
		})

		_, err := Force[string](context.Background(), thunk)
		assert.ErrorIs(t, err, failure)
	})

	t.Run("rejects mismatched type", func(t *testing.T) {
		thunk := newThunk("greeting", func(ctx context.Context) (any, error) {
			return 42, nil
		})

		_, err := Force[string](context.Background(), thunk)

		var mismatch *TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "greeting", mismatch.Name)
	})
}
