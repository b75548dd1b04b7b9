package lazy

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCell_EvaluatesOnce(t *testing.T) {
	var calls atomic.Int32
	c := New(func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "value", nil
	})

	assert.Equal(t, Unevaluated, c.State())

	for i := 0; i < 3; i++ {
		v, err := c.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, Evaluated, c.State())
}

func TestCell_ConcurrentFirstAccessSharesOneResult(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := New(func(ctx context.Context) (*int, error) {
		calls.Add(1)
		<-release
		v := 42
		return &v, nil
	})

	results := make([]*int, 16)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			v, err := c.Get(context.Background())
			results[i] = v
			return err
		})
	}

	require.Eventually(t, func() bool { return c.State() == Evaluating }, time.Second, time.Millisecond)
	close(release)
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestCell_FailureResetsToUnevaluated(t *testing.T) {
	boom := errors.New("remote unavailable")
	var calls atomic.Int32
	c := New(func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, boom
		}
		return 7, nil
	})

	_, err := c.Get(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Unevaluated, c.State())

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCell_InterruptedEvaluationRetries(t *testing.T) {
	var calls atomic.Int32
	c := New(func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "fresh", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Unevaluated, c.State())

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestCell_PanicResetsToUnevaluated(t *testing.T) {
	var calls atomic.Int32
	c := New(func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			panic("half built")
		}
		return 1, nil
	})

	_, err := c.Get(context.Background())
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "half built", pe.Value)
	assert.Equal(t, Unevaluated, c.State())

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestCell_PermanentFailureIsKept(t *testing.T) {
	boom := errors.New("identity mismatch")
	var calls atomic.Int32
	c := New(func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, Permanent(boom)
	})

	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background())
		require.ErrorIs(t, err, boom)
		assert.True(t, IsPermanent(err))
	}
	assert.Equal(t, Failed, c.State())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCell_WaiterCancellationLeavesAttemptRunning(t *testing.T) {
	release := make(chan struct{})
	c := New(func(ctx context.Context) (string, error) {
		<-release
		return "done", nil
	})

	first := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background())
		first <- err
	}()
	require.Eventually(t, func() bool { return c.State() == Evaluating }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-first)

	assert.Equal(t, Evaluated, c.State())
	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestCell_GoexitResetsToUnevaluated(t *testing.T) {
	var calls atomic.Int32
	c := New(func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			runtime.Goexit()
		}
		return "ok", nil
	})

	exited := make(chan struct{})
	go func() {
		defer close(exited)
		c.Get(context.Background())
	}()
	<-exited

	assert.Equal(t, Unevaluated, c.State())
	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestValue_IsEvaluated(t *testing.T) {
	c := Value([]int{1, 2})
	assert.Equal(t, Evaluated, c.State())
	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, v)
}
