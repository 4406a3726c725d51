package pool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EmptyItems(t *testing.T) {
	called := false
	worker := func(ctx context.Context, item int) error {
		called = true
		return nil
	}

	errs := Run(context.Background(), []int{}, 5, worker)

	assert.Empty(t, errs)
	assert.False(t, called, "Worker should not be called with empty items")
}

func TestRun_ProcessesEveryItem(t *testing.T) {
	var callCount int32
	worker := func(ctx context.Context, item int) error {
		atomic.AddInt32(&callCount, 1)
		return nil
	}

	errs := Run(context.Background(), []int{1, 2, 3}, 10, worker)

	require.Len(t, errs, 3)
	assert.NoError(t, FirstError(errs))
	assert.Equal(t, int32(3), atomic.LoadInt32(&callCount))
}

func TestRun_ErrorsAlignWithItems(t *testing.T) {
	worker := func(ctx context.Context, item string) error {
		if item == "broken" {
			return fmt.Errorf("cannot acquire %s", item)
		}
		return nil
	}

	errs := Run(context.Background(), []string{"ok", "broken", "fine"}, 2, worker)

	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.EqualError(t, errs[1], "cannot acquire broken")
	assert.NoError(t, errs[2])
	assert.EqualError(t, FirstError(errs), "cannot acquire broken")
}

func TestRun_ZeroWorkersStillRuns(t *testing.T) {
	var callCount int32
	worker := func(ctx context.Context, item int) error {
		atomic.AddInt32(&callCount, 1)
		return nil
	}

	Run(context.Background(), []int{1, 2}, 0, worker)

	assert.Equal(t, int32(2), atomic.LoadInt32(&callCount))
}

func TestRun_CancelStopsEnqueue(t *testing.T) {
	items := make([]int, 200)
	for i := range items {
		items[i] = i
	}
	ctx, cancel := context.WithCancel(context.Background())
	var processed int64

	worker := func(ctx context.Context, i int) error {
		atomic.AddInt64(&processed, 1)
		if i == 0 {
			cancel()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
		return nil
	}

	errs := Run(ctx, items, 2, worker)

	assert.Less(t, atomic.LoadInt64(&processed), int64(len(items)))
	assert.True(t, errors.Is(errs[len(errs)-1], context.Canceled))
}
