package channel_utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type goroutineDispatcher struct{}

func (goroutineDispatcher) Submit(task func()) error {
	go task()
	return nil
}

// rejectingDispatcher accepts the first limit submissions.
type rejectingDispatcher struct {
	mu    sync.Mutex
	limit int
}

func (d *rejectingDispatcher) Submit(task func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.limit == 0 {
		return errors.New("pool overloaded")
	}
	d.limit--
	go task()
	return nil
}

func TestFanOut_RunsEveryTask(t *testing.T) {
	pool, err := ants.NewPool(10)
	require.NoError(t, err)
	defer pool.Release()

	results := make([]int, 5)
	err = FanOut(context.Background(), pool, len(results), func(ctx context.Context, index int) error {
		results[index] = index * index
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 4, 9, 16}, results)
}

func TestFanOut_FirstErrorCancelsSiblings(t *testing.T) {
	boom := errors.New("boom")
	var cancelled int32
	var finished int32

	err := FanOut(context.Background(), goroutineDispatcher{}, 4, func(ctx context.Context, index int) error {
		defer atomic.AddInt32(&finished, 1)
		if index == 2 {
			return boom
		}
		select {
		case <-ctx.Done():
			atomic.AddInt32(&cancelled, 1)
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), atomic.LoadInt32(&cancelled))
	assert.Equal(t, int32(4), atomic.LoadInt32(&finished), "FanOut returns only after every task is done")
}

func TestFanOut_RecoversPanics(t *testing.T) {
	err := FanOut(context.Background(), goroutineDispatcher{}, 2, func(ctx context.Context, index int) error {
		if index == 1 {
			panic("bad message")
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad message")
}

func TestFanOut_SubmitFailure(t *testing.T) {
	var ran int32
	err := FanOut(context.Background(), &rejectingDispatcher{limit: 2}, 5, func(ctx context.Context, index int) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool overloaded")
	assert.Equal(t, int32(2), atomic.LoadInt32(&ran))
}

func TestFanOut_Empty(t *testing.T) {
	assert.NoError(t, FanOut(context.Background(), goroutineDispatcher{}, 0, func(ctx context.Context, index int) error {
		t.Fatal("no task expected")
		return nil
	}))
}

func TestMergeChannels_DeliversEveryValue(t *testing.T) {
	first := make(chan int, 2)
	second := make(chan int, 1)
	first <- 1
	first <- 2
	second <- 3
	close(first)
	close(second)

	var got []int
	for v := range MergeChannels(&rejectingDispatcher{limit: 1}, first, second) {
		got = append(got, v)
	}
	assert.ElementsMatch(t, []int{1, 2, 3}, got)
}
