package channel_utils

import (
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"sync"
)

// MergeChannels forwards every value from channels into one channel, closed once all
// inputs are closed. Forwarders the pool rejects run on their own goroutine so no
// value is ever dropped.
func MergeChannels[T any](workerPool outbound.TaskDispatcher, channels ...<-chan T) <-chan T {
	var wg sync.WaitGroup
	merged := make(chan T)

	output := func(c <-chan T) {
		for val := range c {
			merged <- val
		}
		wg.Done()
	}

	wg.Add(len(channels))
	for _, c := range channels {
		ch := c
		dispatch(workerPool, func() {
			output(ch)
		})
	}

	dispatch(workerPool, func() {
		wg.Wait()
		close(merged)
	})

	return merged
}

func dispatch(workerPool outbound.TaskDispatcher, task func()) {
	if err := workerPool.Submit(task); err != nil {
		go task()
	}
}
