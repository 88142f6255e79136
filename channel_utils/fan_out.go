package channel_utils

import (
	"context"
	"fmt"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
)

// FanOut runs task once per index on the worker pool and returns only after every
// submitted task has finished. The first failure cancels the context shared by the
// remaining tasks and is the error returned.
func FanOut(ctx context.Context, workerPool outbound.TaskDispatcher, count int, task func(ctx context.Context, index int) error) error {
	if count == 0 {
		return nil
	}

	fanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	channels := make([]<-chan error, 0, count)
	for i := 0; i < count; i++ {
		index := i
		errCh := make(chan error, 1)
		channels = append(channels, errCh)

		err := workerPool.Submit(func() {
			defer close(errCh)
			defer func() {
				if r := recover(); r != nil {
					errCh <- fmt.Errorf("task %d panicked: %v", index, r)
				}
			}()
			if err := task(fanCtx, index); err != nil {
				errCh <- err
			}
		})
		if err != nil {
			errCh <- fmt.Errorf("submitting task %d: %w", index, err)
			close(errCh)
			cancel()
			break
		}
	}

	var firstErr error
	for err := range MergeChannels(workerPool, channels...) {
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	return firstErr
}
