package services

import (
	"context"
	"fmt"
	"github.com/dzhechko/pu-3d-avatar/config"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"time"
)

// RetryPolicy bounds how often and how fast a failing call is repeated.
// A zero Delay retries immediately.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

func NewRetryPolicy(lipSyncConfig *config.LipSyncConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: lipSyncConfig.MaxAttempts,
		Delay:       lipSyncConfig.RetryDelay,
		Multiplier:  lipSyncConfig.RetryMultiplier,
		MaxDelay:    lipSyncConfig.RetryMaxDelay,
	}
}

// Do calls op until it succeeds, fails with an error retryable rejects, or MaxAttempts
// calls have been made. Attempts are numbered from 1.
func (p RetryPolicy) Do(ctx context.Context, retryable func(error) bool, op func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		if delay := p.backoff(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", domain.ErrRetryBudgetExhausted, maxAttempts, lastErr)
}

// backoff is the wait after the given attempt.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.Delay <= 0 {
		return 0
	}
	delay := float64(p.Delay)
	for i := 1; i < attempt && p.Multiplier > 1; i++ {
		delay *= p.Multiplier
		if p.MaxDelay > 0 && delay >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(delay) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(delay)
}
