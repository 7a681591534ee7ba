package signup

import (
	"context"
	"time"
)

// RetryPolicy bounds a sequential retry loop with exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	CapDelay    time.Duration
	IsRetryable func(error) bool
}

// DefaultRetryPolicy mirrors the provisioning defaults: 3 attempts, backoff
// of base*2^attempt capped, retrying everything except validation-class
// failures supplied by the caller.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		CapDelay:    5 * time.Second,
	}
}

// Backoff returns the delay to wait after the given zero-based attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.CapDelay {
			return p.CapDelay
		}
	}
	if delay > p.CapDelay {
		return p.CapDelay
	}
	return delay
}

func (p RetryPolicy) retryable(err error) bool {
	if p.IsRetryable == nil {
		return true
	}
	return p.IsRetryable(err)
}

// SleepFunc suspends between attempts. Implementations must honor context
// cancellation. The default sleeps on a timer; tests substitute a recorder.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepWithContext is the production SleepFunc.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs the operation sequentially until it succeeds, a non-retryable
// error occurs, or the attempt budget is spent. It returns nil on success and
// the last observed error otherwise. Attempts are never issued concurrently.
func Retry(ctx context.Context, operation func(context.Context) error, policy RetryPolicy, sleep SleepFunc) error {
	if sleep == nil {
		sleep = SleepWithContext
	}
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if !policy.retryable(lastErr) {
			return lastErr
		}
		if attempt < attempts-1 {
			if err := sleep(ctx, policy.Backoff(attempt)); err != nil {
				return err
			}
		}
	}
	return lastErr
}
