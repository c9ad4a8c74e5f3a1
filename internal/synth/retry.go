package synth

import (
	"context"
	"time"
)

// RetryPolicy drives repeated synthesis attempts with exponential backoff.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	InitialWait time.Duration // wait before the second attempt
	MaxWait     time.Duration // backoff ceiling

	// OnRetry, when set, observes each failed attempt before the wait.
	OnRetry func(attempt int, wait time.Duration, err error)

	// Sleep replaces real waiting in tests. Nil means wait on a timer,
	// honoring ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy matches the reference behavior: four attempts with
// waits of 1s, 2s, 4s between them, ceiling 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		InitialWait: time.Second,
		MaxWait:     10 * time.Second,
	}
}

// Do runs fn until it succeeds or attempts run out, returning the last
// error. Cancellation interrupts both the waits and the loop.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	wait := p.InitialWait
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if serr := p.sleep(ctx, wait); serr != nil {
			return serr
		}
		wait *= 2
		if p.MaxWait > 0 && wait > p.MaxWait {
			wait = p.MaxWait
		}
	}
	return err
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
