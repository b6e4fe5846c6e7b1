package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// RetryPolicy is a bounded retry loop with jittered exponential backoff.
// The zero value makes a single attempt.
type RetryPolicy struct {
	MaxAttempts int           // total tries, first included
	BaseDelay   time.Duration // backoff before the second try
	MaxDelay    time.Duration // cap for a single backoff

	// Retryable decides whether err deserves another attempt.
	// Defaults to IsRetryable.
	Retryable func(err error) bool

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Do calls fn until it succeeds, returns a non-retryable error, the
// attempts run out, or ctx is done. attempt starts at 1.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := max(p.MaxAttempts, 1)
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if attempt == attempts || !retryable(err) || ctx.Err() != nil {
			break
		}
		if serr := sleep(ctx, p.Backoff(attempt)); serr != nil {
			return errors.Join(err, serr)
		}
	}
	return err
}

// Backoff returns the jittered delay after the given failed attempt: a
// uniform draw from [d/2, d] where d = BaseDelay * 2^(attempt-1), capped at
// MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay << (attempt - 1)
	if d <= 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		d = p.MaxDelay
	}
	half := d / 2
	return half + rand.N(d-half+1)
}

// IsRetryable treats network errors, timeouts, 429 and 5xx as transient.
// Sign-in walls, 4xx and cancellation are final.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrAuthWall) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
