package async

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// Backoff yields the wait before each retry. Backoffs are stateful: build a
// new one for every Retry call.
type Backoff = retry.Backoff

// Schedule retries once per delay, waiting delays[i] before retry i+1.
// len(delays) is the retry count; the first attempt runs immediately.
func Schedule(delays ...time.Duration) Backoff {
	i := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		if i >= len(delays) {
			return 0, true
		}
		d := delays[i]
		i++
		return d, false
	})
}

// Constant retries up to retries times with a fixed delay.
func Constant(delay time.Duration, retries int) Backoff {
	delays := make([]time.Duration, max(retries, 0))
	for i := range delays {
		delays[i] = delay
	}
	return Schedule(delays...)
}

// Linear retries up to retries times, waiting base*n before retry n.
func Linear(base time.Duration, retries int) Backoff {
	delays := make([]time.Duration, max(retries, 0))
	for i := range delays {
		delays[i] = base * time.Duration(i+1)
	}
	return Schedule(delays...)
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as final so Retry returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls fn until it succeeds, returns a Permanent error, the backoff
// is exhausted or ctx is done. attempt starts at 1. The last error from fn
// is returned unwrapped.
func Retry(ctx context.Context, b Backoff, fn func(ctx context.Context, attempt int) error) error {
	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var p *permanentError
		if errors.As(err, &p) {
			return p.err
		}
		return retry.RetryableError(err)
	})
}
