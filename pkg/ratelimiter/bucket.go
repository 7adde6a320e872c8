package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Store holds bucket state.
type Store interface {
	ConsumeTokens(ctx context.Context, key string, n int, cfg Config) (allowed bool, remaining int, resetAt time.Time)
	Reset(ctx context.Context, key string) error
}

// Result is the outcome of one Allow call.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	allowed   bool
}

// Allowed reports whether the request may proceed.
func (r Result) Allowed() bool { return r.allowed }

// RetryAfter is how long to wait before the bucket refills. It is zero for
// allowed requests.
func (r Result) RetryAfter() time.Duration {
	if r.allowed {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Bucket is a token bucket limiter keyed by caller.
type Bucket struct {
	store Store
	cfg   Config
}

// NewBucket validates cfg and returns a limiter backed by store.
func NewBucket(store Store, cfg Config) (*Bucket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, cfg: cfg}, nil
}

// Allow takes one token for key.
func (b *Bucket) Allow(ctx context.Context, key string) Result {
	res, _ := b.AllowN(ctx, key, 1)
	return res
}

// AllowN takes n tokens for key.
func (b *Bucket) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if n <= 0 || n > b.cfg.Capacity {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidTokenCount, n)
	}
	ok, remaining, resetAt := b.store.ConsumeTokens(ctx, key, n, b.cfg)
	return Result{Limit: b.cfg.Capacity, Remaining: remaining, ResetAt: resetAt, allowed: ok}, nil
}

// Reset clears the bucket for key.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}
