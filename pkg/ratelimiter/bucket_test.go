package ratelimiter_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLimiter(t *testing.T, cfg ratelimiter.Config) (*ratelimiter.Bucket, *ratelimiter.MemoryStore, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := ratelimiter.NewMemoryStore(ratelimiter.WithClock(clk.Now), ratelimiter.WithStaleAfter(time.Hour))
	b, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)
	return b, store, clk
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  ratelimiter.Config
		ok   bool
	}{
		{"valid", ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second}, true},
		{"zero capacity", ratelimiter.Config{RefillRate: 1, RefillInterval: time.Second}, false},
		{"zero refill", ratelimiter.Config{Capacity: 1, RefillInterval: time.Second}, false},
		{"zero interval", ratelimiter.Config{Capacity: 1, RefillRate: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
		})
	}
}

func TestBucketAllow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, _, clk := newLimiter(t, ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Second})

	for i := range 3 {
		res := b.Allow(ctx, "1.2.3.4")
		require.True(t, res.Allowed(), "request %d", i)
		assert.Equal(t, 2-i, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res := b.Allow(ctx, "1.2.3.4")
	assert.False(t, res.Allowed())
	assert.Equal(t, 0, res.Remaining)

	// Other keys have their own bucket.
	assert.True(t, b.Allow(ctx, "5.6.7.8").Allowed())

	clk.Advance(time.Second)
	res = b.Allow(ctx, "1.2.3.4")
	assert.True(t, res.Allowed())
	assert.Equal(t, 0, res.Remaining)
}

func TestBucketRefillCapsAtCapacity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, _, clk := newLimiter(t, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Second})

	require.True(t, b.Allow(ctx, "k").Allowed())
	clk.Advance(24 * time.Hour)
	res := b.Allow(ctx, "k")
	require.True(t, res.Allowed())
	assert.Equal(t, 1, res.Remaining)
}

func TestBucketRefusedRequestKeepsTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, _, _ := newLimiter(t, ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Minute})

	res, err := b.AllowN(ctx, "k", 2)
	require.NoError(t, err)
	require.True(t, res.Allowed())

	res, err = b.AllowN(ctx, "k", 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, 1, res.Remaining)

	assert.True(t, b.Allow(ctx, "k").Allowed())
}

func TestBucketAllowNRejectsBadCounts(t *testing.T) {
	t.Parallel()
	b, _, _ := newLimiter(t, ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Minute})

	for _, n := range []int{0, -1, 4} {
		_, err := b.AllowN(context.Background(), "k", n)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
	}
}

func TestBucketReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, _, _ := newLimiter(t, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})

	require.True(t, b.Allow(ctx, "k").Allowed())
	require.False(t, b.Allow(ctx, "k").Allowed())
	require.NoError(t, b.Reset(ctx, "k"))
	assert.True(t, b.Allow(ctx, "k").Allowed())
}

func TestResultRetryAfter(t *testing.T) {
	t.Parallel()

	refused := ratelimiter.Result{ResetAt: time.Now().Add(time.Minute)}
	assert.Greater(t, refused.RetryAfter(), 50*time.Second)

	past := ratelimiter.Result{ResetAt: time.Now().Add(-time.Minute)}
	assert.Zero(t, past.RetryAfter())
}

func TestMemoryStorePrune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, store, clk := newLimiter(t, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second})

	b.Allow(ctx, "old")
	clk.Advance(2 * time.Hour)
	b.Allow(ctx, "fresh")

	assert.Equal(t, 1, store.Prune())
	assert.Equal(t, 1, store.Len())
}

func TestBucketConcurrentAllow(t *testing.T) {
	t.Parallel()
	b, _, _ := newLimiter(t, ratelimiter.Config{Capacity: 50, RefillRate: 1, RefillInterval: time.Hour})

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Allow(context.Background(), "shared").Allowed() {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(50), allowed.Load())
}
