// Package ratelimiter implements a token bucket limiter.
//
// A bucket holds up to Capacity tokens and gains RefillRate tokens every
// RefillInterval. Each request takes a token; when none are left the request
// is refused until the next refill. Buckets are keyed by caller, usually the
// client IP.
//
//	store := ratelimiter.NewMemoryStore()
//	go store.RunCleanup(ctx, 10*time.Minute)
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     1,
//		RefillInterval: 6 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//
//	if res := limiter.Allow(ctx, ip); !res.Allowed() {
//		w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter().Seconds())+1))
//		return response.ErrTooManyRequests
//	}
//
// Config carries RATE_LIMIT_* env tags so it can be loaded with core/config.
//
// MemoryStore is safe for concurrent use. Refused requests do not consume
// tokens.
package ratelimiter
