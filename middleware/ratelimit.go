package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
	"github.com/gridlinecompany/LetsEcrypt/pkg/clientip"
	"github.com/gridlinecompany/LetsEcrypt/pkg/ratelimiter"
)

// Limiter decides whether key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) ratelimiter.Result
}

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	Skip    func(ctx handler.Context) bool
	Limiter Limiter
	// KeyExtractor defaults to the client IP.
	KeyExtractor func(ctx handler.Context) string
	SetHeaders   bool
}

// RateLimit refuses requests over the limit with 429 and a Retry-After
// header. It panics without a Limiter.
func RateLimit[C handler.Context](cfg RateLimitConfig) handler.Middleware[C] {
	if cfg.Limiter == nil {
		panic("ratelimit middleware: limiter is required")
	}
	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = func(ctx handler.Context) string {
			return clientIP(ctx.Request())
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			res := cfg.Limiter.Allow(ctx, cfg.KeyExtractor(ctx))
			if !res.Allowed() {
				retryAfter := int(res.RetryAfter().Seconds()) + 1
				resp := response.Error(response.ErrTooManyRequests.
					WithMessage("Too many requests. Please try again later.").
					WithDetails(map[string]any{"retry_after": retryAfter}))
				return withRateLimitHeaders(resp, res, retryAfter, true)
			}
			return withRateLimitHeaders(next(ctx), res, 0, cfg.SetHeaders)
		}
	}
}

func withRateLimitHeaders(resp handler.Response, res ratelimiter.Result, retryAfter int, enabled bool) handler.Response {
	if !enabled {
		return resp
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		if retryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		}
		return resp(w, r)
	}
}

func clientIP(r *http.Request) string {
	if ip := clientip.GetIP(r); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
