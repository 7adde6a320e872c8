package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
	"github.com/gridlinecompany/LetsEcrypt/core/router"
	"github.com/gridlinecompany/LetsEcrypt/core/session"
	"github.com/gridlinecompany/LetsEcrypt/middleware"
	"github.com/gridlinecompany/LetsEcrypt/pkg/ratelimiter"
)

func newRouter(mws ...handler.Middleware[*router.Context]) router.Router[*router.Context] {
	return router.New[*router.Context](
		router.WithErrorHandler[*router.Context](response.JSONErrorHandler[*router.Context]),
		router.WithMiddleware[*router.Context](mws...),
	)
}

func ok(ctx *router.Context) handler.Response {
	return response.String("ok")
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	r := newRouter(middleware.RequestID[*router.Context]())
	r.Get("/", func(ctx *router.Context) handler.Response {
		seen, _ = middleware.GetRequestID(ctx)
		return response.String("ok")
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "0b5e2f1c-8a43-4a86-9a0e-4f0f1d2b3c4d")
	rec = serve(r, req)
	assert.Equal(t, "0b5e2f1c-8a43-4a86-9a0e-4f0f1d2b3c4d", rec.Header().Get(middleware.RequestIDHeader))

	req.Header.Set(middleware.RequestIDHeader, "not a uuid\r\n")
	rec = serve(r, req)
	assert.NotEqual(t, "not a uuid\r\n", rec.Header().Get(middleware.RequestIDHeader))
}

type observed struct {
	method, route string
	status        int
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observed
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observed{method, route, status})
}

func TestLoggingRecordsStatus(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf), logger.WithLevel(slog.LevelDebug))
	obs := &recordingObserver{}

	r := newRouter(middleware.Logging[*router.Context](middleware.LoggingConfig{Logger: log, Observer: obs}))
	r.Get("/certificates/{id}", ok)
	r.Get("/missing", func(*router.Context) handler.Response {
		return response.Error(response.ErrNotFound)
	})
	r.Get("/boom", func(*router.Context) handler.Response {
		return response.Error(assert.AnError)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/certificates/abc", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, []observed{
		{http.MethodGet, "/certificates/{id}", http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
		{http.MethodGet, "/boom", http.StatusInternalServerError},
	}, obs.seen)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.Equal(t, "ERROR", last["level"])
	assert.EqualValues(t, http.StatusInternalServerError, last["status_code"])
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
		Capacity: 2, RefillRate: 1, RefillInterval: time.Hour,
	})
	require.NoError(t, err)

	r := newRouter(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{Limiter: limiter, SetHeaders: true}))
	r.Post("/users/login", ok)

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/users/login", nil)
		req.Header.Set("X-Forwarded-For", ip)
		return serve(r, req)
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1").Code)
	rec := send("203.0.113.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = send("203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests")

	assert.Equal(t, http.StatusOK, send("203.0.113.2").Code)
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	r := newRouter(middleware.BodyLimit[*router.Context](8))
	r.Post("/", ok)

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("far too large")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	r := newRouter(middleware.SecurityHeaders[*router.Context](true))
	r.Get("/", ok)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

type stubLoader struct {
	sess session.Session[string]
	err  error
}

func (l stubLoader) Load(http.ResponseWriter, *http.Request) (session.Session[string], error) {
	return l.sess, l.err
}

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	anon := session.New[string](session.NewSessionParams{}, time.Hour)
	authed := anon
	authed.UserID = "u1"

	handlerFn := func(ctx *router.Context) handler.Response {
		sess, ok := middleware.GetSession[string](ctx)
		if !ok {
			return response.Error(response.ErrInternalServerError)
		}
		return response.String("user=" + sess.UserID)
	}

	tests := []struct {
		name   string
		loader stubLoader
		auth   bool
		status int
		body   string
	}{
		{"anonymous allowed", stubLoader{sess: anon}, false, http.StatusOK, "user="},
		{"anonymous rejected", stubLoader{sess: anon}, true, http.StatusUnauthorized, "Authentication required"},
		{"authenticated", stubLoader{sess: authed}, true, http.StatusOK, "user=u1"},
		{"load failure", stubLoader{err: context.DeadlineExceeded}, false, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mws := []handler.Middleware[*router.Context]{
				middleware.Session[*router.Context](middleware.SessionConfig[string]{Loader: tt.loader}),
			}
			if tt.auth {
				mws = append(mws, middleware.RequireAuth[*router.Context, string]())
			}
			r := newRouter(mws...)
			r.Get("/", handlerFn)

			rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}
