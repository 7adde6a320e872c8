package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/logger"
)

// RequestObserver records served requests, e.g. *metrics.Meter.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// LoggingConfig configures Logging.
type LoggingConfig struct {
	Skip     func(ctx handler.Context) bool
	Logger   *slog.Logger
	Observer RequestObserver
	// Requests slower than this are logged at warn level. Default 5s.
	SlowRequestThreshold time.Duration
}

// Logging logs one line per request with method, path, status and duration.
// 5xx responses log at error level, 4xx and slow requests at warn.
func Logging[C handler.Context](cfg LoggingConfig) handler.Middleware[C] {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
				err := resp(rw, r)
				elapsed := time.Since(start)

				status := rw.status
				if err != nil && !rw.written {
					// The router's error handler renders err after we return.
					status = statusFromError(err)
				}

				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				if cfg.Observer != nil {
					cfg.Observer.ObserveRequest(r.Method, route, status, elapsed)
				}

				attrs := []slog.Attr{
					logger.Component("http"),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.StatusCode(status),
					logger.Duration(elapsed),
					logger.ClientIP(clientIP(r)),
				}
				if id, ok := GetRequestID(ctx); ok {
					attrs = append(attrs, logger.Key("http_request_id", id))
				}

				level := slog.LevelInfo
				switch {
				case status >= 500:
					level = slog.LevelError
					attrs = append(attrs, logger.Error(err))
				case status >= 400:
					level = slog.LevelWarn
				case elapsed > cfg.SlowRequestThreshold:
					level = slog.LevelWarn
					attrs = append(attrs, logger.Key("slow_request", true))
				}
				cfg.Logger.LogAttrs(r.Context(), level, "http request", attrs...)
				return err
			}
		}
	}
}

func statusFromError(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
